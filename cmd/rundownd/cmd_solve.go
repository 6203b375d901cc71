/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/grimnir_rundown/internal/server"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

var (
	solveSolver string
	solveDebug  bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <placeholder-id>",
	Short: "Resolve a single placeholder",
	Long: `Run a solver against one placeholder and replace it in its bin.

The solver defaults to the one stored on the placeholder.

Examples:
  # Resolve with the placeholder's own solver
  rundownd solve 3f1c...

  # Preview what the smartblock solver would produce
  rundownd solve 3f1c... --solver smartblock --debug
`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List registered solvers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		srv, err := server.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize server: %w", err)
		}
		defer srv.Close()

		for _, name := range srv.Solver().Registry().Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	solveCmd.Flags().StringVarP(&solveSolver, "solver", "s", "", "Solver name (defaults to the placeholder's solver)")
	solveCmd.Flags().BoolVar(&solveDebug, "debug", false, "Report what would be inserted without changing the bin")
	rootCmd.AddCommand(solveCmd, solversCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer srv.Close()

	ctx := cmd.Context()
	placeholderID := args[0]

	name := solveSolver
	if name == "" {
		item, err := srv.Store().Item(ctx, placeholderID)
		if err != nil {
			return err
		}
		if item.Solver == "" {
			return fmt.Errorf("placeholder %s has no solver; pass --solver", placeholderID)
		}
		name = item.Solver
	}

	result, err := srv.Solver().ResolveByName(ctx, placeholderID, name, solveDebug)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	if !result.OK() {
		return fmt.Errorf("solver %s: %s", name, result.Message)
	}
	return nil
}

func printResult(out io.Writer, result solver.Result) {
	fmt.Fprintf(out, "%d %s: %s\n", result.Code(), result.Status, result.Message)
	fmt.Fprintf(out, "needed %s, produced %s\n", result.Needed, result.Produced)
	if len(result.Candidates) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tDURATION\tTITLE")
	for _, item := range result.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.AssetID, item.Duration, item.Title)
	}
	_ = tw.Flush()
}
