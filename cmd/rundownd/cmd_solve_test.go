package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name   string
		result solver.Result
		want   []string
	}{
		{
			name: "resolved with items",
			result: solver.Result{
				Status:   solver.StatusResolved,
				Message:  "resolved",
				Needed:   2 * time.Minute,
				Produced: 2 * time.Minute,
				Candidates: []models.Item{
					{AssetID: "a1", Title: "Artist - One", Duration: time.Minute},
					{AssetID: "a2", Title: "Artist - Two", Duration: time.Minute},
				},
			},
			want: []string{"200 resolved: resolved", "needed 2m0s, produced 2m0s", "ASSET", "Artist - Two"},
		},
		{
			name:   "empty",
			result: solver.Result{Status: solver.StatusEmpty, Message: solver.EmptyMessage},
			want:   []string{"501 empty: " + solver.EmptyMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printResult(&buf, tt.result)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q does not contain %q", buf.String(), want)
				}
			}
		})
	}
}
