/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/grimnir_rundown/internal/api"
	"github.com/friendsincode/grimnir_rundown/internal/cache"
	"github.com/friendsincode/grimnir_rundown/internal/config"
	"github.com/friendsincode/grimnir_rundown/internal/db"
	"github.com/friendsincode/grimnir_rundown/internal/eventbus"
	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/leadership"
	"github.com/friendsincode/grimnir_rundown/internal/logging"
	"github.com/friendsincode/grimnir_rundown/internal/playout"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
	"github.com/friendsincode/grimnir_rundown/internal/solver/presets"
	"github.com/friendsincode/grimnir_rundown/internal/sweep"
	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
	"github.com/friendsincode/grimnir_rundown/internal/version"
)

// Name of the playout plugin that resolves placeholders on command.
const ResolverPlugin = "resolver"

// DefaultSolver is used by the playout resolver when a command names none.
const DefaultSolver = "smartblock"

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db        *gorm.DB
	store     *rundown.GormStore
	bus       events.Broker
	cache     *cache.Cache
	refresher *cache.BinRefresher
	registry  *solver.Registry
	solver    *solver.Solver
	sweeper   *sweep.Service
	election  *leadership.Election
	runner    *playout.Runner
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("rundown-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Cache-Control", "no-store")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logging.Component(logger, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	s.DeferClose(func() error { return db.Close(database) })
	if err := db.RegisterCallbacks(database); err != nil {
		return fmt.Errorf("register db callbacks: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.store = rundown.NewGormStore(database)

	s.bus = s.newBus()

	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		s.cache = cache.New(cacheCfg, s.logger)
		s.DeferClose(s.cache.Close)
	} else {
		s.cache = cache.Disabled(s.logger)
	}
	s.refresher = cache.NewBinRefresher(s.cache, s.store)

	s.registry = solver.NewRegistry(logging.Component(s.logger, "registry"))
	if err := presets.RegisterBuiltins(s.registry, database, s.logger); err != nil {
		return fmt.Errorf("register builtin solvers: %w", err)
	}
	if s.cfg.SolverPresetFile != "" {
		file, err := presets.Load(s.cfg.SolverPresetFile)
		if err != nil {
			return err
		}
		if err := presets.Register(s.registry, file, database, s.logger); err != nil {
			return err
		}
		s.logger.Info().
			Str("path", s.cfg.SolverPresetFile).
			Int("presets", len(file.Solvers)).
			Msg("solver presets loaded")
	}

	s.solver = solver.New(s.store, s.registry, s.refresher, s.bus, logging.Component(s.logger, "solver"))
	s.sweeper = sweep.New(s.store, s.solver, s.cfg.SweepSchedule, logging.Component(s.logger, "sweep"))
	if s.cfg.LeaderElection {
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		s.DeferClose(client.Close)
		electionCfg := leadership.DefaultConfig()
		electionCfg.InstanceID = s.cfg.InstanceID
		s.election = leadership.New(client, electionCfg, s.logger)
		s.sweeper.Leader = s.election
		s.logger.Info().
			Str("redis_addr", s.cfg.RedisAddr).
			Str("instance_id", s.election.InstanceID()).
			Msg("leader election enabled for sweep")
	}

	s.runner = playout.NewRunner(s.cfg.PlayoutTickInterval, logging.Component(s.logger, "playout"))
	s.runner.Add(playout.New(
		ResolverPlugin,
		playout.NewChannelState(s.cfg.InstanceID),
		playout.NewResolver(s.solver, DefaultSolver),
		s.logger,
	))

	s.api = api.New(s.store, s.solver, s.cache, s.runner, logging.Component(s.logger, "api"))
	return nil
}

// newBus picks the change notification transport. Remote buses degrade to
// local delivery when their server is unreachable.
func (s *Server) newBus() events.Broker {
	switch s.cfg.EventBus {
	case config.EventBusRedis:
		redisCfg := eventbus.DefaultRedisConfig()
		redisCfg.Addr = s.cfg.RedisAddr
		redisCfg.Password = s.cfg.RedisPassword
		redisCfg.DB = s.cfg.RedisDB
		bus := eventbus.NewRedisBus(redisCfg, s.cfg.InstanceID, s.logger)
		s.DeferClose(bus.Close)
		return bus
	case config.EventBusNATS:
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		bus := eventbus.NewNATSBus(natsCfg, s.cfg.InstanceID, s.logger)
		s.DeferClose(bus.Close)
		return bus
	default:
		return events.NewBus()
	}
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, version.Version)
	})

	s.api.Routes(s.router)
}

// Router exposes the HTTP handler tree.
func (s *Server) Router() http.Handler {
	return s.router
}

// Store returns the rundown store.
func (s *Server) Store() rundown.Store {
	return s.store
}

// Solver returns the wired solver.
func (s *Server) Solver() *solver.Solver {
	return s.solver
}

// ListenAndServe starts background workers and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.startBackgroundWorkers(); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if s.metricsServer != nil {
		go func() {
			s.logger.Info().Str("addr", s.metricsServer.Addr).Msg("metrics server listening")
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the HTTP listeners and background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.sweeper.Stop(ctx)
	if s.election != nil {
		if err := s.election.Stop(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("leader election stop failed")
		}
	}
	s.stopBackgroundWorkers()
	s.logger.Info().Msg("server stopped")
	return firstErr
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if s.election != nil {
		s.election.Start(ctx)
	}
	if err := s.sweeper.Start(ctx); err != nil {
		cancel()
		s.bgCancel = nil
		return fmt.Errorf("start sweep: %w", err)
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("playout runner exited")
		}
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runner.Listen(ctx, s.bus)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runCacheInvalidationListener(ctx)
	}()

	return nil
}

// runCacheInvalidationListener refreshes bin snapshots when any node
// announces changed bins.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	changed := s.bus.Subscribe(events.EventObjectsChanged)
	defer s.bus.Unsubscribe(events.EventObjectsChanged, changed)

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return
		case payload, ok := <-changed:
			if !ok {
				return
			}
			if kind, _ := payload["object_type"].(string); kind != events.ObjectBin {
				continue
			}
			binIDs, _ := payload["objects"].([]string)
			if len(binIDs) == 0 {
				continue
			}
			if err := s.refresher.RefreshBins(ctx, binIDs); err != nil {
				s.logger.Warn().Err(err).Strs("bins", binIDs).Msg("bin refresh failed")
			}
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}
