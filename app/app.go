// Package app wires configuration, storage and services together and runs
// the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jtbgroup/immocare-sub000/api"
	"github.com/jtbgroup/immocare-sub000/config"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/metrics"
	"github.com/jtbgroup/immocare-sub000/rent"
	"github.com/jtbgroup/immocare-sub000/store/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the root logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *application) {
		a.logger = log
	}
}

// WithRegistry registers metrics on reg instead of the default registerer.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *application) {
		a.registry = reg
	}
}

// Components are the long-lived objects shared by the commands.
type Components struct {
	Store  *sqlite.Store
	Rents  *rent.Ledger
	Leases *lease.Service
}

// Build opens the store and creates the services.
func Build(cfg *config.Config, log *zap.Logger) (*Components, error) {
	store, err := sqlite.New(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Components{
		Store:  store,
		Rents:  rent.NewLedger(store, cfg.Rent.Ledger(), log),
		Leases: lease.NewService(store, cfg.Lease.Service(), log),
	}, nil
}

// Close releases the store.
func (c *Components) Close() error {
	return c.Store.Close()
}

// Run serves the API until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}

	cfg := a.config
	log := a.logger

	log.Info("configuration loaded",
		zap.String("http_address", cfg.HTTP.Address()),
		zap.String("sqlite_path", cfg.SQLite.Path),
		zap.String("env", cfg.App.Env),
		zap.String("log_level", cfg.App.LogLevel))

	var registerer prometheus.Registerer
	if a.registry != nil {
		registerer = a.registry
	}
	metricsHandler, err := metrics.Register(registerer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	comps, err := Build(cfg, log)
	if err != nil {
		return err
	}
	defer comps.Close()

	handler := api.NewHandler(comps.Store, comps.Rents, comps.Leases, log)
	router := api.NewRouter(handler, api.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Metrics:        metricsHandler,
		Logger:         log.Named("http"),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			log.Info("received shutdown signal", zap.String("signal", sig.String()))
		case <-gCtx.Done():
			log.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("application error", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}
