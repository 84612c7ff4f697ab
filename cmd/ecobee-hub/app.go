package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ecobeehub/config"
	"ecobeehub/internal/auth"
	"ecobeehub/internal/core"
	"ecobeehub/internal/ecobee"
	"ecobeehub/internal/logging"
	"ecobeehub/internal/metrics"
	"ecobeehub/internal/nodes"
	"ecobeehub/internal/revision"
	"ecobeehub/internal/storage"
	"ecobeehub/internal/storage/diskv"
	"ecobeehub/internal/storage/sqlite"
)

// app holds the wired components shared by every command
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        storage.Storage
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	lifecycle    *auth.Lifecycle
	tracker      *revision.Tracker
	nodes        *nodes.Registry
	orchestrator *core.Orchestrator
}

func loadConfig() (*config.Config, error) {
	if useEnv {
		return config.LoadFromEnv(envFile)
	}
	return config.Load(configPath)
}

func openStorage(cfg config.DatabaseConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverDiskv:
		return diskv.New(cfg.Path)
	default:
		return sqlite.New(cfg.Path)
	}
}

// bootstrap loads configuration, opens storage, wires the vendor client,
// auth lifecycle and orchestrator, and loads any persisted tokens.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})

	// Client credentials must be present at startup
	if _, err := config.LoadCredentials(cfg.Ecobee.CredentialsFile); err != nil {
		return nil, fmt.Errorf("failed to load ecobee credentials: %w", err)
	}

	logger.Info("Opening storage", "driver", cfg.Database.Driver, "path", cfg.Database.Path)
	store, err := openStorage(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client := ecobee.NewClient(ecobee.Config{
		BaseURL: cfg.Ecobee.BaseURL,
		Timeout: cfg.Ecobee.HTTPTimeout.Std(),
	})

	lifecycle, err := auth.NewLifecycle(auth.Options{
		Client:          client,
		Store:           store,
		Notifier:        store,
		Credentials:     config.CredentialsFile{Path: cfg.Ecobee.CredentialsFile},
		Scope:           cfg.Ecobee.Scope,
		PinPollInterval: cfg.Ecobee.PinPollInterval.Std(),
		PinWindow:       cfg.Ecobee.PinWindow.Std(),
		Logger:          logger,
		Metrics:         m,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	tracker := revision.NewTracker()
	nodeRegistry := nodes.NewRegistry()

	orchestrator := core.NewOrchestrator(core.OrchestratorConfig{
		API:     logging.NewThermostatAPILogger(client, logger),
		Auth:    lifecycle,
		Tracker: tracker,
		Model:   nodeRegistry,
		Logger:  logger,
		Metrics: m,
	})

	if _, err := lifecycle.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		registry:     registry,
		metrics:      m,
		lifecycle:    lifecycle,
		tracker:      tracker,
		nodes:        nodeRegistry,
		orchestrator: orchestrator,
	}, nil
}

// discover runs discovery and logs the outcome
func (a *app) discover(ctx context.Context) {
	result, err := a.orchestrator.Discover(ctx)
	if err != nil {
		a.logger.Error("Discovery failed", "error", err)
		return
	}
	if result.Busy {
		return
	}
	a.logger.Info("Discovery finished",
		"thermostats", result.Thermostats,
		"registered", len(result.Registered),
		"failed", len(result.Failed))
}

func (a *app) Close() error {
	return a.store.Close()
}
