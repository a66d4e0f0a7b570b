package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nexus-analytics/decision-intel/internal/agents"
	"github.com/nexus-analytics/decision-intel/internal/config"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/logging"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
	"github.com/nexus-analytics/decision-intel/internal/report"
	"github.com/nexus-analytics/decision-intel/internal/simulation"
	"github.com/nexus-analytics/decision-intel/internal/store"
	"github.com/nexus-analytics/decision-intel/internal/workflow"
)

// app bundles the wired components a command needs. Close must be called
// when the command finishes.
type app struct {
	cfg    *config.Config
	log    *logging.Logger
	store  *store.SQLiteStore
	bus    *events.Bus
	engine *workflow.Engine
	sim    *simulation.Service
}

// buildApp loads configuration and wires the full component graph.
func buildApp() (*app, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader = loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	var storeOpts []store.Option
	if !cfg.Store.Seed {
		storeOpts = append(storeOpts, store.WithoutSeed())
	}
	st, err := store.Open(cfg.Store.Path, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	reports, err := report.NewWriter(cfg.Store.ChartsDir, cfg.Store.ReportsDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	bus := events.New(cfg.Server.EventBuffer)
	model := modeling.New(cfg.Pipeline.Segments)
	pool := agents.NewPool(st, model, cfg.Pipeline.HighRiskThreshold)

	engine := workflow.New(st, st, pool, reports,
		workflow.WithBus(bus),
		workflow.WithLogger(log),
		workflow.WithTopExplanations(cfg.Pipeline.TopExplanations),
	)

	simOpts := []simulation.Option{}
	if cfg.Pipeline.PersistSimulations {
		simOpts = append(simOpts, simulation.WithPersistence(st.SaveSimulation))
	}
	sim := simulation.NewService(st, st, model, bus, log, simOpts...)

	return &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		bus:    bus,
		engine: engine,
		sim:    sim,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("closing store", "error", err)
	}
}
