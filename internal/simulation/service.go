package simulation

import (
	"context"
	"fmt"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/logging"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
)

// Scenario selects which what-if transform to run.
type Scenario string

const (
	ScenarioFraud Scenario = "fraud"
	ScenarioRisk  Scenario = "risk"
)

// Request is a what-if scenario referencing a completed run.
type Request struct {
	RunID    core.RunID `json:"run_id"`
	Scenario Scenario   `json:"type"`
	Value    float64    `json:"value"`
}

// Service resolves simulation requests against the run store and
// analytics source. The computation itself stays in the pure transforms;
// the service only validates the run reference, fetches rows and logs
// the audit event.
type Service struct {
	store  core.RunStore
	source core.AnalyticsSource
	model  *modeling.Service
	bus    *events.Bus
	log    *logging.Logger

	persist func(ctx context.Context, runID core.RunID, result core.SimulationResult) error
}

// Option configures the service.
type Option func(*Service)

// WithPersistence stores each result via the given append function
// instead of keeping results ephemeral.
func WithPersistence(save func(ctx context.Context, runID core.RunID, result core.SimulationResult) error) Option {
	return func(s *Service) {
		s.persist = save
	}
}

// NewService creates the simulation service.
func NewService(store core.RunStore, source core.AnalyticsSource, model *modeling.Service, bus *events.Bus, log *logging.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		source: source,
		model:  model,
		bus:    bus,
		log:    log,
	}
	if s.log == nil {
		s.log = logging.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes a what-if scenario. An unknown run ID is refused with a
// structured not_found error before any computation.
func (s *Service) Run(ctx context.Context, req Request) (core.SimulationResult, error) {
	exists, err := s.store.RunExists(ctx, req.RunID)
	if err != nil {
		return core.SimulationResult{}, fmt.Errorf("checking run reference: %w", err)
	}
	if !exists {
		return core.SimulationResult{}, core.ErrNotFound("run", req.RunID.String())
	}

	var result core.SimulationResult
	switch req.Scenario {
	case ScenarioFraud:
		txs, err := s.source.Transactions(ctx)
		if err != nil {
			return core.SimulationResult{}, fmt.Errorf("fetching transactions: %w", err)
		}
		result = FraudThreshold(s.model.ScoreTransactions(txs), req.Value)

	case ScenarioRisk:
		customers, err := s.source.Customers(ctx)
		if err != nil {
			return core.SimulationResult{}, fmt.Errorf("fetching customers: %w", err)
		}
		result = RiskRetention(customers, req.Value)

	default:
		return core.SimulationResult{}, core.ErrValidation(core.CodeInvalidScenario,
			fmt.Sprintf("unknown scenario type: %s", req.Scenario))
	}

	detail := fmt.Sprintf("Type: %s, Value: %v", req.Scenario, req.Value)
	if err := s.store.AppendAudit(ctx, "Simulation Engine", "Simulation Executed", detail); err != nil {
		return core.SimulationResult{}, fmt.Errorf("auditing simulation: %w", err)
	}

	if s.persist != nil {
		if err := s.persist(ctx, req.RunID, result); err != nil {
			return core.SimulationResult{}, fmt.Errorf("persisting simulation result: %w", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.NewSimulationEvent(req.RunID.String(), string(req.Scenario), result))
	}

	s.log.WithRun(req.RunID.String()).Info("simulation executed",
		"scenario", req.Scenario, "value", req.Value, "delta", result.Delta)
	return result, nil
}
