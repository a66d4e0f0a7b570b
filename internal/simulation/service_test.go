package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/logging"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
)

type fakeStore struct {
	runs   map[core.RunID]bool
	audits []core.AuditEvent
}

func newFakeStore(runIDs ...core.RunID) *fakeStore {
	runs := make(map[core.RunID]bool)
	for _, id := range runIDs {
		runs[id] = true
	}
	return &fakeStore{runs: runs}
}

func (f *fakeStore) AppendAudit(_ context.Context, agent, action, detail string) error {
	f.audits = append(f.audits, core.AuditEvent{Agent: agent, Action: action, Detail: detail})
	return nil
}

func (f *fakeStore) SaveRun(_ context.Context, run *core.HistoricalRun) error {
	f.runs[run.RunID] = true
	return nil
}

func (f *fakeStore) ListRuns(context.Context) ([]core.HistoricalRun, error) { return nil, nil }

func (f *fakeStore) RunExists(_ context.Context, id core.RunID) (bool, error) {
	return f.runs[id], nil
}

func (f *fakeStore) RecordOverride(context.Context, *core.Override) error { return nil }

type fakeSource struct {
	txs       []core.Transaction
	customers []core.Customer
}

func (f *fakeSource) Transactions(context.Context) ([]core.Transaction, error) { return f.txs, nil }
func (f *fakeSource) Customers(context.Context) ([]core.Customer, error)       { return f.customers, nil }
func (f *fakeSource) CategoryTotals(context.Context) ([]core.CategoryTotal, error) {
	return nil, nil
}
func (f *fakeSource) RiskScores(context.Context) ([]float64, error)                { return nil, nil }
func (f *fakeSource) AssetsBySegment(context.Context) ([]core.SegmentAssets, error) { return nil, nil }
func (f *fakeSource) HighRiskCount(context.Context, float64) (int, error)           { return 0, nil }

func TestServiceRunFraudScenario(t *testing.T) {
	store := newFakeStore("RUN_AAAA0001")
	source := &fakeSource{txs: []core.Transaction{
		{ID: "tx1", Amount: 15000, Category: "Luxury"},
		{ID: "tx2", Amount: 100, Category: "Groceries"},
	}}
	svc := NewService(store, source, modeling.New(4), nil, logging.NewNop())

	result, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_AAAA0001",
		Scenario: ScenarioFraud,
		Value:    0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fraud Threshold", result.Parameter)
	assert.Equal(t, 1, result.CountBefore) // tx1 scores 0.7
	assert.Equal(t, 1, result.CountAfter)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "Simulation Engine", store.audits[0].Agent)
	assert.Equal(t, "Simulation Executed", store.audits[0].Action)
	assert.Equal(t, "Type: fraud, Value: 0.3", store.audits[0].Detail)
}

func TestServiceRunRiskScenario(t *testing.T) {
	store := newFakeStore("RUN_AAAA0001")
	source := &fakeSource{customers: []core.Customer{
		{ID: "cust3", RiskScore: 0.85, Segment: "VIP"},
	}}
	svc := NewService(store, source, modeling.New(4), nil, logging.NewNop())

	result, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_AAAA0001",
		Scenario: ScenarioRisk,
		Value:    0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "VIP Risk Allowance", result.Parameter)
	assert.Equal(t, 1, result.Affected)
}

func TestServiceRunUnknownRun(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeSource{}, modeling.New(4), nil, logging.NewNop())

	_, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_MISSING1",
		Scenario: ScenarioFraud,
		Value:    0.3,
	})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
	// Refused before any computation or audit write.
	assert.Empty(t, store.audits)
}

func TestServiceRunUnknownScenario(t *testing.T) {
	store := newFakeStore("RUN_AAAA0001")
	svc := NewService(store, &fakeSource{}, modeling.New(4), nil, logging.NewNop())

	_, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_AAAA0001",
		Scenario: "liquidity",
		Value:    0.3,
	})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestServiceRunPublishesEvent(t *testing.T) {
	store := newFakeStore("RUN_AAAA0001")
	bus := events.New(10)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeSimulation)

	svc := NewService(store, &fakeSource{}, modeling.New(4), bus, logging.NewNop())
	_, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_AAAA0001",
		Scenario: ScenarioFraud,
		Value:    0.6,
	})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		sim, ok := ev.(events.SimulationEvent)
		require.True(t, ok)
		assert.Equal(t, "fraud", sim.Scenario)
		assert.Equal(t, "RUN_AAAA0001", sim.RunID())
	default:
		t.Fatal("expected simulation event on bus")
	}
}

func TestServiceRunPersistence(t *testing.T) {
	store := newFakeStore("RUN_AAAA0001")
	var saved []core.SimulationResult
	svc := NewService(store, &fakeSource{}, modeling.New(4), nil, logging.NewNop(),
		WithPersistence(func(_ context.Context, _ core.RunID, r core.SimulationResult) error {
			saved = append(saved, r)
			return nil
		}))

	_, err := svc.Run(context.Background(), Request{
		RunID:    "RUN_AAAA0001",
		Scenario: ScenarioRisk,
		Value:    0.8,
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "VIP Risk Allowance", saved[0].Parameter)
}
