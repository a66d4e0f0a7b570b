package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-analytics/decision-intel/internal/agents"
	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
	"github.com/nexus-analytics/decision-intel/internal/report"
)

type memStore struct {
	mu       sync.Mutex
	runs     map[core.RunID]*core.HistoricalRun
	audits   []core.AuditEvent
	saveErr  error
	auditErr error
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[core.RunID]*core.HistoricalRun)}
}

func (m *memStore) AppendAudit(_ context.Context, agent, action, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audits = append(m.audits, core.AuditEvent{Agent: agent, Action: action, Detail: detail})
	return nil
}

func (m *memStore) SaveRun(_ context.Context, run *core.HistoricalRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.runs[run.RunID]; ok {
		return core.ErrState(core.CodeDuplicateRun, "duplicate run")
	}
	m.runs[run.RunID] = run
	return nil
}

func (m *memStore) ListRuns(context.Context) ([]core.HistoricalRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.HistoricalRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) RunExists(_ context.Context, id core.RunID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runs[id]
	return ok, nil
}

func (m *memStore) RecordOverride(context.Context, *core.Override) error { return nil }

type memSource struct {
	customers []core.Customer
	txs       []core.Transaction
	totals    []core.CategoryTotal
	scores    []float64
	assets    []core.SegmentAssets
}

func referenceSource() *memSource {
	return &memSource{
		customers: []core.Customer{
			{ID: "cust1", Name: "Alice Johnson", RiskScore: 0.15, Segment: "Retail", TotalAssets: 50000},
			{ID: "cust2", Name: "Bob Smith", RiskScore: 0.45, Segment: "Corporate", TotalAssets: 200000},
			{ID: "cust3", Name: "Charlie Brown", RiskScore: 0.85, Segment: "VIP", TotalAssets: 1000000},
			{ID: "cust4", Name: "David Wilson", RiskScore: 0.10, Segment: "Retail", TotalAssets: 15000},
			{ID: "cust5", Name: "Eva Green", RiskScore: 0.30, Segment: "Private", TotalAssets: 750000},
			{ID: "cust6", Name: "Frank White", RiskScore: 0.60, Segment: "SME", TotalAssets: 120000},
		},
		txs: []core.Transaction{
			{ID: "tx1", CustomerID: "cust1", Amount: 1200.50, Category: "Groceries"},
			{ID: "tx4", CustomerID: "cust3", Amount: 15000, Category: "Luxury"},
		},
		totals: []core.CategoryTotal{
			{Category: "Groceries", Total: 1200.50},
			{Category: "Luxury", Total: 15000},
		},
		scores: []float64{0.15, 0.45, 0.85, 0.10, 0.30, 0.60},
		assets: []core.SegmentAssets{{Segment: "VIP", TotalAssets: 1000000}},
	}
}

func (m *memSource) Transactions(context.Context) ([]core.Transaction, error) { return m.txs, nil }
func (m *memSource) Customers(context.Context) ([]core.Customer, error)       { return m.customers, nil }
func (m *memSource) CategoryTotals(context.Context) ([]core.CategoryTotal, error) {
	return m.totals, nil
}
func (m *memSource) RiskScores(context.Context) ([]float64, error) { return m.scores, nil }
func (m *memSource) AssetsBySegment(context.Context) ([]core.SegmentAssets, error) {
	return m.assets, nil
}
func (m *memSource) HighRiskCount(_ context.Context, threshold float64) (int, error) {
	n := 0
	for _, c := range m.customers {
		if c.RiskScore > threshold {
			n++
		}
	}
	return n, nil
}

func newTestEngine(t *testing.T, store core.RunStore, source core.AnalyticsSource, opts ...Option) *Engine {
	t.Helper()
	dir := t.TempDir()
	reports, err := report.NewWriter(dir+"/charts", dir+"/reports")
	require.NoError(t, err)
	pool := agents.NewPool(source, modeling.New(4), 0.7)
	return New(store, source, pool, reports, opts...)
}

func TestExecuteFullRun(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, store, referenceSource())

	rc, err := engine.Execute(context.Background(), "Assess transaction anomalies")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rc.RunID.String(), "RUN_"))
	require.Len(t, rc.Steps, 6)
	assert.True(t, strings.HasPrefix(rc.Steps[0], "PLAN: "))
	assert.True(t, strings.HasPrefix(rc.Steps[1], "TRANSFORM: "))
	assert.True(t, strings.HasPrefix(rc.Steps[2], "CLEAN: "))
	assert.True(t, strings.HasPrefix(rc.Steps[3], "MODEL: "))
	assert.True(t, strings.HasPrefix(rc.Steps[4], "SQL INSIGHT: "))
	assert.Equal(t, rc.Decision, rc.Steps[5]) // review step carries the decision

	assert.Contains(t, rc.Insights, "MODEL: ")
	assert.Contains(t, rc.Insights, " | ")
	assert.Contains(t, rc.Insights, "SQL INSIGHT: ")

	require.Len(t, rc.Debate, 3)
	assert.True(t, strings.HasPrefix(rc.Debate[0], "Data Scientist: "))
	assert.True(t, strings.HasPrefix(rc.Debate[1], "Analyst: "))
	assert.True(t, strings.HasPrefix(rc.Debate[2], "CDO: "))

	assert.NotEmpty(t, rc.ReportPath)
	charts, ok := rc.Data["charts"].([]string)
	require.True(t, ok)
	assert.Len(t, charts, 3)

	// Top three customers by risk score get explanations.
	require.Len(t, rc.Explanations, 3)
	assert.Contains(t, rc.Explanations, "0.85")
	assert.Contains(t, rc.Explanations, "0.6")
	assert.Contains(t, rc.Explanations, "0.45")

	// Run persisted exactly once.
	saved, ok := store.runs[rc.RunID]
	require.True(t, ok)
	assert.Equal(t, rc.Insights, saved.Insights)
	assert.Equal(t, rc.Decision, saved.Decision)
	assert.NotEmpty(t, saved.FullState)
}

func TestExecuteAuditTrail(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, store, referenceSource())

	rc, err := engine.Execute(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, store.audits, 7)
	assert.Equal(t, core.AuditEvent{Agent: "Planner", Action: "Planning", Detail: "Decomposing query: q"}, store.audits[0])
	assert.Equal(t, core.AuditEvent{Agent: "Data Engineer", Action: "Data Ingestion", Detail: "Querying TransactionDB"}, store.audits[1])
	assert.Equal(t, core.AuditEvent{Agent: "Preprocessing", Action: "Data Cleaning", Detail: "Cleaning batch"}, store.audits[2])
	assert.Equal(t, core.AuditEvent{Agent: "Data Scientist", Action: "ML Modeling", Detail: "Proposing risk clusters and fraud scores"}, store.audits[3])
	assert.Equal(t, core.AuditEvent{Agent: "Analyst", Action: "Insight Derivation", Detail: "Analyzing risk and volume"}, store.audits[4])
	assert.Equal(t, core.AuditEvent{Agent: "CDO", Action: "Final Review", Detail: "Granting strategic approval with justification"}, store.audits[5])
	assert.Equal(t, core.AuditEvent{Agent: "Run Store", Action: "Persistence", Detail: "Saving run " + rc.RunID.String() + " to decision history"}, store.audits[6])
}

func TestExecuteValidatesQuery(t *testing.T) {
	engine := newTestEngine(t, newMemStore(), referenceSource())

	_, err := engine.Execute(context.Background(), "")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))

	_, err = engine.Execute(context.Background(), strings.Repeat("x", core.MaxQueryLength+1))
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestExecuteDegradedModelingCompletes(t *testing.T) {
	store := newMemStore()
	// Empty source: segmentation and analysis both degrade.
	engine := newTestEngine(t, store, &memSource{})

	rc, err := engine.Execute(context.Background(), "q")
	require.NoError(t, err)

	assert.Contains(t, rc.Insights, "MODELING ERROR: ")
	assert.Contains(t, rc.Insights, "ANALYSIS ERROR: ")

	// The run still completes fully shaped and persists.
	require.Len(t, rc.Steps, 6)
	assert.NotEmpty(t, rc.Decision)
	assert.Contains(t, store.runs, rc.RunID)
}

func TestExecutePersistFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	engine := newTestEngine(t, store, referenceSource())

	_, err := engine.Execute(context.Background(), "q")
	require.Error(t, err)

	stage, ok := core.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, core.StagePersist, stage)
	assert.Empty(t, store.runs)
}

func TestExecuteAuditFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.auditErr = errors.New("audit table locked")
	engine := newTestEngine(t, store, referenceSource())

	_, err := engine.Execute(context.Background(), "q")
	require.Error(t, err)

	stage, ok := core.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, core.StagePlan, stage)
}

func TestExecutePublishesEvents(t *testing.T) {
	store := newMemStore()
	bus := events.New(100)
	defer bus.Close()
	ch := bus.Subscribe()

	engine := newTestEngine(t, store, referenceSource(), WithBus(bus))

	rc, err := engine.Execute(context.Background(), "q")
	require.NoError(t, err)

	var types []string
	for len(types) < 9 {
		ev := <-ch
		assert.Equal(t, rc.RunID.String(), ev.RunID())
		types = append(types, ev.EventType())
	}

	assert.Equal(t, events.TypeRunStarted, types[0])
	for _, tp := range types[1:8] {
		assert.Equal(t, events.TypeRunStage, tp)
	}
	assert.Equal(t, events.TypeRunCompleted, types[8])
}

func TestExecuteFailureEvent(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	bus := events.New(100)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeRunFailed)

	engine := newTestEngine(t, store, referenceSource(), WithBus(bus))
	_, err := engine.Execute(context.Background(), "q")
	require.Error(t, err)

	select {
	case ev := <-ch:
		failed, ok := ev.(events.RunFailedEvent)
		require.True(t, ok)
		assert.Equal(t, core.StagePersist.String(), failed.Stage)
		assert.Contains(t, failed.Error, "disk full")
	default:
		t.Fatal("expected run failed event")
	}
}

func TestExecuteConcurrentRunsIndependent(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, store, referenceSource())

	const n = 8
	results := make([]*core.RunContext, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Execute(context.Background(), "concurrent query")
		}(i)
	}
	wg.Wait()

	seen := make(map[core.RunID]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		rc := results[i]
		assert.False(t, seen[rc.RunID], "run IDs must be unique")
		seen[rc.RunID] = true
		// No cross-run interleaving: every context carries exactly its
		// own six steps.
		assert.Len(t, rc.Steps, 6)
		assert.Len(t, rc.Debate, 3)
	}
	assert.Len(t, store.runs, n)
}

func TestTopByRisk(t *testing.T) {
	customers := referenceSource().customers

	top := topByRisk(customers, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "cust3", top[0].ID)
	assert.Equal(t, "cust6", top[1].ID)
	assert.Equal(t, "cust2", top[2].ID)

	// Requesting more than available returns everything.
	assert.Len(t, topByRisk(customers, 99), len(customers))
	assert.Empty(t, topByRisk(nil, 3))
}

func TestRiskKey(t *testing.T) {
	assert.Equal(t, "0.85", riskKey(0.85))
	assert.Equal(t, "0.6", riskKey(0.60))
}
