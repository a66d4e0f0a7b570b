// Package workflow drives the decision pipeline: a fixed, strictly
// sequential stage list that threads one run context from planning
// through persistence. The context is owned by exactly one stage at a
// time; concurrent runs execute as fully independent contexts.
package workflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nexus-analytics/decision-intel/internal/agents"
	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/logging"
	"github.com/nexus-analytics/decision-intel/internal/report"
)

// Engine executes runs through the ordered stage pipeline.
type Engine struct {
	store   core.RunStore
	source  core.AnalyticsSource
	pool    *agents.Pool
	reports *report.Writer
	bus     *events.Bus
	log     *logging.Logger

	topExplanations int
}

// Option configures the engine.
type Option func(*Engine)

// WithBus attaches the notification channel. Without it runs execute
// silently.
func WithBus(bus *events.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTopExplanations sets how many customers get risk explanations in
// the analyze stage.
func WithTopExplanations(n int) Option {
	return func(e *Engine) {
		e.topExplanations = n
	}
}

// New creates a workflow engine.
func New(store core.RunStore, source core.AnalyticsSource, pool *agents.Pool, reports *report.Writer, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		source:          source,
		pool:            pool,
		reports:         reports,
		log:             logging.NewNop(),
		topExplanations: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stageDef binds one pipeline stage to its audit entry and body.
type stageDef struct {
	id     core.Stage
	action string
	detail func(rc *core.RunContext) string
	run    func(ctx context.Context, rc *core.RunContext) error
}

func (e *Engine) stages() []stageDef {
	return []stageDef{
		{
			id:     core.StagePlan,
			action: "Planning",
			detail: func(rc *core.RunContext) string { return "Decomposing query: " + rc.Query },
			run:    e.planStage,
		},
		{
			id:     core.StageIngest,
			action: "Data Ingestion",
			detail: staticDetail("Querying TransactionDB"),
			run:    e.ingestStage,
		},
		{
			id:     core.StageClean,
			action: "Data Cleaning",
			detail: staticDetail("Cleaning batch"),
			run:    e.cleanStage,
		},
		{
			id:     core.StageModel,
			action: "ML Modeling",
			detail: staticDetail("Proposing risk clusters and fraud scores"),
			run:    e.modelStage,
		},
		{
			id:     core.StageAnalyze,
			action: "Insight Derivation",
			detail: staticDetail("Analyzing risk and volume"),
			run:    e.analyzeStage,
		},
		{
			id:     core.StageReview,
			action: "Final Review",
			detail: staticDetail("Granting strategic approval with justification"),
			run:    e.reviewStage,
		},
		{
			id:     core.StagePersist,
			action: "Persistence",
			detail: func(rc *core.RunContext) string { return "Saving run " + rc.RunID.String() + " to decision history" },
			run:    e.persistStage,
		},
	}
}

func staticDetail(s string) func(*core.RunContext) string {
	return func(*core.RunContext) string { return s }
}

// Execute runs the full pipeline for a query. Recoverable stage errors
// (model/analyze) are absorbed into the context narrative; any other
// stage failure aborts the run and nothing is written to history.
func (e *Engine) Execute(ctx context.Context, query string) (*core.RunContext, error) {
	if query == "" {
		return nil, core.ErrValidation(core.CodeEmptyQuery, "query cannot be empty")
	}
	if len(query) > core.MaxQueryLength {
		return nil, core.ErrValidation(core.CodeQueryTooLong,
			fmt.Sprintf("query exceeds %d characters", core.MaxQueryLength))
	}

	rc := core.NewRunContext(query)
	log := e.log.WithRun(rc.RunID.String())
	log.Info("run started", "query", query)
	e.publish(events.NewRunStartedEvent(rc.RunID.String(), query))

	for _, st := range e.stages() {
		stageLog := log.WithStage(st.id.String()).WithAgent(st.id.Agent())
		stageLog.Debug("stage started")
		e.publish(events.NewRunStageEvent(rc.RunID.String(), st.id))

		if err := e.store.AppendAudit(ctx, st.id.Agent(), st.action, st.detail(rc)); err != nil {
			e.publish(events.NewRunFailedEvent(rc.RunID.String(), st.id, err))
			return nil, core.ErrStage(st.id, fmt.Errorf("appending audit event: %w", err))
		}

		if err := st.run(ctx, rc); err != nil {
			stageLog.Error("stage failed", "error", err)
			e.publish(events.NewRunFailedEvent(rc.RunID.String(), st.id, err))
			return nil, core.ErrStage(st.id, err)
		}
	}

	log.Info("run completed", "decision", rc.Decision, "report", rc.ReportPath)
	e.publish(events.NewRunCompletedEvent(rc.RunID.String(), rc))
	return rc, nil
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) planStage(_ context.Context, rc *core.RunContext) error {
	rc.AppendStep(e.pool.Plan(rc.Query))
	return nil
}

func (e *Engine) ingestStage(_ context.Context, rc *core.RunContext) error {
	extraction := e.pool.Ingest("Querying TransactionDB")
	rc.Data["log"] = extraction
	rc.Data["charts"] = []string{}
	rc.AppendStep(extraction)
	return nil
}

func (e *Engine) cleanStage(_ context.Context, rc *core.RunContext) error {
	raw, _ := rc.Data["log"].(string)
	cleaning := e.pool.Clean("Cleaning batch", raw)
	rc.Data["cleaning_log"] = cleaning
	rc.AppendStep(cleaning)
	return nil
}

// modelStage asks the modeler for segmentation and fraud scores. A
// degraded outcome is annotated, never propagated: the pipeline keeps
// going and the run completes normally shaped.
func (e *Engine) modelStage(ctx context.Context, rc *core.RunContext) error {
	outcome := e.pool.Model(ctx, "Running KMeans and Fraud Logit")
	if outcome.Degraded {
		e.log.WithRun(rc.RunID.String()).Warn("modeling degraded", "narrative", outcome.Narrative)
	}
	rc.AppendInsight(outcome.Narrative)
	rc.AppendStep(outcome.Narrative)
	rc.AppendDebate("Data Scientist: Proposed risk/fraud scores based on statistical anomalies and amount heuristics.")
	return nil
}

func (e *Engine) reviewStage(_ context.Context, rc *core.RunContext) error {
	rc.Decision = e.pool.Review("Granting final strategic approval.")
	rc.AppendDebate("CDO: Finalized strategy. Reconciled Data Scientist's models with Analyst's market context. Justification: Low-impact risk segments allowed for VIP retention.")
	rc.AppendStep(rc.Decision)

	charts, _ := rc.Data["charts"].([]string)
	path, err := e.reports.WriteSummary(rc.RunID, rc.Insights, charts)
	if err != nil {
		return err
	}
	rc.ReportPath = path
	return nil
}

// persistStage writes the run to history exactly once. Unlike the
// recoverable stages, a failure here is fatal and the run is not
// recorded.
func (e *Engine) persistStage(ctx context.Context, rc *core.RunContext) error {
	snapshot, err := rc.Snapshot()
	if err != nil {
		return fmt.Errorf("serializing run snapshot: %w", err)
	}
	return e.store.SaveRun(ctx, &core.HistoricalRun{
		RunID:      rc.RunID,
		Query:      rc.Query,
		Insights:   rc.Insights,
		Decision:   rc.Decision,
		ReportPath: rc.ReportPath,
		FullState:  snapshot,
	})
}

// riskKey formats a risk score the way the explanation map is keyed.
func riskKey(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}

// topByRisk returns the n highest-risk customers, ties broken by source
// ordering.
func topByRisk(customers []core.Customer, n int) []core.Customer {
	sorted := make([]core.Customer, len(customers))
	copy(sorted, customers)
	// Stable insertion sort by descending risk; input sizes are tiny.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].RiskScore > sorted[j-1].RiskScore; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
