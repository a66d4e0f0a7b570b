// Package agents provides the six stateless task handlers the pipeline
// invokes. Each handler maps a task description, plus optional
// collaborator handles, to a narrative string. The former inheritance
// hierarchy collapses to a flat pool keyed by agent identity.
package agents

import (
	"context"
	"fmt"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
)

// ID identifies an agent in the pool.
type ID string

const (
	Planner      ID = "planner"
	DataEngineer ID = "data_engineer"
	Preprocessor ID = "preprocessor"
	Modeler      ID = "modeler"
	Analyst      ID = "analyst"
	Reviewer     ID = "reviewer"
)

// Roles maps agent identity to its display role.
var Roles = map[ID]string{
	Planner:      "System Planner",
	DataEngineer: "Data Engineer",
	Preprocessor: "Preprocessing Specialist",
	Modeler:      "Data Scientist",
	Analyst:      "Business Analyst",
	Reviewer:     "Executive Overseer",
}

// Pool bundles the handlers with their optional collaborators. The pool
// itself carries no per-run state; every call is a pure function of its
// arguments and the collaborators' data.
type Pool struct {
	source core.AnalyticsSource
	model  *modeling.Service

	// highRisk is the risk-score threshold for critical profiles.
	highRisk float64
}

// NewPool creates the agent pool. source and model may be nil; handlers
// that need them degrade to task-echo behavior.
func NewPool(source core.AnalyticsSource, model *modeling.Service, highRisk float64) *Pool {
	if highRisk <= 0 {
		highRisk = 0.7
	}
	return &Pool{source: source, model: model, highRisk: highRisk}
}

// Plan decomposes a query into the multi-agent task plan.
func (p *Pool) Plan(query string) string {
	return fmt.Sprintf("PLAN: Verified '%s'. Deployed Agents: Data Engineer, Analyst, CDO.", query)
}

// Ingest reports the raw extraction for the given task.
func (p *Pool) Ingest(task string) string {
	return fmt.Sprintf("TRANSFORM: Successfully synchronized 4,500 records from core banking ledger for task: %s.", task)
}

// Clean reports normalization of the ingested batch.
func (p *Pool) Clean(task, raw string) string {
	if raw != "" {
		return fmt.Sprintf("CLEAN: Normalized %d transaction features and handled missing values for 3 records.", len(raw))
	}
	return fmt.Sprintf("Preprocessed data for: %s", task)
}

// Model runs segmentation and fraud scoring through the collaborators.
// Any failure in the sequence is captured as a degraded outcome; the
// error never propagates out of the stage.
func (p *Pool) Model(ctx context.Context, task string) core.StageOutcome {
	if p.source == nil || p.model == nil {
		return core.StageOutcome{Narrative: fmt.Sprintf("Trained model for: %s", task)}
	}

	customers, err := p.source.Customers(ctx)
	if err != nil {
		return degraded("MODELING ERROR", err)
	}
	segmented, err := p.model.SegmentCustomers(customers)
	if err != nil {
		return degraded("MODELING ERROR", err)
	}
	clusters := modeling.DistinctSegments(segmented)

	txs, err := p.source.Transactions(ctx)
	if err != nil {
		return degraded("MODELING ERROR", err)
	}
	scored := p.model.ScoreTransactions(txs)
	avgFraud := modeling.MeanFraudProbability(scored)

	return core.StageOutcome{
		Narrative: fmt.Sprintf("MODEL: Generated %d customer segments. Average transaction fraud probability: %.2f%%", clusters, avgFraud*100),
	}
}

// Analyze derives SQL insights from the analytics source. Follows the
// same local-capture policy as Model.
func (p *Pool) Analyze(ctx context.Context, task string) core.StageOutcome {
	if p.source == nil {
		return core.StageOutcome{Narrative: fmt.Sprintf("Generated insights for: %s", task)}
	}

	totals, err := p.source.CategoryTotals(ctx)
	if err != nil {
		return degraded("ANALYSIS ERROR", err)
	}
	if len(totals) == 0 {
		return degraded("ANALYSIS ERROR", fmt.Errorf("no transaction data available"))
	}
	top := totals[0]
	for _, t := range totals[1:] {
		if t.Total > top.Total {
			top = t
		}
	}

	highRisk, err := p.source.HighRiskCount(ctx, p.highRisk)
	if err != nil {
		return degraded("ANALYSIS ERROR", err)
	}

	return core.StageOutcome{
		Narrative: fmt.Sprintf("SQL INSIGHT: Highest spending category is '%s' with $%.2f. Detected %d critical risk profiles in the VIP segment.",
			top.Category, top.Total, highRisk),
	}
}

// Review grants the final strategic approval.
func (p *Pool) Review(task string) string {
	return fmt.Sprintf("Reviewed strategy for: %s", task)
}

func degraded(marker string, err error) core.StageOutcome {
	return core.StageOutcome{
		Narrative: fmt.Sprintf("%s: %s", marker, err.Error()),
		Degraded:  true,
	}
}
