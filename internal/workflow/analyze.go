package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/modeling"
	"github.com/nexus-analytics/decision-intel/internal/report"
)

// analyzeStage derives insights and produces the visual artifact suite.
// The analyst's own query follows the local-capture policy (a failure
// becomes an ANALYSIS ERROR narrative); failures fetching the derived
// views or writing artifacts are fatal like any other stage error.
func (e *Engine) analyzeStage(ctx context.Context, rc *core.RunContext) error {
	outcome := e.pool.Analyze(ctx, "Analyzing risk and volume.")
	if outcome.Degraded {
		e.log.WithRun(rc.RunID.String()).Warn("analysis degraded", "narrative", outcome.Narrative)
	}
	rc.AppendInsight(outcome.Narrative)
	rc.AppendStep(outcome.Narrative)
	rc.AppendDebate("Analyst: Evaluated trade-offs. Noted high volume in Luxury category might be Seasonal, not just Fraud. Recommending cautious observation.")

	// The three derived views are independent reads; fetch concurrently.
	var (
		views     report.ChartViews
		customers []core.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views.CategoryTotals, err = e.source.CategoryTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		views.RiskScores, err = e.source.RiskScores(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		views.SegmentAssets, err = e.source.AssetsBySegment(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = e.source.Customers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range topByRisk(customers, e.topExplanations) {
		rc.Explanations[riskKey(c.RiskScore)] = modeling.ExplainRisk(c)
	}

	charts, err := e.reports.WriteCharts(rc.RunID, views)
	if err != nil {
		return err
	}
	// charts is replaced exactly once, here.
	rc.Data["charts"] = charts
	return nil
}
