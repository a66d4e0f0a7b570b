// Package core defines the domain model of the decision intelligence
// pipeline: the run context threaded through stages, the persisted run
// history, overrides and audit trail, and the ports the engine consumes.
package core

import "context"

// RunStore is durable keyed storage for completed runs, audit events and
// overrides. All writes are append-only; the store never mutates or
// deletes an existing row. Concurrent appends into one table are
// serialized by the implementation.
type RunStore interface {
	// AppendAudit records a component action. Never mutated or deleted.
	AppendAudit(ctx context.Context, agent, action, detail string) error

	// SaveRun persists a completed run exactly once. Writing an existing
	// run ID is an error; there is no update path.
	SaveRun(ctx context.Context, run *HistoricalRun) error

	// ListRuns returns all historical runs sorted by timestamp descending.
	ListRuns(ctx context.Context) ([]HistoricalRun, error)

	// RunExists reports whether a run ID is present in history.
	RunExists(ctx context.Context, id RunID) (bool, error)

	// RecordOverride appends a human correction. The run reference is not
	// enforced transactionally.
	RecordOverride(ctx context.Context, ov *Override) error
}

// AnalyticsSource is a queryable tabular data source read by the pipeline
// and the simulation engine. It must support concurrent readers.
type AnalyticsSource interface {
	Transactions(ctx context.Context) ([]Transaction, error)
	Customers(ctx context.Context) ([]Customer, error)

	// CategoryTotals returns total spend grouped by transaction category.
	CategoryTotals(ctx context.Context) ([]CategoryTotal, error)

	// RiskScores returns every customer risk score in source order.
	RiskScores(ctx context.Context) ([]float64, error)

	// AssetsBySegment returns total assets grouped by customer segment.
	AssetsBySegment(ctx context.Context) ([]SegmentAssets, error)

	// HighRiskCount counts customers with risk score above the threshold.
	HighRiskCount(ctx context.Context, threshold float64) (int, error)
}
