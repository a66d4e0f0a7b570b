package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunID uniquely identifies one end-to-end pipeline execution.
type RunID string

// NewRunID generates an opaque run identifier.
func NewRunID() RunID {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return RunID("RUN_" + strings.ToUpper(hex[:8]))
}

// String returns the string representation of the run ID.
func (id RunID) String() string {
	return string(id)
}

// Explanation records why an entity received its risk score.
type Explanation struct {
	Confidence     float64            `json:"confidence_score"`
	FeatureWeights map[string]float64 `json:"feature_importance"`
	Justification  string             `json:"plain_english"`
}

// InsightSeparator joins accumulated narrative fragments.
const InsightSeparator = " | "

// RunContext is the mutable record threaded through all stages of one run.
// It is owned exclusively by the workflow engine while the run executes;
// every mutation is stage-local and append-only or single-assignment.
type RunContext struct {
	RunID        RunID                  `json:"run_id"`
	Query        string                 `json:"query"`
	Steps        []string               `json:"steps"`
	Data         map[string]any         `json:"data"`
	Insights     string                 `json:"insights"`
	Debate       []string               `json:"debate"`
	Explanations map[string]Explanation `json:"explanations"`
	Decision     string                 `json:"decision"`
	ReportPath   string                 `json:"report_path"`
}

// NewRunContext creates the initial context for a query.
func NewRunContext(query string) *RunContext {
	return &RunContext{
		RunID:        NewRunID(),
		Query:        query,
		Steps:        []string{},
		Data:         map[string]any{},
		Debate:       []string{},
		Explanations: map[string]Explanation{},
	}
}

// AppendStep records a stage-output string.
func (rc *RunContext) AppendStep(step string) {
	rc.Steps = append(rc.Steps, step)
}

// AppendInsight accumulates narrative text, separator-joined.
func (rc *RunContext) AppendInsight(text string) {
	if rc.Insights == "" {
		rc.Insights = text
		return
	}
	rc.Insights += InsightSeparator + text
}

// AppendDebate records one agent position statement.
func (rc *RunContext) AppendDebate(position string) {
	rc.Debate = append(rc.Debate, position)
}

// Snapshot serializes the full context for persistence.
func (rc *RunContext) Snapshot() (json.RawMessage, error) {
	return json.Marshal(rc)
}

// StageOutcome is the typed result of a recoverable stage body.
// A degraded outcome carries a diagnostic narrative instead of aborting
// the pipeline; callers can distinguish it without string matching.
type StageOutcome struct {
	Narrative string
	Degraded  bool
}

// HistoricalRun is an immutable persisted run record.
type HistoricalRun struct {
	RunID      RunID           `json:"run_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Query      string          `json:"query"`
	Insights   string          `json:"insights"`
	Decision   string          `json:"decision"`
	ReportPath string          `json:"report_path"`
	FullState  json.RawMessage `json:"full_state"`
}

// OverrideTarget identifies what kind of output an override corrects.
type OverrideTarget string

const (
	OverrideTargetScore   OverrideTarget = "score"
	OverrideTargetSegment OverrideTarget = "segment"
)

// ValidOverrideTarget checks if a target type is known.
func ValidOverrideTarget(t OverrideTarget) bool {
	return t == OverrideTargetScore || t == OverrideTargetSegment
}

// Override records a human correction to an agent/model output.
// It references a run but never mutates the referenced HistoricalRun.
type Override struct {
	ID            int64          `json:"id,omitempty"`
	RunID         RunID          `json:"run_id"`
	TargetType    OverrideTarget `json:"target_type"`
	TargetID      string         `json:"target_id"`
	PreviousValue string         `json:"previous_value"`
	NewValue      string         `json:"new_value"`
	Reason        string         `json:"reason"`
	Timestamp     time.Time      `json:"timestamp"`
}

// AuditEvent is an append-only record of a component action.
type AuditEvent struct {
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`
	Action    string    `json:"action"`
	Detail    string    `json:"details"`
}

// SimulationResult is the structured comparison returned by a what-if
// scenario. It is returned to the caller and logged as an audit event;
// it is not stored as a first-class row unless persistence is enabled.
type SimulationResult struct {
	Parameter      string  `json:"parameter"`
	ValueBefore    float64 `json:"value_before"`
	ValueAfter     float64 `json:"value_after"`
	CountBefore    int     `json:"count_before,omitempty"`
	CountAfter     int     `json:"count_after,omitempty"`
	Delta          int     `json:"delta"`
	Affected       int     `json:"vips_affected,omitempty"`
	BusinessImpact string  `json:"business_impact"`
}
