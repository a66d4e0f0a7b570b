package events

import "github.com/nexus-analytics/decision-intel/internal/core"

// Event type constants for pipeline run events.
const (
	TypeRunStarted   = "run_start"
	TypeRunStage     = "run_stage"
	TypeRunCompleted = "run_complete"
	TypeRunFailed    = "run_failed"
	TypeSimulation   = "simulation"
)

// RunStartedEvent is broadcast when a pipeline run begins.
type RunStartedEvent struct {
	BaseEvent
	Query string `json:"query"`
}

// NewRunStartedEvent creates a new run started event.
func NewRunStartedEvent(runID, query string) RunStartedEvent {
	return RunStartedEvent{
		BaseEvent: NewBaseEvent(TypeRunStarted, runID),
		Query:     query,
	}
}

// RunStageEvent is broadcast as each stage begins. Per-stage streaming is
// an enhancement over the start/complete contract; observers may ignore it.
type RunStageEvent struct {
	BaseEvent
	Stage string `json:"stage"`
	Agent string `json:"agent"`
}

// NewRunStageEvent creates a new stage progress event.
func NewRunStageEvent(runID string, stage core.Stage) RunStageEvent {
	return RunStageEvent{
		BaseEvent: NewBaseEvent(TypeRunStage, runID),
		Stage:     stage.String(),
		Agent:     stage.Agent(),
	}
}

// RunCompletedEvent is broadcast with the full result when a run finishes.
type RunCompletedEvent struct {
	BaseEvent
	Result *core.RunContext `json:"result"`
}

// NewRunCompletedEvent creates a new run completed event.
func NewRunCompletedEvent(runID string, result *core.RunContext) RunCompletedEvent {
	return RunCompletedEvent{
		BaseEvent: NewBaseEvent(TypeRunCompleted, runID),
		Result:    result,
	}
}

// RunFailedEvent is broadcast when a run aborts on a fatal stage error.
type RunFailedEvent struct {
	BaseEvent
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewRunFailedEvent creates a new run failed event.
func NewRunFailedEvent(runID string, stage core.Stage, err error) RunFailedEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return RunFailedEvent{
		BaseEvent: NewBaseEvent(TypeRunFailed, runID),
		Stage:     stage.String(),
		Error:     errStr,
	}
}

// SimulationEvent is broadcast after a what-if scenario executes.
type SimulationEvent struct {
	BaseEvent
	Scenario string                `json:"scenario"`
	Result   core.SimulationResult `json:"result"`
}

// NewSimulationEvent creates a new simulation event.
func NewSimulationEvent(runID, scenario string, result core.SimulationResult) SimulationEvent {
	return SimulationEvent{
		BaseEvent: NewBaseEvent(TypeSimulation, runID),
		Scenario:  scenario,
		Result:    result,
	}
}
