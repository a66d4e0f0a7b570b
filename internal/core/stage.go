package core

import "fmt"

// Stage represents one step of the fixed decision pipeline.
type Stage string

const (
	// StagePlan decomposes the user query into agent tasks.
	StagePlan Stage = "plan"

	// StageIngest pulls raw reference data from the analytics source.
	StageIngest Stage = "ingest"

	// StageClean normalizes the ingested batch.
	StageClean Stage = "clean"

	// StageModel runs customer segmentation and fraud scoring.
	StageModel Stage = "model"

	// StageAnalyze derives insights, chart artifacts and explanations.
	StageAnalyze Stage = "analyze"

	// StageReview grants the final decision and writes the executive report.
	StageReview Stage = "review"

	// StagePersist writes the completed run to the run store.
	// A failure here is fatal to the run.
	StagePersist Stage = "persist"

	// StageDone is the terminal state after persistence.
	// It is NOT an executable stage — it signals "run fully done".
	StageDone Stage = "done"
)

// AllStages returns the executable stages in pipeline order.
// The order is static and known at design time; there is no branching.
func AllStages() []Stage {
	return []Stage{StagePlan, StageIngest, StageClean, StageModel, StageAnalyze, StageReview, StagePersist}
}

// StageOrder returns the numeric order of a stage (0-indexed).
func StageOrder(s Stage) int {
	switch s {
	case StagePlan:
		return 0
	case StageIngest:
		return 1
	case StageClean:
		return 2
	case StageModel:
		return 3
	case StageAnalyze:
		return 4
	case StageReview:
		return 5
	case StagePersist:
		return 6
	case StageDone:
		return 7
	default:
		return -1
	}
}

// NextStage returns the stage following the given stage.
// Returns empty string past the end of the pipeline.
func NextStage(s Stage) Stage {
	order := AllStages()
	for i, st := range order {
		if st == s {
			if i == len(order)-1 {
				return StageDone
			}
			return order[i+1]
		}
	}
	return ""
}

// ValidStage checks if a stage string is valid.
func ValidStage(s Stage) bool {
	return StageOrder(s) >= 0
}

// ParseStage converts a string to a Stage with validation.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !ValidStage(st) {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return st, nil
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Agent returns the acting agent name audited for this stage.
func (s Stage) Agent() string {
	switch s {
	case StagePlan:
		return "Planner"
	case StageIngest:
		return "Data Engineer"
	case StageClean:
		return "Preprocessing"
	case StageModel:
		return "Data Scientist"
	case StageAnalyze:
		return "Analyst"
	case StageReview:
		return "CDO"
	case StagePersist:
		return "Run Store"
	default:
		return "Unknown"
	}
}

// Description returns a human-readable description of the stage.
func (s Stage) Description() string {
	switch s {
	case StagePlan:
		return "Decompose the query into multi-agent tasks"
	case StageIngest:
		return "Extract raw data from the analytics source"
	case StageClean:
		return "Normalize the ingested batch"
	case StageModel:
		return "Segment customers and score transaction fraud"
	case StageAnalyze:
		return "Derive insights, charts and explanations"
	case StageReview:
		return "Final governance review and decision"
	case StagePersist:
		return "Persist the run to history"
	case StageDone:
		return "Run completed"
	default:
		return "Unknown stage"
	}
}
