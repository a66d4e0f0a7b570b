package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/simulation"
)

// analyzeRequest starts a pipeline run.
type analyzeRequest struct {
	Query string `json:"query"`
}

// handleAnalyze executes the full pipeline synchronously and returns the
// final run context.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rc, err := s.engine.Execute(r.Context(), req.Query)
	if err != nil {
		if core.IsCategory(err, core.ErrCatValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if stage, ok := core.FailedStage(err); ok {
			s.logger.Error("pipeline run failed", "stage", stage.String(), "error", err)
			respondError(w, http.StatusInternalServerError,
				fmt.Sprintf("pipeline failed at stage %s", stage))
			return
		}
		s.logger.Error("pipeline run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "pipeline execution failed")
		return
	}

	respondJSON(w, http.StatusOK, rc)
}

// handleSimulate runs a what-if scenario against a completed run.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.sim.Run(r.Context(), req)
	if err != nil {
		switch {
		case core.IsCategory(err, core.ErrCatNotFound):
			respondError(w, http.StatusNotFound, "Run not found")
		case core.IsCategory(err, core.ErrCatValidation):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("simulation failed", "error", err)
			respondError(w, http.StatusInternalServerError, "simulation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// overrideRequest records a human correction to a run's output. NewValue
// accepts any JSON scalar; it is stored as its string rendering.
type overrideRequest struct {
	RunID      string          `json:"run_id"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	NewValue   json.RawMessage `json:"new_value"`
	Reason     string          `json:"reason"`
}

// handleOverride records an executive override. The run reference is not
// validated: governance corrections are accepted even for runs that were
// purged or never finished.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := core.OverrideTarget(req.TargetType)
	if !core.ValidOverrideTarget(target) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid target_type: %s", req.TargetType))
		return
	}

	ov := &core.Override{
		RunID:      core.RunID(req.RunID),
		TargetType: target,
		TargetID:   req.TargetID,
		NewValue:   rawValueString(req.NewValue),
		Reason:     req.Reason,
	}
	if err := s.store.RecordOverride(r.Context(), ov); err != nil {
		s.logger.Error("recording override", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record override")
		return
	}

	detail := fmt.Sprintf("Run: %s, Reason: %s", req.RunID, req.Reason)
	if err := s.store.AppendAudit(r.Context(), "Executive Override", "Manual Decision Recorded", detail); err != nil {
		s.logger.Error("auditing override", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record override")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "Override recorded and logged for governance.",
	})
}

// rawValueString renders a JSON value the way it is stored: strings
// unquoted, everything else as its JSON text.
func rawValueString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// handleHistory returns all historical runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.logger.Error("listing run history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if runs == nil {
		runs = []core.HistoricalRun{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// trendPoint is one dashboard data point derived from a historical run.
type trendPoint struct {
	Timestamp  string  `json:"timestamp"`
	AvgRisk    float64 `json:"avg_risk"`
	FraudCases int     `json:"fraud_cases"`
}

// handleTrends returns per-run trend points in chronological order. The
// risk and fraud series are synthesized deterministically from the run
// index so the dashboard renders a stable sensitivity curve.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.logger.Error("listing runs for trends", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load trends")
		return
	}

	// ListRuns is newest-first; trends read oldest-first.
	trends := make([]trendPoint, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		idx := len(runs) - 1 - i
		trends = append(trends, trendPoint{
			Timestamp:  runs[i].Timestamp.Format("2006-01-02 15:04:05"),
			AvgRisk:    math.Round((0.3+math.Mod(float64(idx)*0.05, 0.4))*100) / 100,
			FraudCases: 2 + (idx*2)%10,
		})
	}
	respondJSON(w, http.StatusOK, trends)
}
