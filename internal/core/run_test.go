package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	assert.True(t, strings.HasPrefix(id.String(), "RUN_"))
	assert.Len(t, id.String(), 12)
	assert.Equal(t, strings.ToUpper(id.String()), id.String())

	other := NewRunID()
	assert.NotEqual(t, id, other)
}

func TestRunContextAppend(t *testing.T) {
	rc := NewRunContext("assess risk")

	rc.AppendStep("PLAN: done")
	rc.AppendStep("TRANSFORM: done")
	assert.Equal(t, []string{"PLAN: done", "TRANSFORM: done"}, rc.Steps)

	rc.AppendInsight("MODEL: segments ready")
	rc.AppendInsight("SQL INSIGHT: Luxury leads")
	assert.Equal(t, "MODEL: segments ready | SQL INSIGHT: Luxury leads", rc.Insights)

	rc.AppendDebate("Analyst: cautious observation")
	assert.Len(t, rc.Debate, 1)
}

func TestRunContextSnapshot(t *testing.T) {
	rc := NewRunContext("assess risk")
	rc.Decision = "Reviewed strategy for: Granting final strategic approval."
	rc.Explanations["0.85"] = Explanation{Confidence: 0.89, Justification: "high"}

	raw, err := rc.Snapshot()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rc.RunID.String(), decoded["run_id"])
	assert.Equal(t, "assess risk", decoded["query"])
	assert.Contains(t, decoded, "explanations")
}

func TestValidOverrideTarget(t *testing.T) {
	assert.True(t, ValidOverrideTarget(OverrideTargetScore))
	assert.True(t, ValidOverrideTarget(OverrideTargetSegment))
	assert.False(t, ValidOverrideTarget(OverrideTarget("decision")))
}
