package modeling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-analytics/decision-intel/internal/core"
)

func TestExplainRiskHighRisk(t *testing.T) {
	exp := ExplainRisk(core.Customer{ID: "cust3", RiskScore: 0.85, Segment: "VIP", TotalAssets: 2500000})

	assert.GreaterOrEqual(t, exp.Confidence, 0.85)
	assert.LessOrEqual(t, exp.Confidence, 0.95)
	assert.Contains(t, exp.Justification, "High risk flag primarily driven by")
	require.Len(t, exp.FeatureWeights, 4)

	// Weights normalize to percentages of total absolute contribution.
	total := 0.0
	for _, w := range exp.FeatureWeights {
		total += math.Abs(w)
	}
	assert.InDelta(t, 100, total, 1e-6)
}

func TestExplainRiskLowRisk(t *testing.T) {
	exp := ExplainRisk(core.Customer{ID: "cust4", RiskScore: 0.10, TotalAssets: 300000})
	assert.Contains(t, exp.Justification, "Low risk profile maintained")
}

func TestExplainRiskBalanced(t *testing.T) {
	exp := ExplainRisk(core.Customer{ID: "cust2", RiskScore: 0.45, TotalAssets: 75000})
	assert.Contains(t, exp.Justification, "Balanced risk profile")
}

func TestExplainRiskDeterministic(t *testing.T) {
	c := core.Customer{ID: "cust6", RiskScore: 0.60, TotalAssets: 1200000}
	assert.Equal(t, ExplainRisk(c), ExplainRisk(c))
}
