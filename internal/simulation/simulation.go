// Package simulation answers what-if questions against already-computed
// result sets. The transforms are pure: no internal state, no I/O, and
// identical inputs always produce identical output.
package simulation

import (
	"math"

	"github.com/nexus-analytics/decision-intel/internal/core"
)

// Baselines the what-if scenarios compare against.
const (
	BaselineFraudThreshold = 0.5
	BaselineRiskCap        = 0.7
)

// FraudThreshold simulates the impact of changing the fraud detection
// sensitivity. An empty row set yields zero counts, never an error.
func FraudThreshold(rows []core.ScoredTransaction, threshold float64) core.SimulationResult {
	before := 0
	after := 0
	for _, row := range rows {
		if row.FraudProbability > BaselineFraudThreshold {
			before++
		}
		if row.FraudProbability > threshold {
			after++
		}
	}

	impact := "Raising threshold reduces false positives but increases risk of undetected fraud."
	if threshold < BaselineFraudThreshold {
		impact = "Lowering threshold increases security but raises false positives."
	}

	return core.SimulationResult{
		Parameter:      "Fraud Threshold",
		ValueBefore:    BaselineFraudThreshold,
		ValueAfter:     threshold,
		CountBefore:    before,
		CountAfter:     after,
		Delta:          after - before,
		BusinessImpact: impact,
	}
}

// RiskRetention simulates adjusting the risk-score cap granted to VIP
// customers. The affected count is how many VIPs change flagged status
// between the baseline cap and the proposed one.
func RiskRetention(rows []core.Customer, riskCap float64) core.SimulationResult {
	flaggedBefore := 0
	flaggedAfter := 0
	for _, c := range rows {
		if c.Segment != core.SegmentVIP {
			continue
		}
		if c.RiskScore > BaselineRiskCap {
			flaggedBefore++
		}
		if c.RiskScore > riskCap {
			flaggedAfter++
		}
	}

	impact := "Reducing allowance tightens security but may churn high-value clients."
	if riskCap > BaselineRiskCap {
		impact = "Increasing allowance improves VIP retention but relaxes governance."
	}

	return core.SimulationResult{
		Parameter:      "VIP Risk Allowance",
		ValueBefore:    BaselineRiskCap,
		ValueAfter:     riskCap,
		Affected:       int(math.Abs(float64(flaggedAfter - flaggedBefore))),
		BusinessImpact: impact,
	}
}
