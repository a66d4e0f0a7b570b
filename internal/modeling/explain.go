package modeling

import (
	"fmt"
	"math"

	"github.com/nexus-analytics/decision-intel/internal/core"
)

// ExplainRisk builds a feature-weight explanation for a customer's risk
// score. Weights are heuristic contributions normalized to percentages;
// the justification names the dominant feature in plain language.
func ExplainRisk(c core.Customer) core.Explanation {
	features := map[string]float64{
		"Total Assets":          assetWeight(c.TotalAssets),
		"Transaction Frequency": frequencyWeight(c.RiskScore),
		"Cross-Border Activity": crossBorderWeight(c.RiskScore),
		"Historical Compliance": complianceWeight(c.RiskScore),
	}

	total := 0.0
	for _, v := range features {
		total += math.Abs(v)
	}
	importance := make(map[string]float64, len(features))
	for k, v := range features {
		if total > 0 {
			importance[k] = v / total * 100
		} else {
			importance[k] = 0
		}
	}

	return core.Explanation{
		Confidence:     confidence(c.RiskScore),
		FeatureWeights: importance,
		Justification:  justification(importance, c.RiskScore),
	}
}

func assetWeight(assets float64) float64 {
	if assets > 100000 {
		return -0.2
	}
	return 0.1
}

func frequencyWeight(risk float64) float64 {
	if risk > 0.6 {
		return 0.15
	}
	return -0.05
}

func crossBorderWeight(risk float64) float64 {
	if risk > 0.7 {
		return 0.3
	}
	return 0.0
}

func complianceWeight(risk float64) float64 {
	if risk < 0.3 {
		return -0.1
	}
	return 0.05
}

func confidence(risk float64) float64 {
	// Bounded in [0.85, 0.95]; higher risk scores carry slightly more
	// model certainty.
	return 0.85 + 0.1*risk*risk/(1+risk)
}

func justification(importance map[string]float64, score float64) string {
	top := ""
	topAbs := -1.0
	// Fixed feature order keeps the chosen driver deterministic on ties.
	for _, k := range []string{"Total Assets", "Transaction Frequency", "Cross-Border Activity", "Historical Compliance"} {
		if v, ok := importance[k]; ok && math.Abs(v) > topAbs {
			topAbs = math.Abs(v)
			top = k
		}
	}

	direction := "decreasing"
	if importance[top] > 0 {
		direction = "increasing"
	}

	switch {
	case score > 0.7:
		return fmt.Sprintf("High risk flag primarily driven by %s, %s the probability of anomaly detection.", top, direction)
	case score < 0.3:
		return fmt.Sprintf("Low risk profile maintained due to strong %s metrics.", top)
	default:
		return fmt.Sprintf("Balanced risk profile with %s as the primary influence factor.", top)
	}
}
