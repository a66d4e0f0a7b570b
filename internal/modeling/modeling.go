// Package modeling provides the opaque numeric routines the pipeline
// consumes: customer segmentation, transaction fraud scoring and
// risk-score explanations. All routines are deterministic for a given
// input so runs and simulations are reproducible.
package modeling

import (
	"fmt"
	"math"

	"github.com/nexus-analytics/decision-intel/internal/core"
)

// Service holds modeling parameters.
type Service struct {
	segments int
}

// New creates a modeling service targeting the given cluster count.
func New(segments int) *Service {
	if segments < 1 {
		segments = 4
	}
	return &Service{segments: segments}
}

// SegmentedCustomer is a customer annotated with a cluster assignment.
type SegmentedCustomer struct {
	core.Customer
	SegmentID int `json:"segment_id"`
}

// SegmentCustomers clusters customers over (risk score, total assets)
// using k-means with deterministic initialization. The cluster count is
// reduced when fewer customers than clusters exist.
func (s *Service) SegmentCustomers(customers []core.Customer) ([]SegmentedCustomer, error) {
	if len(customers) == 0 {
		return nil, fmt.Errorf("no customers to segment")
	}

	k := s.segments
	if len(customers) < k {
		k = len(customers)
	}

	// Normalize features so assets do not dominate risk scores.
	maxAssets := 0.0
	for _, c := range customers {
		if c.TotalAssets > maxAssets {
			maxAssets = c.TotalAssets
		}
	}
	if maxAssets == 0 {
		maxAssets = 1
	}

	points := make([][2]float64, len(customers))
	for i, c := range customers {
		points[i] = [2]float64{c.RiskScore, c.TotalAssets / maxAssets}
	}

	// Deterministic init: first k points are the initial centroids.
	centroids := make([][2]float64, k)
	copy(centroids, points[:k])

	assignments := make([]int, len(points))
	for iter := 0; iter < 10; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for j, c := range centroids {
				d := (p[0]-c[0])*(p[0]-c[0]) + (p[1]-c[1])*(p[1]-c[1])
				if d < bestDist {
					bestDist = d
					best = j
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		var sums [][3]float64 = make([][3]float64, k)
		for i, p := range points {
			a := assignments[i]
			sums[a][0] += p[0]
			sums[a][1] += p[1]
			sums[a][2]++
		}
		for j := range centroids {
			if sums[j][2] > 0 {
				centroids[j] = [2]float64{sums[j][0] / sums[j][2], sums[j][1] / sums[j][2]}
			}
		}
	}

	out := make([]SegmentedCustomer, len(customers))
	for i, c := range customers {
		out[i] = SegmentedCustomer{Customer: c, SegmentID: assignments[i]}
	}
	return out, nil
}

// DistinctSegments counts the clusters actually assigned.
func DistinctSegments(segmented []SegmentedCustomer) int {
	seen := make(map[int]bool)
	for _, c := range segmented {
		seen[c.SegmentID] = true
	}
	return len(seen)
}

// ScoreTransactions computes a fraud probability per transaction from
// amount and category heuristics. High amount plus a Luxury or
// Electronics category raises the probability; scores cap at 0.95.
func (s *Service) ScoreTransactions(txs []core.Transaction) []core.ScoredTransaction {
	scored := make([]core.ScoredTransaction, len(txs))
	for i, tx := range txs {
		p := 0.1
		if tx.Amount > 10000 {
			p += 0.4
		}
		if tx.Category == "Luxury" || tx.Category == "Electronics" {
			p += 0.2
		}
		if p > 0.95 {
			p = 0.95
		}
		scored[i] = core.ScoredTransaction{Transaction: tx, FraudProbability: p}
	}
	return scored
}

// MeanFraudProbability averages scores over a batch.
func MeanFraudProbability(scored []core.ScoredTransaction) float64 {
	if len(scored) == 0 {
		return 0
	}
	sum := 0.0
	for _, tx := range scored {
		sum += tx.FraudProbability
	}
	return sum / float64(len(scored))
}
