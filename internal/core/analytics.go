package core

import "time"

// Transaction is one row of the reference transaction dataset.
type Transaction struct {
	ID         string    `json:"transaction_id" yaml:"id"`
	CustomerID string    `json:"customer_id" yaml:"customer_id"`
	Amount     float64   `json:"amount" yaml:"amount"`
	Category   string    `json:"category" yaml:"category"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Location   string    `json:"location" yaml:"location"`
	Merchant   string    `json:"merchant" yaml:"merchant"`
}

// ScoredTransaction is a transaction annotated with a fraud probability.
type ScoredTransaction struct {
	Transaction
	FraudProbability float64 `json:"fraud_probability"`
}

// Customer is one row of the reference customer dataset.
type Customer struct {
	ID          string  `json:"customer_id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	RiskScore   float64 `json:"risk_score" yaml:"risk_score"`
	Segment     string  `json:"segment" yaml:"segment"`
	TotalAssets float64 `json:"total_assets" yaml:"total_assets"`
}

// SegmentVIP is the customer segment granted elevated risk allowance.
const SegmentVIP = "VIP"

// CategoryTotal is an aggregated spend view by transaction category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"amount"`
}

// SegmentAssets is an aggregated asset view by customer segment.
type SegmentAssets struct {
	Segment     string  `json:"segment"`
	TotalAssets float64 `json:"total_assets"`
}
