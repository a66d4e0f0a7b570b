package store

import (
	"context"
	"fmt"

	"github.com/nexus-analytics/decision-intel/internal/core"
)

// Transactions returns all reference transactions in source order.
func (s *SQLiteStore) Transactions(ctx context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, customer_id, amount, category, timestamp, location, merchant
		FROM transactions ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.Amount, &tx.Category, &tx.Timestamp, &tx.Location, &tx.Merchant); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Customers returns all reference customers in source order.
func (s *SQLiteStore) Customers(ctx context.Context) ([]core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, name, risk_score, segment, total_assets
		FROM customers ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	var customers []core.Customer
	for rows.Next() {
		var c core.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.RiskScore, &c.Segment, &c.TotalAssets); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CategoryTotals returns total spend grouped by transaction category.
func (s *SQLiteStore) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) AS amount
		FROM transactions GROUP BY category ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("scanning category total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// RiskScores returns every customer risk score in source order.
func (s *SQLiteStore) RiskScores(ctx context.Context) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT risk_score FROM customers ORDER BY rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("querying risk scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scanning risk score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// AssetsBySegment returns total assets grouped by customer segment.
func (s *SQLiteStore) AssetsBySegment(ctx context.Context) ([]core.SegmentAssets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment, SUM(total_assets) AS total_assets
		FROM customers GROUP BY segment ORDER BY segment ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying assets by segment: %w", err)
	}
	defer rows.Close()

	var assets []core.SegmentAssets
	for rows.Next() {
		var a core.SegmentAssets
		if err := rows.Scan(&a.Segment, &a.TotalAssets); err != nil {
			return nil, fmt.Errorf("scanning segment assets: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// HighRiskCount counts customers with risk score above the threshold.
func (s *SQLiteStore) HighRiskCount(ctx context.Context, threshold float64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE risk_score > ?", threshold,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting high risk customers: %w", err)
	}
	return count, nil
}
