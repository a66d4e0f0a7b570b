package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedData struct {
	Transactions []core.Transaction `yaml:"transactions"`
	Customers    []core.Customer    `yaml:"customers"`
}

// seedReferenceData loads the embedded demonstration dataset into the
// reference tables. Seeding only happens when the tables are empty so an
// existing database is never touched.
func (s *SQLiteStore) seedReferenceData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return fmt.Errorf("checking transactions: %w", err)
	}
	if count > 0 {
		return nil
	}

	var seed seedData
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return fmt.Errorf("decoding seed dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range seed.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (transaction_id, customer_id, amount, category, timestamp, location, merchant)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.CustomerID, t.Amount, t.Category, t.Timestamp, t.Location, t.Merchant)
		if err != nil {
			return fmt.Errorf("seeding transaction %s: %w", t.ID, err)
		}
	}

	for _, c := range seed.Customers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (customer_id, name, risk_score, segment, total_assets)
			VALUES (?, ?, ?, ?, ?)
		`, c.ID, c.Name, c.RiskScore, c.Segment, c.TotalAssets)
		if err != nil {
			return fmt.Errorf("seeding customer %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}
