// Package store implements the run store and analytics source on SQLite.
// All domain writes are append-only; the store never mutates or deletes
// an existing row.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nexus-analytics/decision-intel/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.RunStore and core.AnalyticsSource with
// SQLite storage. Reads run concurrently; writes are serialized by an
// in-process mutex on top of SQLite's own locking.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// Option configures the store.
type Option func(*openOptions)

type openOptions struct {
	seed bool
}

// WithoutSeed skips seeding the reference dataset. Used by tests that
// need an empty analytics source.
func WithoutSeed() Option {
	return func(o *openOptions) {
		o.seed = false
	}
}

// Open creates or opens the SQLite store at dbPath.
func Open(dbPath string, opts ...Option) (*SQLiteStore, error) {
	options := openOptions{seed: true}
	for _, opt := range opts {
		opt(&options)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{dbPath: dbPath, db: db}

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if options.seed {
		if err := s.seedReferenceData(context.Background()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seeding reference data: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}

	return nil
}

// AppendAudit records a component action in the audit log.
func (s *SQLiteStore) AppendAudit(ctx context.Context, agent, action, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_logs (timestamp, agent, action, details) VALUES (?, ?, ?, ?)",
		time.Now().UTC(), agent, action, detail,
	)
	if err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

// SaveRun persists a completed run. The insert is rejected if the run ID
// already exists; history rows are never updated in place.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *core.HistoricalRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	state := run.FullState
	if len(state) == 0 {
		state = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO historical_runs (run_id, timestamp, query, insights, decision, report_path, full_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Timestamp, run.Query, run.Insights, run.Decision, run.ReportPath, string(state))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return core.ErrState(core.CodeDuplicateRun, fmt.Sprintf("run %s already persisted", run.RunID))
		}
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns all historical runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]core.HistoricalRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, timestamp, query, insights, decision, report_path, full_state
		FROM historical_runs
		ORDER BY timestamp DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []core.HistoricalRun
	for rows.Next() {
		var r core.HistoricalRun
		var state string
		if err := rows.Scan(&r.RunID, &r.Timestamp, &r.Query, &r.Insights, &r.Decision, &r.ReportPath, &state); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.FullState = json.RawMessage(state)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// RunExists reports whether a run ID is present in history.
func (s *SQLiteStore) RunExists(ctx context.Context, id core.RunID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM historical_runs WHERE run_id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking run existence: %w", err)
	}
	return true, nil
}

// RecordOverride appends a human correction. The referenced run is not
// validated; governance wants the override on record either way.
func (s *SQLiteStore) RecordOverride(ctx context.Context, ov *core.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ov.Timestamp.IsZero() {
		ov.Timestamp = time.Now().UTC()
	}
	prev := ov.PreviousValue
	if prev == "" {
		prev = "N/A"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_overrides (run_id, target_type, target_id, previous_value, new_value, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ov.RunID, ov.TargetType, ov.TargetID, prev, ov.NewValue, ov.Reason, ov.Timestamp)
	if err != nil {
		return fmt.Errorf("recording override: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		ov.ID = id
	}
	return nil
}

// ListOverrides returns overrides for a run, oldest first.
func (s *SQLiteStore) ListOverrides(ctx context.Context, runID core.RunID) ([]core.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT override_id, run_id, target_type, target_id, previous_value, new_value, reason, timestamp
		FROM manual_overrides WHERE run_id = ? ORDER BY override_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing overrides: %w", err)
	}
	defer rows.Close()

	var overrides []core.Override
	for rows.Next() {
		var ov core.Override
		if err := rows.Scan(&ov.ID, &ov.RunID, &ov.TargetType, &ov.TargetID, &ov.PreviousValue, &ov.NewValue, &ov.Reason, &ov.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		overrides = append(overrides, ov)
	}
	return overrides, rows.Err()
}

// ListAuditEvents returns the audit trail in append order.
func (s *SQLiteStore) ListAuditEvents(ctx context.Context) ([]core.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, agent, action, details FROM audit_logs ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	var eventsList []core.AuditEvent
	for rows.Next() {
		var ev core.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Agent, &ev.Action, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		eventsList = append(eventsList, ev)
	}
	return eventsList, rows.Err()
}

// SaveSimulation appends a what-if result row. Optional: results are
// ephemeral unless the caller enables persistence.
func (s *SQLiteStore) SaveSimulation(ctx context.Context, runID core.RunID, result core.SimulationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simulation_results (run_id, parameter, value_before, value_after, delta, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, result.Parameter, result.ValueBefore, result.ValueAfter, result.Delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving simulation result: %w", err)
	}
	return nil
}

// Verify interface compliance.
var (
	_ core.RunStore        = (*SQLiteStore)(nil)
	_ core.AnalyticsSource = (*SQLiteStore)(nil)
)
