package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	run_id        TEXT PRIMARY KEY,
	reservoir_id  TEXT NOT NULL,
	months        INTEGER NOT NULL,
	final_volume  REAL NOT NULL,
	alert_count   INTEGER NOT NULL,
	report_json   TEXT NOT NULL,
	simulated_at  TEXT NOT NULL,
	created_seq   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_simulation_runs_reservoir
	ON simulation_runs (reservoir_id, created_seq);
`

// Store persists every simulation run in SQLite and serves the latest run
// per reservoir.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport appends a run for the report's reservoir.
func (s *Store) SaveReport(ctx context.Context, report domain.SimulationReport) error {
	return s.insert(ctx, s.db, report)
}

// LoadBatch stores the batch in one transaction. It implements pipeline.BatchLoader.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.SimulationReport) error {
	if len(reports) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for i := range reports {
		if err := s.insert(ctx, tx, reports[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %d reports: %w", len(reports), err)
	}
	return nil
}

// LatestReport returns the most recently stored run for a reservoir.
func (s *Store) LatestReport(ctx context.Context, reservoirID string) (domain.SimulationReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM simulation_runs
		 WHERE reservoir_id = ?
		 ORDER BY created_seq DESC LIMIT 1`, reservoirID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SimulationReport{}, fmt.Errorf("reservoir %q: %w", reservoirID, domain.ErrReportNotFound)
	}
	if err != nil {
		return domain.SimulationReport{}, fmt.Errorf("query latest report: %w", err)
	}

	var report domain.SimulationReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return domain.SimulationReport{}, fmt.Errorf("decode report %q: %w", reservoirID, err)
	}
	return report, nil
}

// RunCount returns how many runs are stored for a reservoir.
func (s *Store) RunCount(ctx context.Context, reservoirID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM simulation_runs WHERE reservoir_id = ?", reservoirID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, report domain.SimulationReport) error {
	if report.ReservoirID == "" {
		return errors.New("save report: empty reservoir id")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %q: %w", report.ReservoirID, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO simulation_runs
		 (run_id, reservoir_id, months, final_volume, alert_count, report_json, simulated_at, created_seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?,
		 (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM simulation_runs))`,
		uuid.NewString(),
		report.ReservoirID,
		report.Months,
		report.Summary.FinalVolume,
		report.Summary.AlertCount,
		string(data),
		report.SimulatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report %q: %w", report.ReservoirID, err)
	}
	return nil
}
