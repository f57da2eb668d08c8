// Package store implements the outcome store (C1): a durable, append-mostly
// log of deployment outcomes backed by an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/varunvs7692/chaos-negotiator/internal/domain"
	"github.com/varunvs7692/chaos-negotiator/internal/repository"
)

// Store persists DeploymentOutcome rows in a single SQLite file. It
// implements repository.OutcomeRepository.
type Store struct {
	db             *sql.DB
	log            *slog.Logger
	retentionCap   int
}

var _ repository.OutcomeRepository = (*Store)(nil)

// Option configures optional Store behavior.
type Option func(*Store)

// WithRetentionCap sets a soft cap on row count; once exceeded, the oldest
// rows are trimmed inline at the end of each save (section 5,
// backpressure). A cap of 0 disables trimming.
func WithRetentionCap(rows int) Option {
	return func(s *Store) { s.retentionCap = rows }
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending migrations.
func Open(ctx context.Context, path string, log *slog.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open outcome store: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer-safe: sqlite serializes writers anyway
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping outcome store: %w", err)
	}

	s := &Store{db: db, log: log}
	for _, opt := range opts {
		opt(s)
	}

	if err := newMigrator(db, log).ensure(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save atomically inserts outcome and assigns its ID and Timestamp.
func (s *Store) Save(ctx context.Context, outcome *domain.DeploymentOutcome) error {
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now().UTC()
	}
	const insert = `
		INSERT INTO outcomes (
			deployment_id, heuristic_score, ml_score, final_score,
			actual_error_rate_percent, actual_latency_change_percent,
			rollback_triggered, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, insert,
		outcome.DeploymentID,
		outcome.HeuristicScore,
		outcome.MLScore,
		outcome.FinalScore,
		outcome.ActualErrorRatePercent,
		outcome.ActualLatencyChangePercent,
		boolToInt(outcome.RollbackTriggered),
		outcome.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: insert outcome: %v", repository.ErrUnavailable, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		outcome.ID = id
	}

	s.trimIfNeeded(ctx)
	return nil
}

// Recent returns up to limit most recent rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.DeploymentOutcome, error) {
	if limit <= 0 {
		return []domain.DeploymentOutcome{}, nil
	}
	const query = `
		SELECT id, deployment_id, heuristic_score, ml_score, final_score,
		       actual_error_rate_percent, actual_latency_change_percent,
		       rollback_triggered, timestamp
		FROM outcomes
		ORDER BY id DESC
		LIMIT ?`
	return s.query(ctx, query, limit)
}

// RecentByDeployment returns up to limit most recent rows for a single
// deployment id, newest first.
func (s *Store) RecentByDeployment(ctx context.Context, deploymentID string, limit int) ([]domain.DeploymentOutcome, error) {
	if limit <= 0 {
		return []domain.DeploymentOutcome{}, nil
	}
	const query = `
		SELECT id, deployment_id, heuristic_score, ml_score, final_score,
		       actual_error_rate_percent, actual_latency_change_percent,
		       rollback_triggered, timestamp
		FROM outcomes
		WHERE deployment_id = ?
		ORDER BY id DESC
		LIMIT ?`
	return s.query(ctx, query, deploymentID, limit)
}

// Count returns the total number of persisted outcomes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcomes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count outcomes: %v", repository.ErrUnavailable, err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]domain.DeploymentOutcome, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query outcomes: %v", repository.ErrUnavailable, err)
	}
	defer rows.Close()

	results := make([]domain.DeploymentOutcome, 0)
	for rows.Next() {
		var (
			o         domain.DeploymentOutcome
			rollback  int
			timestamp string
		)
		if err := rows.Scan(&o.ID, &o.DeploymentID, &o.HeuristicScore, &o.MLScore, &o.FinalScore,
			&o.ActualErrorRatePercent, &o.ActualLatencyChangePercent, &rollback, &timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan outcome row: %v", repository.ErrUnavailable, err)
		}
		o.RollbackTriggered = rollback != 0
		if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			o.Timestamp = t
		}
		results = append(results, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate outcome rows: %v", repository.ErrUnavailable, err)
	}
	return results, nil
}

// trimIfNeeded deletes the oldest rows once the table exceeds the
// configured retention cap. Best-effort: failures are logged, never
// returned, since this runs inline after a successful save and must not
// turn a successful write into a reported failure.
func (s *Store) trimIfNeeded(ctx context.Context) {
	if s.retentionCap <= 0 {
		return
	}
	const trim = `
		DELETE FROM outcomes WHERE id IN (
			SELECT id FROM outcomes ORDER BY id DESC LIMIT -1 OFFSET ?
		)`
	if _, err := s.db.ExecContext(ctx, trim, s.retentionCap); err != nil {
		s.log.Warn("outcome store retention trim failed", "error", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
