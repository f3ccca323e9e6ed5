// Package ledger archives completed runs in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lox/fictitiousplay/solver"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one archived training run.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Seed          int64
	Hands         int
	Strengths     int
	Ante          float64
	Smoothing     float64
	TotalPayoff   float64
	AveragePayoff float64
	Strategy      *solver.Strategy // nil in Recent listings
}

// Store is a SQLite-backed run archive. It only ever appends and reads;
// nothing in it feeds back into training.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at dbPath. ":memory:" gives a private
// in-memory archive.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at_ms INTEGER NOT NULL,
    finished_at_ms INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    hands INTEGER NOT NULL,
    strengths INTEGER NOT NULL,
    ante REAL NOT NULL,
    smoothing REAL NOT NULL,
    total_payoff REAL NOT NULL,
    average_payoff REAL NOT NULL,
    strategy_json TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at_ms)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished run and returns its id, generating one when
// run.ID is empty.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.Strategy == nil {
		return "", errors.New("run has no strategy")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	raw, err := json.Marshal(run.Strategy)
	if err != nil {
		return "", fmt.Errorf("encode strategy: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (
    id, started_at_ms, finished_at_ms, seed, hands, strengths, ante, smoothing,
    total_payoff, average_payoff, strategy_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.StartedAt.UTC().UnixMilli(), run.FinishedAt.UTC().UnixMilli(), run.Seed, run.Hands,
		run.Strengths, run.Ante, run.Smoothing, run.TotalPayoff, run.AveragePayoff, string(raw))
	if err != nil {
		return "", fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// Recent lists up to limit runs, newest first, without their strategies.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at_ms, finished_at_ms, seed, hands, strengths, ante, smoothing,
       total_payoff, average_payoff
FROM runs
ORDER BY finished_at_ms DESC, id
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run                 Run
			startedMs, finishMs int64
		)
		if err := rows.Scan(&run.ID, &startedMs, &finishMs, &run.Seed, &run.Hands, &run.Strengths,
			&run.Ante, &run.Smoothing, &run.TotalPayoff, &run.AveragePayoff); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedMs).UTC()
		run.FinishedAt = time.UnixMilli(finishMs).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get loads one run including its strategy.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var (
		run                 Run
		startedMs, finishMs int64
		raw                 string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, started_at_ms, finished_at_ms, seed, hands, strengths, ante, smoothing,
       total_payoff, average_payoff, strategy_json
FROM runs
WHERE id = ?
`, id).Scan(&run.ID, &startedMs, &finishMs, &run.Seed, &run.Hands, &run.Strengths,
		&run.Ante, &run.Smoothing, &run.TotalPayoff, &run.AveragePayoff, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("load run %s: %w", id, err)
	}

	var strategy solver.Strategy
	if err := json.Unmarshal([]byte(raw), &strategy); err != nil {
		return Run{}, fmt.Errorf("decode strategy for run %s: %w", id, err)
	}
	run.Strategy = &strategy
	run.StartedAt = time.UnixMilli(startedMs).UTC()
	run.FinishedAt = time.UnixMilli(finishMs).UTC()
	return run, nil
}

// FromResult builds an archive entry for a finished trainer result.
func FromResult(res solver.Result, startedAt, finishedAt time.Time) Run {
	cfg := res.Strategy.Config
	return Run{
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Seed:          res.Seed,
		Hands:         res.Hands,
		Strengths:     cfg.Strengths,
		Ante:          cfg.Ante,
		Smoothing:     cfg.Smoothing,
		TotalPayoff:   res.TotalPayoff,
		AveragePayoff: res.AveragePayoff,
		Strategy:      res.Strategy,
	}
}
