// Package archive persists finished run results to SQLite so standings
// survive between pipeline invocations and can be compared across runs.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lwittrock/tourpoule/internal/domain/standings"
)

// Run is one archived pipeline run with its final leaderboard.
type Run struct {
	ID              string
	CreatedAt       time.Time
	Year            int
	StagesProcessed int
	CurrentStage    int
	Leaderboard     []standings.Entry
	RiderTotals     map[string]int
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the archive database and applies
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores a run and its leaderboard atomically.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, year, stages_processed, current_stage)
         VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		createdAt.UTC().Format(time.RFC3339Nano),
		run.Year,
		run.StagesProcessed,
		run.CurrentStage,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, e := range run.Leaderboard {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leaderboard_entries (run_id, rank, participant, directie, total_score, stage_score)
             VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, e.Rank, e.Participant, e.Directie, e.TotalScore, e.StageScore,
		); err != nil {
			return fmt.Errorf("insert leaderboard entry for %s: %w", e.Participant, err)
		}
	}

	for rider, total := range run.RiderTotals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rider_totals (run_id, rider, total_points) VALUES (?, ?, ?)`,
			run.ID, rider, total,
		); err != nil {
			return fmt.Errorf("insert rider total for %s: %w", rider, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LatestRun returns the most recently archived run with its leaderboard.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, year, stages_processed, current_stage
         FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`)

	var run Run
	var createdAt string
	if err := row.Scan(&run.ID, &createdAt, &run.Year, &run.StagesProcessed, &run.CurrentStage); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp: %w", err)
	}
	run.CreatedAt = ts

	board, err := s.leaderboard(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Leaderboard = board

	totals, err := s.riderTotals(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.RiderTotals = totals
	return &run, nil
}

// Runs returns the IDs and timestamps of all archived runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, year, stages_processed, current_stage
         FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.Year, &run.StagesProcessed, &run.CurrentStage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) leaderboard(ctx context.Context, runID string) ([]standings.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, participant, directie, total_score, stage_score
         FROM leaderboard_entries WHERE run_id = ? ORDER BY rank ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard for %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []standings.Entry
	for rows.Next() {
		var e standings.Entry
		if err := rows.Scan(&e.Rank, &e.Participant, &e.Directie, &e.TotalScore, &e.StageScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) riderTotals(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rider, total_points FROM rider_totals WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rider totals for %s: %w", runID, err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var rider string
		var total int
		if err := rows.Scan(&rider, &total); err != nil {
			return nil, fmt.Errorf("scan rider total: %w", err)
		}
		totals[rider] = total
	}
	return totals, rows.Err()
}
