// Package history provides the SQLite-backed run history store.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded orchestrator run.
type Run struct {
	ID        string
	StartedAt time.Time
	Suite     string
	Channel   string
	Workdir   string
	ExitCode  int
	Stages    int
}

// StageRow is one recorded stage outcome within a run.
type StageRow struct {
	RunID          string
	Name           string
	Command        string
	Dir            string
	ExitCode       int
	DurationMillis int64
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating the schema if needed.
// With an empty path the database lives at ~/.crosscheck/history.db.
func Open(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".crosscheck")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "history.db")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run and its stage outcomes in one transaction.
func (s *Store) Record(run Run, stages []StageRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (run_id, started_at, suite, channel, workdir, exit_code, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Suite, run.Channel, run.Workdir, run.ExitCode, len(stages)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO stage_results (run_id, name, command, dir, exit_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stage insert: %w", err)
	}
	defer stmt.Close()

	for _, stage := range stages {
		if _, err := stmt.Exec(run.ID, stage.Name, stage.Command, stage.Dir, stage.ExitCode, stage.DurationMillis); err != nil {
			return fmt.Errorf("failed to insert stage %s: %w", stage.Name, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT run_id, started_at, suite, channel, workdir, exit_code, stages
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &started, &run.Suite, &run.Channel, &run.Workdir, &run.ExitCode, &run.Stages); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

// Stages returns the stage outcomes recorded for a run, in insertion order.
func (s *Store) Stages(runID string) ([]StageRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, name, command, dir, exit_code, duration_ms
		FROM stage_results WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage results: %w", err)
	}
	defer rows.Close()

	var stages []StageRow
	for rows.Next() {
		var stage StageRow
		if err := rows.Scan(&stage.RunID, &stage.Name, &stage.Command, &stage.Dir, &stage.ExitCode, &stage.DurationMillis); err != nil {
			return nil, fmt.Errorf("failed to scan stage result: %w", err)
		}
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage rows: %w", err)
	}

	return stages, nil
}

// JoinCommand renders an argv for storage and display.
func JoinCommand(command []string) string {
	return strings.Join(command, " ")
}

func initializeSchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion sql.NullString
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if currentVersion.Valid && currentVersion.String == "1.0.0" {
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			suite TEXT NOT NULL,
			channel TEXT NOT NULL,
			workdir TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			stages INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stage_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			command TEXT,
			dir TEXT,
			exit_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,

			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)
	`); err != nil {
		return fmt.Errorf("failed to create stage_results table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)",
		"CREATE INDEX IF NOT EXISTS idx_stage_results_run_id ON stage_results(run_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES ('1.0.0')"); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}
