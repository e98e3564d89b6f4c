package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound indicates the requested run does not exist.
var ErrRunNotFound = errors.New("run not found")

// Store persists scan runs and per-file outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the manifest database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure manifest directory: %w", err)
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun inserts a new run row in the running state and returns it.
func (s *Store) BeginRun(ctx context.Context, scanRoot, outputRoot string, keywords []string, workers int) (*Run, error) {
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}

	run := &Run{
		ID:         uuid.NewString(),
		ScanRoot:   scanRoot,
		OutputRoot: outputRoot,
		Keywords:   keywords,
		Workers:    workers,
		Status:     RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, scan_root, output_root, keywords_json, workers, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ScanRoot,
		run.OutputRoot,
		string(keywordsJSON),
		run.Workers,
		string(run.Status),
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the terminal status and final counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, filesExamined, errorsTotal int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, files_examined = ?, errors_total = ? WHERE id = ?`,
		string(status),
		time.Now().UTC().Format(time.RFC3339Nano),
		filesExamined,
		errorsTotal,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordResults batch-inserts the per-file outcomes of a run in one
// transaction.
func (s *Store) RecordResults(ctx context.Context, runID string, results []Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO results (run_id, source_path, destination_path, kind, basis, copied, error_detail)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare results insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		copied := 0
		if result.Copied {
			copied = 1
		}
		if _, err := stmt.ExecContext(
			ctx,
			runID,
			result.SourcePath,
			result.DestinationPath,
			result.Kind,
			result.Basis,
			copied,
			nullableString(result.ErrorDetail),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", result.SourcePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// GetRun fetches a single run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// LatestRun fetches the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns fetches up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ResultsForRun fetches a run's per-file outcomes ordered by source path.
func (s *Store) ResultsForRun(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, source_path, destination_path, kind, basis, copied, error_detail
         FROM results WHERE run_id = ? ORDER BY source_path`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var result Result
		var copied int
		var detail sql.NullString
		if err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.SourcePath,
			&result.DestinationPath,
			&result.Kind,
			&result.Basis,
			&copied,
			&detail,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		result.Copied = copied != 0
		result.ErrorDetail = detail.String
		results = append(results, result)
	}
	return results, rows.Err()
}

// CountsByKind aggregates a run's results per classification kind.
func (s *Store) CountsByKind(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT kind, COUNT(1) FROM results WHERE run_id = ? GROUP BY kind`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

const selectRuns = `SELECT id, scan_root, output_root, keywords_json, workers, status, started_at, finished_at, files_examined, errors_total FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var keywordsJSON string
	var status string
	var startedAt string
	var finishedAt sql.NullString

	if err := row.Scan(
		&run.ID,
		&run.ScanRoot,
		&run.OutputRoot,
		&keywordsJSON,
		&run.Workers,
		&status,
		&startedAt,
		&finishedAt,
		&run.FilesExamined,
		&run.ErrorsTotal,
	); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if err := json.Unmarshal([]byte(keywordsJSON), &run.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords for run %s: %w", run.ID, err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		run.StartedAt = parsed
	}
	if finishedAt.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			run.FinishedAt = parsed
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
