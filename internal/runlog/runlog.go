// Package runlog persists pipeline runs and per-stage outcomes to a
// SQLite ledger so past runs can be inspected without their artifact
// directories.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RunStatus describes the lifecycle of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StageStatus describes how a single stage concluded.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	// StageSkipped means the stage's artifact already existed and the
	// stage did not run.
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string
	Input      string
	OutDir     string
	SourceLang string
	TargetLang string
	Strategy   string
	Status     RunStatus
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StageRecord is the outcome of one stage within a run. Kept and
// Rejected carry the quality gate counts and are only meaningful for
// the transcription stage.
type StageRecord struct {
	RunID      string
	Name       string
	Status     StageStatus
	Detail     string
	Kept       int
	Rejected   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store manages ledger persistence backed by SQLite. A nil Store is a
// valid no-op sink, so callers can run without a ledger.
type Store struct {
	db   *sql.DB
	path string
}

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE runs (
    id          TEXT PRIMARY KEY,
    input       TEXT NOT NULL,
    out_dir     TEXT NOT NULL,
    source_lang TEXT NOT NULL,
    target_lang TEXT NOT NULL,
    strategy    TEXT NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE stages (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    status      TEXT NOT NULL,
    detail      TEXT,
    kept        INTEGER NOT NULL DEFAULT 0,
    rejected    INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    PRIMARY KEY (run_id, name)
);

CREATE INDEX idx_runs_created_at ON runs(created_at);
`

// Open initializes or connects to the ledger database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
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
	if err := store.initSchema(context.Background()); err != nil {
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
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("ledger schema version %d, expected %d (delete %s to reset)", version, schemaVersion, s.path)
	}
	return nil
}

// BeginRun inserts a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if s == nil || s.db == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, input, out_dir, source_lang, target_lang, strategy, status, error, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Input,
		run.OutDir,
		run.SourceLang,
		run.TargetLang,
		run.Strategy,
		RunRunning,
		nil,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed, or failed with the error message when
// runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	if s == nil || s.db == nil {
		return nil
	}
	status := RunCompleted
	var message any
	if runErr != nil {
		status = RunFailed
		message = runErr.Error()
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordStage upserts the outcome of one stage within a run.
func (s *Store) RecordStage(ctx context.Context, rec StageRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stages (run_id, name, status, detail, kept, rejected, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, name) DO UPDATE SET
             status = excluded.status, detail = excluded.detail,
             kept = excluded.kept, rejected = excluded.rejected,
             started_at = excluded.started_at, finished_at = excluded.finished_at`,
		rec.RunID,
		rec.Name,
		rec.Status,
		nullableString(rec.Detail),
		rec.Kept,
		rec.Rejected,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record stage: %w", err)
	}
	return nil
}

// GetRun fetches one run by identifier, or nil when unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger is not open")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// FindRun resolves an exact run ID or a unique ID prefix. It returns nil
// when nothing matches and an error when the prefix is ambiguous.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger is not open")
	}
	if run, err := s.GetRun(ctx, idOrPrefix); err != nil || run != nil {
		return run, err
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' ORDER BY created_at DESC LIMIT 2`,
		idOrPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// LatestRuns returns the most recent runs, newest first.
func (s *Store) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger is not open")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
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

// StagesForRun returns the stage records of a run in execution order.
func (s *Store) StagesForRun(ctx context.Context, runID string) ([]StageRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger is not open")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, name, status, detail, kept, rejected, started_at, finished_at
         FROM stages WHERE run_id = ? ORDER BY started_at, name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var records []StageRecord
	for rows.Next() {
		var (
			rec         StageRecord
			detail      sql.NullString
			startedRaw  string
			finishedRaw string
			status      string
		)
		if err := rows.Scan(&rec.RunID, &rec.Name, &status, &detail, &rec.Kept, &rec.Rejected, &startedRaw, &finishedRaw); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		rec.Status = StageStatus(status)
		rec.Detail = detail.String
		if t, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
			rec.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
			rec.FinishedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const runColumns = "id, input, out_dir, source_lang, target_lang, strategy, status, error, created_at, updated_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		status     string
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Input,
		&run.OutDir,
		&run.SourceLang,
		&run.TargetLang,
		&run.Strategy,
		&status,
		&errMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = errMessage.String
	if t, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		run.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		run.UpdatedAt = t
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
