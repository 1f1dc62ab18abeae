package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"playlistcheck/internal/models"
	"playlistcheck/internal/storage"
)

// timeLayout is fixed-width so that run_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the storage.HistoryStore interface for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ storage.HistoryStore = (*SQLiteStore)(nil)

// New creates a new SQLiteStore and establishes a connection to the database file.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	if dataSourceName == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	run_at           TEXT NOT NULL,
	playlist_dir     TEXT NOT NULL,
	git_commit       TEXT,
	error            TEXT,
	total_urls       INTEGER NOT NULL,
	working          INTEGER NOT NULL,
	failing          INTEGER NOT NULL,
	success_rate     REAL NOT NULL,
	duration_seconds REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_run_at_id ON runs (run_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS url_results (
	run_id         TEXT NOT NULL,
	url            TEXT NOT NULL,
	ok             INTEGER NOT NULL,
	status_code    INTEGER,
	reason         TEXT NOT NULL,
	elapsed_ms     INTEGER NOT NULL,
	content_length INTEGER,
	error          TEXT,
	tested_with    TEXT NOT NULL,
	final_url      TEXT NOT NULL,
	PRIMARY KEY (run_id, url),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun records a finished run and the unique URL results of its report.
func (s *SQLiteStore) SaveRun(ctx context.Context, rep *models.Report) (*models.RunRecord, error) {
	rec := &models.RunRecord{
		ID:          uuid.NewString(),
		RunAt:       rep.RunAt.UTC(),
		PlaylistDir: rep.PlaylistDir,
		GitCommit:   rep.GitCommit,
		Error:       rep.Error,
		Summary:     rep.Summary,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
INSERT INTO runs (id, run_at, playlist_dir, git_commit, error, total_urls, working, failing, success_rate, duration_seconds)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sum := rec.Summary
	if _, err := tx.ExecContext(ctx, query, rec.ID, rec.RunAt.Format(timeLayout), rec.PlaylistDir, rec.GitCommit, rec.Error,
		sum.TotalURLs, sum.Working, sum.Failing, sum.SuccessRate, sum.DurationSeconds); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO url_results (run_id, url, ok, status_code, reason, elapsed_ms, content_length, error, tested_with, final_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range storage.UniqueResults(rep) {
		if _, err := stmt.ExecContext(ctx, rec.ID, r.URL, r.OK, r.StatusCode, r.Reason, r.ElapsedMS, r.ContentLength, r.Error, r.TestedWith, r.FinalURL); err != nil {
			return nil, fmt.Errorf("failed to insert result for %s: %w", r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rec, nil
}

const runColumns = `id, run_at, playlist_dir, git_commit, error, total_urls, working, failing, success_rate, duration_seconds`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var r models.RunRecord
	var runAtStr string
	if err := row.Scan(&r.ID, &runAtStr, &r.PlaylistDir, &r.GitCommit, &r.Error,
		&r.Summary.TotalURLs, &r.Summary.Working, &r.Summary.Failing, &r.Summary.SuccessRate, &r.Summary.DurationSeconds); err != nil {
		return nil, err
	}
	r.RunAt, _ = time.Parse(timeLayout, runAtStr)
	return &r, nil
}

// GetRun retrieves a single run by its ID, including its failure list.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run by id: %w", err)
	}
	if err := s.fillFailures(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestRun retrieves the most recent run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*models.RunRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY run_at DESC, id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if err := s.fillFailures(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns retrieves a page of runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, params storage.ListRunsParams) ([]models.RunRecord, error) {
	var args []interface{}
	qb := strings.Builder{}
	qb.WriteString("SELECT " + runColumns + " FROM runs WHERE 1=1")
	if !params.BeforeTime.IsZero() && params.BeforeID != "" {
		args = append(args, params.BeforeTime.UTC().Format(timeLayout), params.BeforeID)
		qb.WriteString(" AND (run_at, id) < (?, ?)")
	}
	qb.WriteString(" ORDER BY run_at DESC, id DESC LIMIT ?")
	args = append(args, params.Limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()
	var runs []models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// ListResults retrieves the probe results of a run, in URL order.
func (s *SQLiteStore) ListResults(ctx context.Context, runID string) ([]models.ProbeResult, error) {
	query := `
SELECT url, ok, status_code, reason, elapsed_ms, content_length, error, tested_with, final_url
FROM url_results WHERE run_id = ? ORDER BY url`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()
	results := []models.ProbeResult{}
	for rows.Next() {
		var r models.ProbeResult
		if err := rows.Scan(&r.URL, &r.OK, &r.StatusCode, &r.Reason, &r.ElapsedMS, &r.ContentLength, &r.Error, &r.TestedWith, &r.FinalURL); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// fillFailures rebuilds the failure list of rec from its stored results.
// Probe order equals URL order, so sorting by url reproduces it.
func (s *SQLiteStore) fillFailures(ctx context.Context, rec *models.RunRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT url, reason FROM url_results WHERE run_id = ? AND ok = 0 ORDER BY url`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()
	rec.Summary.Failures = []models.Failure{}
	for rows.Next() {
		var f models.Failure
		if err := rows.Scan(&f.URL, &f.Reason); err != nil {
			return fmt.Errorf("failed to scan failure row: %w", err)
		}
		rec.Summary.Failures = append(rec.Summary.Failures, f)
	}
	return rows.Err()
}
