package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/d2vlab/yfcrawler/internal/model"
)

// FileName is the catalog database file inside the catalog directory.
const FileName = "catalog.db"

// startedLayout stores run start times with fixed-width fractions so that
// text ordering matches time ordering.
const startedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Catalog provides SQLite-based storage of crawl runs.
type Catalog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Catalog behavior.
type Options struct {
	// CreateIfNotExists creates the catalog directory and file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default catalog options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the catalog in dbDir.
// If CreateIfNotExists is false and the catalog doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Catalog, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog not found at %s (run with --catalog to create it)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check catalog path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.dbPath
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// createTables creates the catalog schema if it doesn't exist.
func (c *Catalog) createTables() error {
	schema := `
	-- Pages archived during the archive phase
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		expiration_epoch TEXT NOT NULL,
		url TEXT NOT NULL,
		archive_file TEXT NOT NULL,
		captured_at TEXT NOT NULL,
		raw_hash TEXT,
		size INTEGER DEFAULT 0,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(raw_hash);

	-- Report files appended during the report phase
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		expiration_epoch TEXT NOT NULL,
		report_file TEXT NOT NULL,
		call_rows INTEGER DEFAULT 0,
		put_rows INTEGER DEFAULT 0,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id);

	-- Completed runs with their summary as JSON
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		started_at TEXT NOT NULL,
		archive_succeeded INTEGER DEFAULT 0,
		archive_failed INTEGER DEFAULT 0,
		report_succeeded INTEGER DEFAULT 0,
		report_failed INTEGER DEFAULT 0,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord is a stored archived page.
type PageRecord struct {
	ID              int64
	RunID           string
	Symbol          string
	ExpirationEpoch string
	URL             string
	ArchiveFile     string
	CapturedAt      string
	RawHash         string
	Size            int64
}

// RecordPage stores one archived page of a run.
func (c *Catalog) RecordPage(ctx context.Context, runID, symbol string, page model.FetchResult) error {
	query := `
	INSERT INTO pages (run_id, symbol, expiration_epoch, url, archive_file, captured_at, raw_hash, size)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		runID,
		symbol,
		page.Expiration.Epoch,
		page.URL,
		page.ArchiveFile,
		page.CapturedAt,
		page.Hash,
		page.Size,
	)
	if err != nil {
		return fmt.Errorf("failed to record page: %w", err)
	}
	return nil
}

// ListPages returns the pages archived by a run in insertion order.
func (c *Catalog) ListPages(ctx context.Context, runID string) ([]PageRecord, error) {
	query := `
	SELECT id, run_id, symbol, expiration_epoch, url, archive_file, captured_at, raw_hash, size
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var hash sql.NullString
		if err := rows.Scan(
			&p.ID, &p.RunID, &p.Symbol, &p.ExpirationEpoch,
			&p.URL, &p.ArchiveFile, &p.CapturedAt, &hash, &p.Size,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.RawHash = hash.String
		pages = append(pages, p)
	}

	return pages, rows.Err()
}

// RecordReport stores one report file written by a run.
func (c *Catalog) RecordReport(ctx context.Context, runID, symbol string, outcome model.Outcome) error {
	query := `
	INSERT INTO reports (run_id, symbol, expiration_epoch, report_file, call_rows, put_rows)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		runID,
		symbol,
		outcome.Expiration.Epoch,
		outcome.ReportFile,
		outcome.CallRows,
		outcome.PutRows,
	)
	if err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	return nil
}

// RecordRun stores the summary of a finished run. Recording the same run
// twice replaces the earlier row.
func (c *Catalog) RecordRun(ctx context.Context, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize run summary: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, symbol, started_at, archive_succeeded, archive_failed,
		report_succeeded, report_failed, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		archive_succeeded = excluded.archive_succeeded,
		archive_failed = excluded.archive_failed,
		report_succeeded = excluded.report_succeeded,
		report_failed = excluded.report_failed,
		summary_json = excluded.summary_json
	`

	_, err = c.db.ExecContext(ctx, query,
		summary.RunID,
		summary.Symbol,
		summary.StartedAt.UTC().Format(startedLayout),
		summary.ArchiveSucceeded,
		summary.ArchiveFailed,
		summary.ReportSucceeded,
		summary.ReportFailed,
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RunRecord is the catalog metadata of one run.
// It is used for listing history without decoding full summaries.
type RunRecord struct {
	RunID            string
	Symbol           string
	StartedAt        time.Time
	ArchiveSucceeded int
	ArchiveFailed    int
	ReportSucceeded  int
	ReportFailed     int
}

// ListRuns returns the runs recorded for a symbol, newest first.
func (c *Catalog) ListRuns(ctx context.Context, symbol string) ([]RunRecord, error) {
	query := `
	SELECT run_id, symbol, started_at, archive_succeeded, archive_failed,
		report_succeeded, report_failed
	FROM runs
	WHERE symbol = ?
	ORDER BY started_at DESC
	`

	rows, err := c.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedAt string
		if err := rows.Scan(
			&r.RunID, &r.Symbol, &startedAt,
			&r.ArchiveSucceeded, &r.ArchiveFailed,
			&r.ReportSucceeded, &r.ReportFailed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetRun returns the full summary of a run.
// Returns ErrRunNotFound if the run was never recorded.
func (c *Catalog) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	var summaryJSON string
	err := c.db.QueryRowContext(ctx, `SELECT summary_json FROM runs WHERE run_id = ?`, runID).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to deserialize run summary: %w", err)
	}
	return &summary, nil
}

// timestampFormats lists the formats SQLite timestamps may come back in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp using the known formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
