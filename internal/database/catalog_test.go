package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// setupTestCatalog creates a temporary catalog for testing.
func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func testSummary(runID string, started time.Time) *model.RunSummary {
	summary := model.NewRunSummary(runID, "AAPL", started)
	summary.ArchiveSucceeded = 7
	summary.ArchiveFailed = 1
	summary.ReportSucceeded = 6
	summary.ReportFailed = 1
	summary.Outcomes = append(summary.Outcomes, model.Outcome{
		Expiration: model.NewExpirationDate(time.Date(2017, 1, 6, 0, 0, 0, 0, time.UTC)),
		ReportFile: "reports/AAPL-1483660800.report",
		CallRows:   10,
		PutRows:    9,
	})
	return summary
}

// TestOpen tests catalog opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates catalog in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newdir", "subdir")
		c, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open catalog: %v", err)
		}
		defer c.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("catalog file was not created: %v", err)
		}
		if c.Path() != filepath.Join(dir, FileName) {
			t.Errorf("unexpected path %q", c.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing catalog", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dir, Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing catalog")
		}
		if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
			t.Error("directory should not be created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing catalog", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		c, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create catalog: %v", err)
		}
		_ = c.Close()

		c, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen catalog: %v", err)
		}
		_ = c.Close()
	})
}

// TestCatalogPages tests page recording and listing.
func TestCatalogPages(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()

	exp := model.NewExpirationDate(time.Date(2017, 1, 6, 0, 0, 0, 0, time.UTC))
	page := model.FetchResult{
		ArchiveFile: "archive/AAPL-2017-01-03-09-45-EST-1483660800.html",
		Expiration:  exp,
		CapturedAt:  "2017-01-03 09:45 EST",
		URL:         "https://finance.yahoo.com/quote/AAPL/options?date=1483660800",
		Hash:        model.ComputeHash([]byte("<html></html>")),
		Size:        13,
	}

	if err := c.RecordPage(ctx, "run-1", "AAPL", page); err != nil {
		t.Fatalf("RecordPage failed: %v", err)
	}
	if err := c.RecordPage(ctx, "run-2", "AAPL", page); err != nil {
		t.Fatalf("RecordPage failed: %v", err)
	}

	pages, err := c.ListPages(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	want := PageRecord{
		ID:              pages[0].ID,
		RunID:           "run-1",
		Symbol:          "AAPL",
		ExpirationEpoch: "1483660800",
		URL:             page.URL,
		ArchiveFile:     page.ArchiveFile,
		CapturedAt:      page.CapturedAt,
		RawHash:         page.Hash,
		Size:            13,
	}
	if diff := cmp.Diff(want, pages[0]); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}

	none, err := c.ListPages(ctx, "run-unknown")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no pages, got %d", len(none))
	}
}

// TestCatalogReports tests report recording.
func TestCatalogReports(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx := context.Background()
	outcome := testSummary("run-1", time.Now()).Outcomes[0]

	if err := c.RecordReport(ctx, "run-1", "AAPL", outcome); err != nil {
		t.Fatalf("RecordReport failed: %v", err)
	}

	var file string
	var calls, puts int
	err := c.db.QueryRowContext(ctx,
		`SELECT report_file, call_rows, put_rows FROM reports WHERE run_id = ?`, "run-1",
	).Scan(&file, &calls, &puts)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if file != outcome.ReportFile || calls != 10 || puts != 9 {
		t.Errorf("unexpected report row: %s %d %d", file, calls, puts)
	}
}

// TestCatalogRuns tests run recording, listing and retrieval.
func TestCatalogRuns(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		c := setupTestCatalog(t)
		ctx := context.Background()
		started := time.Date(2017, 1, 3, 14, 45, 0, 0, time.UTC)
		summary := testSummary("run-1", started)

		if err := c.RecordRun(ctx, summary); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		got, err := c.GetRun(ctx, "run-1")
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if diff := cmp.Diff(summary, got); diff != "" {
			t.Errorf("summary mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("newest first per symbol", func(t *testing.T) {
		t.Parallel()

		c := setupTestCatalog(t)
		ctx := context.Background()
		base := time.Date(2017, 1, 3, 14, 45, 0, 0, time.UTC)

		for i, id := range []string{"run-a", "run-b", "run-c"} {
			if err := c.RecordRun(ctx, testSummary(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("RecordRun failed: %v", err)
			}
		}
		other := testSummary("run-msft", base)
		other.Symbol = "MSFT"
		if err := c.RecordRun(ctx, other); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		runs, err := c.ListRuns(ctx, "AAPL")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}

		var ids []string
		for _, r := range runs {
			ids = append(ids, r.RunID)
		}
		if diff := cmp.Diff([]string{"run-c", "run-b", "run-a"}, ids); diff != "" {
			t.Errorf("run order mismatch (-want +got):\n%s", diff)
		}
		if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
			t.Errorf("unexpected start time %v", runs[0].StartedAt)
		}
		if runs[0].ArchiveSucceeded != 7 || runs[0].ReportFailed != 1 {
			t.Errorf("unexpected counters %+v", runs[0])
		}
	})

	t.Run("re-recording replaces counters", func(t *testing.T) {
		t.Parallel()

		c := setupTestCatalog(t)
		ctx := context.Background()
		summary := testSummary("run-1", time.Now())

		if err := c.RecordRun(ctx, summary); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		summary.ReportFailed = 3
		if err := c.RecordRun(ctx, summary); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		runs, err := c.ListRuns(ctx, "AAPL")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 1 || runs[0].ReportFailed != 3 {
			t.Errorf("expected one updated run, got %+v", runs)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		c := setupTestCatalog(t)
		if _, err := c.GetRun(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

// TestParseTimestamp tests parsing of stored timestamps.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2017-01-03T14:45:00.000000000Z", time.Date(2017, 1, 3, 14, 45, 0, 0, time.UTC)},
		{"2017-01-03 14:45:00", time.Date(2017, 1, 3, 14, 45, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
