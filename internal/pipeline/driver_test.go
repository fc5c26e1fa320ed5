package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/d2vlab/yfcrawler/internal/archive"
	"github.com/d2vlab/yfcrawler/internal/crawler"
	"github.com/d2vlab/yfcrawler/internal/model"
)

// fixedNow is Monday 2017-01-02 14:30 UTC, 09:30 in New York.
var fixedNow = time.Date(2017, 1, 2, 14, 30, 0, 0, time.UTC)

// mockSaver records Save calls and fails for URLs containing a listed epoch.
type mockSaver struct {
	failEpochs map[string]bool
	urls       []string
	names      []string
	dirs       []string
	callCount  int
}

func (m *mockSaver) Save(_ context.Context, pageURL, dir, name string) (*crawler.SavedPage, error) {
	m.callCount++
	m.urls = append(m.urls, pageURL)
	m.names = append(m.names, name)
	m.dirs = append(m.dirs, dir)
	for epoch := range m.failEpochs {
		if strings.HasSuffix(pageURL, "date="+epoch) {
			return nil, model.NewFailure(model.FailureProtocol, "fetch", pageURL, errors.New("HTTP 404"))
		}
	}
	return &crawler.SavedPage{Path: dir + "/" + name, Size: 100, Hash: "abc"}, nil
}

// mockExtractor returns fixed records per side and fails for listed pages.
type mockExtractor struct {
	failCalls map[string]bool
	failPuts  map[string]bool
	sides     []model.Side
	captured  []string
	callCount int
}

func (m *mockExtractor) Extract(path, expiration, capturedAt string, side model.Side) ([]model.OptionRecord, error) {
	m.callCount++
	m.sides = append(m.sides, side)
	m.captured = append(m.captured, capturedAt)

	if side == model.Call && m.failCalls[path] {
		return nil, model.NewFailure(model.FailureStructureNotFound, "extract", path, nil)
	}
	if side == model.Put && m.failPuts[path] {
		return nil, model.NewFailure(model.FailureExtraction, "extract", path, errors.New("td.data-col3 missing"))
	}

	return []model.OptionRecord{
		{CapturedAt: capturedAt, Expiration: expiration, Side: side, ContractName: side.String() + "-1"},
		{CapturedAt: capturedAt, Expiration: expiration, Side: side, ContractName: side.String() + "-2"},
	}, nil
}

// mockAppender collects appended rows.
type mockAppender struct {
	fail      bool
	rows      map[string][]string
	callCount int
}

func (m *mockAppender) Append(rows []string, dir, name string) (string, error) {
	m.callCount++
	if m.fail {
		return "", model.NewFailure(model.FailureFilesystem, "append", dir, model.ErrNoSuchDirectory)
	}
	if m.rows == nil {
		m.rows = make(map[string][]string)
	}
	path := dir + "/" + name
	m.rows[path] = append(m.rows[path], rows...)
	return path, nil
}

// mockRecorder counts recorded items and optionally fails every call.
type mockRecorder struct {
	fail    bool
	pages   []model.FetchResult
	reports []model.Outcome
	runs    []*model.RunSummary
}

func (m *mockRecorder) err() error {
	if m.fail {
		return errors.New("catalog unavailable")
	}
	return nil
}

func (m *mockRecorder) RecordPage(_ context.Context, _, _ string, page model.FetchResult) error {
	m.pages = append(m.pages, page)
	return m.err()
}

func (m *mockRecorder) RecordReport(_ context.Context, _, _ string, outcome model.Outcome) error {
	m.reports = append(m.reports, outcome)
	return m.err()
}

func (m *mockRecorder) RecordRun(_ context.Context, summary *model.RunSummary) error {
	m.runs = append(m.runs, summary)
	return m.err()
}

// newTestDriver builds a Driver with fixed clocks and a discarding logger.
func newTestDriver(t *testing.T, saver *mockSaver, extractor *mockExtractor, writer *mockAppender, opts ...Option) *Driver {
	t.Helper()

	namer, err := archive.NewNamer(archive.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("failed to create namer: %v", err)
	}

	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
		WithRunID(func() string { return "run-1" }),
	}
	return New(saver, extractor, writer, namer, append(base, opts...)...)
}

// TestNew tests the Driver constructor defaults.
func TestNew(t *testing.T) {
	t.Parallel()

	d := New(&mockSaver{}, &mockExtractor{}, &mockAppender{}, nil)

	if d.expirations != 8 {
		t.Errorf("expected 8 expirations, got %d", d.expirations)
	}
	if d.archiveDir != "archive" || d.reportDir != "reports" {
		t.Errorf("unexpected dirs %q %q", d.archiveDir, d.reportDir)
	}
	if d.baseURL != archive.DefaultBaseURL {
		t.Errorf("unexpected base URL %q", d.baseURL)
	}
	if d.logger == nil {
		t.Error("expected default logger")
	}
	if d.recorder != nil {
		t.Error("expected no recorder")
	}
	if id := d.newRunID(); len(id) != 36 {
		t.Errorf("expected UUID run ID, got %q", id)
	}
}

// TestDriverRun_AllSucceed tests a run where every stage succeeds.
func TestDriverRun_AllSucceed(t *testing.T) {
	t.Parallel()

	saver := &mockSaver{}
	extractor := &mockExtractor{}
	writer := &mockAppender{}
	d := newTestDriver(t, saver, extractor, writer)

	summary := d.Run(context.Background(), "AAPL")

	if summary.RunID != "run-1" || summary.Symbol != "AAPL" {
		t.Errorf("unexpected run identity %q %q", summary.RunID, summary.Symbol)
	}
	if summary.ArchiveSucceeded != 8 || summary.ArchiveFailed != 0 {
		t.Errorf("archive counts = %d/%d, want 8/0", summary.ArchiveSucceeded, summary.ArchiveFailed)
	}
	if summary.ReportSucceeded != 8 || summary.ReportFailed != 0 {
		t.Errorf("report counts = %d/%d, want 8/0", summary.ReportSucceeded, summary.ReportFailed)
	}
	if saver.callCount != 8 {
		t.Errorf("expected 8 saves, got %d", saver.callCount)
	}
	if extractor.callCount != 16 {
		t.Errorf("expected 16 extractions, got %d", extractor.callCount)
	}
	if writer.callCount != 8 {
		t.Errorf("expected 8 appends, got %d", writer.callCount)
	}
	if summary.TotalRows() != 32 {
		t.Errorf("expected 32 rows, got %d", summary.TotalRows())
	}

	t.Run("requests expirations in schedule order", func(t *testing.T) {
		t.Parallel()

		wantFirst := "https://finance.yahoo.com/quote/AAPL/options?p=AAPL&date=1483660800"
		if saver.urls[0] != wantFirst {
			t.Errorf("first URL = %q, want %q", saver.urls[0], wantFirst)
		}
		if !strings.HasSuffix(saver.urls[1], "date=1484265600") {
			t.Errorf("second URL = %q", saver.urls[1])
		}
		if saver.names[0] != "yf-AAPL-option-html-1483660800-2017-01-02-09-30-EST" {
			t.Errorf("unexpected archive name %q", saver.names[0])
		}
		for _, dir := range saver.dirs {
			if dir != "archive" {
				t.Errorf("expected archive dir, got %q", dir)
			}
		}
	})

	t.Run("writes calls then puts", func(t *testing.T) {
		t.Parallel()

		rows := writer.rows["reports/yf-AAPL-option-report-1483660800-2017-01-02-EST"]
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(rows))
		}
		var sides []string
		for _, row := range rows {
			sides = append(sides, strings.Split(row, "|")[2])
		}
		if diff := cmp.Diff([]string{"Call", "Call", "Put", "Put"}, sides); diff != "" {
			t.Errorf("side order mismatch (-want +got):\n%s", diff)
		}
		if !strings.HasPrefix(rows[0], "2017-01-02 09:30 EST|") {
			t.Errorf("expected capture timestamp first, got %q", rows[0])
		}
		if !strings.Contains(rows[0], "|2017-01-06 UTC|") {
			t.Errorf("expected expiration date in row, got %q", rows[0])
		}
	})

	t.Run("records outcomes", func(t *testing.T) {
		t.Parallel()

		o := summary.Outcomes[0]
		if !o.Archived() || !o.Reported() {
			t.Errorf("expected archived and reported outcome, got %+v", o)
		}
		if o.CallRows != 2 || o.PutRows != 2 {
			t.Errorf("unexpected row counts %d/%d", o.CallRows, o.PutRows)
		}
		if o.Error != "" {
			t.Errorf("unexpected error %q", o.Error)
		}
	})
}

// TestDriverRun_ArchiveFailures tests that failed saves are skipped.
func TestDriverRun_ArchiveFailures(t *testing.T) {
	t.Parallel()

	saver := &mockSaver{failEpochs: map[string]bool{
		"1483660800": true,
		"1484870400": true,
		"1486080000": true,
	}}
	extractor := &mockExtractor{}
	writer := &mockAppender{}
	d := newTestDriver(t, saver, extractor, writer)

	summary := d.Run(context.Background(), "AAPL")

	if summary.ArchiveSucceeded != 5 || summary.ArchiveFailed != 3 {
		t.Errorf("archive counts = %d/%d, want 5/3", summary.ArchiveSucceeded, summary.ArchiveFailed)
	}
	if saver.callCount != 8 {
		t.Errorf("expected all 8 expirations attempted, got %d", saver.callCount)
	}
	if extractor.callCount != 10 {
		t.Errorf("expected 10 extractions, got %d", extractor.callCount)
	}
	if summary.ReportSucceeded != 5 {
		t.Errorf("expected 5 reports, got %d", summary.ReportSucceeded)
	}

	first := summary.Outcomes[0]
	if first.Archived() || first.Reported() {
		t.Errorf("expected first expiration to fail, got %+v", first)
	}
	if !strings.Contains(first.Error, "protocol") {
		t.Errorf("expected protocol failure message, got %q", first.Error)
	}
	if diff := cmp.Diff(map[string]int{"protocol": 3}, summary.Failures); diff != "" {
		t.Errorf("failure counts mismatch (-want +got):\n%s", diff)
	}
}

// TestDriverRun_ExtractionFailures tests that a page missing either side
// produces no report.
func TestDriverRun_ExtractionFailures(t *testing.T) {
	t.Parallel()

	firstPage := "archive/yf-AAPL-option-html-1483660800-2017-01-02-09-30-EST"
	secondPage := "archive/yf-AAPL-option-html-1484265600-2017-01-02-09-30-EST"

	saver := &mockSaver{}
	extractor := &mockExtractor{
		failCalls: map[string]bool{firstPage: true},
		failPuts:  map[string]bool{secondPage: true},
	}
	writer := &mockAppender{}
	d := newTestDriver(t, saver, extractor, writer, WithExpirations(3))

	summary := d.Run(context.Background(), "AAPL")

	if summary.ReportSucceeded != 1 || summary.ReportFailed != 2 {
		t.Errorf("report counts = %d/%d, want 1/2", summary.ReportSucceeded, summary.ReportFailed)
	}
	if writer.callCount != 1 {
		t.Errorf("expected 1 append, got %d", writer.callCount)
	}
	if extractor.callCount != 6 {
		t.Errorf("expected both sides extracted for every page, got %d", extractor.callCount)
	}
	if summary.Outcomes[0].Reported() || summary.Outcomes[1].Reported() {
		t.Error("failed pages should not be reported")
	}
	if !summary.Outcomes[0].Archived() {
		t.Error("extraction failure should keep the archived page")
	}
	if !strings.Contains(summary.Outcomes[1].Error, "td.data-col3") {
		t.Errorf("expected put failure message, got %q", summary.Outcomes[1].Error)
	}
	want := map[string]int{"structure_not_found": 1, "extraction": 1}
	if diff := cmp.Diff(want, summary.Failures); diff != "" {
		t.Errorf("failure counts mismatch (-want +got):\n%s", diff)
	}
}

// TestDriverRun_WriteFailure tests that append failures count as report failures.
func TestDriverRun_WriteFailure(t *testing.T) {
	t.Parallel()

	writer := &mockAppender{fail: true}
	d := newTestDriver(t, &mockSaver{}, &mockExtractor{}, writer, WithExpirations(2))

	summary := d.Run(context.Background(), "AAPL")

	if summary.ReportSucceeded != 0 || summary.ReportFailed != 2 {
		t.Errorf("report counts = %d/%d, want 0/2", summary.ReportSucceeded, summary.ReportFailed)
	}
	if !strings.Contains(summary.Outcomes[0].Error, "no such directory") {
		t.Errorf("unexpected error %q", summary.Outcomes[0].Error)
	}
	if got := summary.Failures["filesystem"]; got != 2 {
		t.Errorf("expected 2 filesystem failures, got %d", got)
	}
}

// TestDriverRun_Options tests directory, base URL and expiration options.
func TestDriverRun_Options(t *testing.T) {
	t.Parallel()

	t.Run("custom directories and base URL", func(t *testing.T) {
		t.Parallel()

		saver := &mockSaver{}
		writer := &mockAppender{}
		d := newTestDriver(t, saver, &mockExtractor{}, writer,
			WithExpirations(1),
			WithArchiveDir("/tmp/pages"),
			WithReportDir("/tmp/out"),
			WithBaseURL("http://127.0.0.1:8080/"),
		)

		summary := d.Run(context.Background(), "SPY")

		if saver.dirs[0] != "/tmp/pages" {
			t.Errorf("expected archive dir /tmp/pages, got %q", saver.dirs[0])
		}
		if !strings.HasPrefix(saver.urls[0], "http://127.0.0.1:8080/quote/SPY/options") {
			t.Errorf("unexpected URL %q", saver.urls[0])
		}
		if !strings.HasPrefix(summary.Outcomes[0].ReportFile, "/tmp/out/") {
			t.Errorf("unexpected report file %q", summary.Outcomes[0].ReportFile)
		}
	})

	t.Run("zero expirations does nothing", func(t *testing.T) {
		t.Parallel()

		saver := &mockSaver{}
		d := newTestDriver(t, saver, &mockExtractor{}, &mockAppender{}, WithExpirations(0))

		summary := d.Run(context.Background(), "AAPL")

		if saver.callCount != 0 {
			t.Errorf("expected no saves, got %d", saver.callCount)
		}
		if len(summary.Outcomes) != 0 {
			t.Errorf("expected no outcomes, got %d", len(summary.Outcomes))
		}
	})
}

// TestDriverRun_Elapsed tests phase timing from the injected clock.
func TestDriverRun_Elapsed(t *testing.T) {
	t.Parallel()

	tick := fixedNow
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	d := newTestDriver(t, &mockSaver{}, &mockExtractor{}, &mockAppender{},
		WithExpirations(1),
		WithClock(clock),
	)
	summary := d.Run(context.Background(), "AAPL")

	if summary.ArchiveElapsed != time.Second || summary.ReportElapsed != time.Second {
		t.Errorf("unexpected elapsed %v/%v", summary.ArchiveElapsed, summary.ReportElapsed)
	}
	if summary.Elapsed() != 2*time.Second {
		t.Errorf("expected 2s total, got %v", summary.Elapsed())
	}
}

// TestDriverRun_Recorder tests that the recorder sees pages, reports and the run.
func TestDriverRun_Recorder(t *testing.T) {
	t.Parallel()

	for _, fail := range []bool{false, true} {
		fail := fail
		t.Run(fmt.Sprintf("fail=%v", fail), func(t *testing.T) {
			t.Parallel()

			recorder := &mockRecorder{fail: fail}
			saver := &mockSaver{failEpochs: map[string]bool{"1483660800": true}}
			d := newTestDriver(t, saver, &mockExtractor{}, &mockAppender{},
				WithExpirations(3),
				WithRecorder(recorder),
			)

			summary := d.Run(context.Background(), "AAPL")

			if len(recorder.pages) != 2 {
				t.Errorf("expected 2 recorded pages, got %d", len(recorder.pages))
			}
			if len(recorder.reports) != 2 {
				t.Errorf("expected 2 recorded reports, got %d", len(recorder.reports))
			}
			if len(recorder.runs) != 1 || recorder.runs[0] != summary {
				t.Error("expected the summary to be recorded once")
			}
			if recorder.pages[0].CapturedAt != "2017-01-02 09:30 EST" {
				t.Errorf("unexpected capture stamp %q", recorder.pages[0].CapturedAt)
			}
			if recorder.pages[0].Hash != "abc" || recorder.pages[0].Size != 100 {
				t.Errorf("expected saved page digest and size, got %+v", recorder.pages[0])
			}
			if summary.ReportSucceeded != 2 {
				t.Errorf("recorder errors must not change outcomes, got %d reports", summary.ReportSucceeded)
			}
		})
	}
}
