package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/d2vlab/yfcrawler/internal/archive"
	"github.com/d2vlab/yfcrawler/internal/crawler"
	"github.com/d2vlab/yfcrawler/internal/model"
	"github.com/d2vlab/yfcrawler/internal/schedule"
)

// Default directories, relative to the working directory.
const (
	DefaultArchiveDir = "archive"
	DefaultReportDir  = "reports"
)

// PageSaver downloads a page and saves it under dir/name.
type PageSaver interface {
	Save(ctx context.Context, pageURL, dir, name string) (*crawler.SavedPage, error)
}

// RowExtractor extracts one side of the option chain from a saved page.
type RowExtractor interface {
	Extract(path, expiration, capturedAt string, side model.Side) ([]model.OptionRecord, error)
}

// ReportAppender appends serialized rows to dir/name.
type ReportAppender interface {
	Append(rows []string, dir, name string) (string, error)
}

// Namer names archived pages and reports and stamps capture times.
type Namer interface {
	RawPageName(symbol, epoch string) string
	ReportName(symbol, epoch string) string
	CaptureTimestamp() string
}

// Recorder persists what a run produced. Recording is best effort: errors
// are logged and never change the run's outcome.
type Recorder interface {
	RecordPage(ctx context.Context, runID, symbol string, page model.FetchResult) error
	RecordReport(ctx context.Context, runID, symbol string, outcome model.Outcome) error
	RecordRun(ctx context.Context, summary *model.RunSummary) error
}

// Driver runs the archive and report phases for a symbol.
type Driver struct {
	saver     PageSaver
	extractor RowExtractor
	writer    ReportAppender
	namer     Namer

	// recorder is nil unless WithRecorder is given.
	recorder Recorder

	logger *slog.Logger

	// clock drives the expiration schedule and phase timing. Names come from
	// the Namer's own clock.
	clock func() time.Time

	newRunID func() string

	expirations int
	archiveDir  string
	reportDir   string
	baseURL     string
}

// Option is a function that configures a Driver.
type Option func(*Driver)

// WithLogger sets a custom logger for the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithClock replaces the clock the schedule is computed from.
func WithClock(clock func() time.Time) Option {
	return func(d *Driver) {
		d.clock = clock
	}
}

// WithRunID replaces the run ID generator.
func WithRunID(newRunID func() string) Option {
	return func(d *Driver) {
		d.newRunID = newRunID
	}
}

// WithExpirations sets how many weekly expirations are crawled.
func WithExpirations(n int) Option {
	return func(d *Driver) {
		d.expirations = n
	}
}

// WithArchiveDir sets the directory raw pages are saved into.
func WithArchiveDir(dir string) Option {
	return func(d *Driver) {
		d.archiveDir = dir
	}
}

// WithReportDir sets the directory reports are appended to.
func WithReportDir(dir string) Option {
	return func(d *Driver) {
		d.reportDir = dir
	}
}

// WithBaseURL sets the origin option page URLs are built on.
func WithBaseURL(baseURL string) Option {
	return func(d *Driver) {
		d.baseURL = baseURL
	}
}

// WithRecorder records pages, reports and the run summary.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// New creates a Driver with the given collaborators and options.
func New(saver PageSaver, extractor RowExtractor, writer ReportAppender, namer Namer, opts ...Option) *Driver {
	d := &Driver{
		saver:       saver,
		extractor:   extractor,
		writer:      writer,
		namer:       namer,
		clock:       time.Now,
		newRunID:    uuid.NewString,
		expirations: schedule.DefaultCount,
		archiveDir:  DefaultArchiveDir,
		reportDir:   DefaultReportDir,
		baseURL:     archive.DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// pendingPage is an archived page waiting for the report phase.
type pendingPage struct {
	// index points into RunSummary.Outcomes.
	index int
	page  model.FetchResult
}

// Run crawls symbol and returns the run summary. It never fails as a whole;
// per-expiration failures are logged and counted.
func (d *Driver) Run(ctx context.Context, symbol string) *model.RunSummary {
	now := d.clock()
	summary := model.NewRunSummary(d.newRunID(), symbol, now)
	logger := d.logger.With("run_id", summary.RunID, "symbol", symbol)

	dates := schedule.Build(now, d.expirations)
	summary.Outcomes = make([]model.Outcome, len(dates))
	for i, date := range dates {
		summary.Outcomes[i] = model.Outcome{
			Expiration: date,
			URL:        archive.OptionPageURL(d.baseURL, symbol, date.Epoch),
		}
	}

	pages := d.archivePhase(ctx, logger, summary)
	d.reportPhase(ctx, logger, summary, pages)

	if d.recorder != nil {
		if err := d.recorder.RecordRun(ctx, summary); err != nil {
			logger.Error("failed recording run", "error", err)
		}
	}

	return summary
}

// archivePhase saves one page per scheduled expiration.
func (d *Driver) archivePhase(ctx context.Context, logger *slog.Logger, summary *model.RunSummary) []pendingPage {
	logger.Info("start saving raw pages", "dir", d.archiveDir, "expirations", len(summary.Outcomes))
	start := d.clock()

	pages := make([]pendingPage, 0, len(summary.Outcomes))
	for i := range summary.Outcomes {
		outcome := &summary.Outcomes[i]
		epoch := outcome.Expiration.Epoch

		saved, err := d.saver.Save(ctx, outcome.URL, d.archiveDir, d.namer.RawPageName(summary.Symbol, epoch))
		if err != nil {
			kind := summary.AddFailure(err)
			logger.Warn("failed saving raw page", "url", outcome.URL, "kind", kind, "error", err)
			outcome.Error = err.Error()
			summary.ArchiveFailed++
			continue
		}

		page := model.FetchResult{
			ArchiveFile: saved.Path,
			Expiration:  outcome.Expiration,
			CapturedAt:  d.namer.CaptureTimestamp(),
			URL:         outcome.URL,
			Hash:        saved.Hash,
			Size:        saved.Size,
		}
		outcome.ArchiveFile = saved.Path
		summary.ArchiveSucceeded++
		pages = append(pages, pendingPage{index: i, page: page})

		if d.recorder != nil {
			if err := d.recorder.RecordPage(ctx, summary.RunID, summary.Symbol, page); err != nil {
				logger.Error("failed recording page", "file", saved.Path, "error", err)
			}
		}
	}

	summary.ArchiveElapsed = d.clock().Sub(start)
	logger.Info("finished saving raw pages",
		"saved", summary.ArchiveSucceeded,
		"failed", summary.ArchiveFailed,
		"elapsed", summary.ArchiveElapsed,
	)

	return pages
}

// reportPhase writes one report per archived page whose calls and puts
// both extract.
func (d *Driver) reportPhase(ctx context.Context, logger *slog.Logger, summary *model.RunSummary, pages []pendingPage) {
	logger.Info("start generating reports", "dir", d.reportDir, "pages", len(pages))
	start := d.clock()

	for _, p := range pages {
		outcome := &summary.Outcomes[p.index]
		page := p.page

		calls, callErr := d.extractor.Extract(page.ArchiveFile, page.Expiration.Date, page.CapturedAt, model.Call)
		puts, putErr := d.extractor.Extract(page.ArchiveFile, page.Expiration.Date, page.CapturedAt, model.Put)
		if callErr != nil || putErr != nil {
			err := callErr
			if err == nil {
				err = putErr
			}
			kind := summary.AddFailure(err)
			logger.Error("failed generating report: no call/put rows", "file", page.ArchiveFile, "kind", kind, "error", err)
			outcome.Error = err.Error()
			summary.ReportFailed++
			continue
		}

		records := make([]model.OptionRecord, 0, len(calls)+len(puts))
		records = append(records, calls...)
		records = append(records, puts...)
		rows := model.SerializeRecords(records)

		path, err := d.writer.Append(rows, d.reportDir, d.namer.ReportName(summary.Symbol, page.Expiration.Epoch))
		if err != nil {
			kind := summary.AddFailure(err)
			logger.Error("failed generating report: save failed", "file", page.ArchiveFile, "kind", kind, "error", err)
			outcome.Error = err.Error()
			summary.ReportFailed++
			continue
		}

		outcome.ReportFile = path
		outcome.CallRows = len(calls)
		outcome.PutRows = len(puts)
		summary.ReportSucceeded++
		logger.Info("generated report", "file", path, "rows", len(rows))

		if d.recorder != nil {
			if err := d.recorder.RecordReport(ctx, summary.RunID, summary.Symbol, *outcome); err != nil {
				logger.Error("failed recording report", "file", path, "error", err)
			}
		}
	}

	summary.ReportElapsed = d.clock().Sub(start)
	logger.Info("finished generating reports",
		"generated", summary.ReportSucceeded,
		"failed", summary.ReportFailed,
		"elapsed", summary.ReportElapsed,
	)
}
