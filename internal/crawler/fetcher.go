package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// DefaultUserAgent is sent with every page request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// Fetcher retrieves remote pages and saves them to local files.
// Each page gets exactly one attempt.
type Fetcher struct {
	// client performs the HTTP requests.
	client *resty.Client

	// logger receives one record per failure.
	logger *slog.Logger
}

// SavedPage describes a page written to disk by Save.
type SavedPage struct {
	// Path is the written file, dir joined with name.
	Path string

	// Size is the number of bytes written.
	Size int64

	// Hash is the hex SHA3-256 digest of the written bytes.
	Hash string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	proxyURL   string
	logger     *slog.Logger
}

// WithHTTPClient sets the underlying HTTP client, e.g. an httptest client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.httpClient = c
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.userAgent = ua
	}
}

// WithTimeout bounds each request. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.timeout = d
	}
}

// WithProxy routes requests through an HTTP or SOCKS5 proxy,
// e.g. "socks5://127.0.0.1:9050". An empty URL disables it.
func WithProxy(proxyURL string) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.proxyURL = proxyURL
	}
}

// WithLogger sets the logger used for failure reports.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.logger = logger
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	cfg := &fetcherConfig{
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	var client *resty.Client
	if cfg.httpClient != nil {
		client = resty.NewWithClient(cfg.httpClient)
	} else {
		client = resty.New()
	}
	client.SetHeader("User-Agent", cfg.userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.5")
	client.SetLogger(restyLogger{logger: cfg.logger})
	if cfg.timeout > 0 {
		client.SetTimeout(cfg.timeout)
	}
	if cfg.proxyURL != "" {
		client.SetProxy(cfg.proxyURL)
	}

	return &Fetcher{
		client: client,
		logger: cfg.logger,
	}
}

// Fetch performs a single GET and returns the response body.
// Unreachable servers yield a transport failure and error statuses a
// protocol failure.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	f.logger.Info("downloading", "url", pageURL)

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		failure := model.NewFailure(model.FailureTransport, "fetch", pageURL, err)
		f.report(failure, "failed to reach server")
		return nil, failure
	}

	if resp.IsError() {
		failure := model.NewFailure(model.FailureProtocol, "fetch", pageURL, nil)
		failure.StatusCode = resp.StatusCode()
		f.report(failure, "server could not fulfill the request")
		return nil, failure
	}

	return resp.Body(), nil
}

// Save fetches pageURL and writes the body to dir/name, replacing any
// existing file. If dir is not an existing directory it fails before any
// network access.
func (f *Fetcher) Save(ctx context.Context, pageURL, dir, name string) (*SavedPage, error) {
	if !isDir(dir) {
		failure := model.NewFailure(model.FailureFilesystem, "save", dir, model.ErrNoSuchDirectory)
		f.report(failure, "archive directory does not exist")
		return nil, failure
	}

	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil { //nolint:gosec // archived pages are not sensitive
		failure := model.NewFailure(model.FailureFilesystem, "save", path, err)
		f.report(failure, "failed writing to the file")
		return nil, failure
	}

	return &SavedPage{
		Path: path,
		Size: int64(len(body)),
		Hash: model.ComputeHash(body),
	}, nil
}

// report logs a classified failure.
func (f *Fetcher) report(failure *model.Failure, msg string) {
	attrs := []any{
		"kind", failure.Kind.String(),
		"op", failure.Op,
		"target", failure.Target,
	}
	if failure.StatusCode != 0 {
		attrs = append(attrs, "status", failure.StatusCode)
	}
	if failure.Err != nil {
		attrs = append(attrs, "error", failure.Err)
	}
	f.logger.Error(msg, attrs...)
}

// isDir reports whether path is an existing directory.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// restyLogger routes resty's internal messages to slog at debug level.
// Failures are reported by Fetcher itself with their classification.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
