package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/d2vlab/yfcrawler/internal/archive"
	"github.com/d2vlab/yfcrawler/internal/crawler"
	applog "github.com/d2vlab/yfcrawler/internal/log"
	"github.com/d2vlab/yfcrawler/internal/pipeline"
	"github.com/d2vlab/yfcrawler/internal/schedule"
)

// Default configuration values. Each one is owned by the package that uses it.
const (
	// DefaultArchiveDir receives raw option pages.
	DefaultArchiveDir = pipeline.DefaultArchiveDir

	// DefaultReportDir receives pipe-delimited report files.
	DefaultReportDir = pipeline.DefaultReportDir

	// DefaultLogDir receives the per-symbol log file.
	DefaultLogDir = applog.DefaultDir

	// DefaultExpirations is the number of weekly Friday expirations crawled per run.
	DefaultExpirations = schedule.DefaultCount

	// DefaultBaseURL is the origin of the option pages.
	DefaultBaseURL = archive.DefaultBaseURL

	// DefaultUserAgent is sent with every page request.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultPriceSelector locates the underlying price on an option page.
	DefaultPriceSelector = crawler.DefaultPriceSelector

	// AppName is the application name used for XDG directory paths.
	AppName = "yfcrawler"
)

// validProxySchemes lists the proxy URL schemes net/http can dial.
var validProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// Config holds all configuration options for yfcrawler.
// It is populated from defaults, the optional YAML file and CLI flags, in that
// order, and passed through the application rather than kept in global state.
type Config struct {
	// Symbol is the upper-cased ticker symbol to crawl.
	Symbol string

	// ArchiveDir is the existing directory raw pages are saved into.
	ArchiveDir string

	// ReportDir is the existing directory report files are appended to.
	ReportDir string

	// LogDir holds {SYMBOL}-crawler.log. When it does not exist, logs go to
	// stderr only.
	LogDir string

	// Expirations is the number of upcoming Friday expirations to crawl.
	Expirations int

	// BaseURL is the scheme and host the option page URLs are built on.
	BaseURL string

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// Timeout bounds each page request. Zero means no timeout.
	Timeout time.Duration

	// PriceSelector is the CSS selector of the underlying price element.
	PriceSelector string

	// Proxy routes page requests through an HTTP or SOCKS5 proxy,
	// e.g. "socks5://127.0.0.1:9050". Empty means a direct connection.
	Proxy string

	// Verbose enables debug output on stderr.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .yfcrawler is searched in the current directory, the home
	// directory and the XDG config directory.
	ConfigFilePath string

	// SaveToCatalog records pages, reports and the run in the SQLite catalog.
	SaveToCatalog bool

	// CatalogDir is the directory of the SQLite catalog.
	// Defaults to the XDG data directory (~/.local/share/yfcrawler on Linux).
	CatalogDir string

	// SummaryFile is the output path of the run summary. Empty disables it.
	// A .json extension selects JSON, anything else Markdown.
	SummaryFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ArchiveDir:    DefaultArchiveDir,
		ReportDir:     DefaultReportDir,
		LogDir:        DefaultLogDir,
		Expirations:   DefaultExpirations,
		BaseURL:       DefaultBaseURL,
		UserAgent:     DefaultUserAgent,
		PriceSelector: DefaultPriceSelector,
		CatalogDir:    XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for yfcrawler.
// On Linux: ~/.local/share/yfcrawler
// On macOS: ~/Library/Application Support/yfcrawler
// On Windows: %LOCALAPPDATA%\yfcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for yfcrawler.
// On Linux: ~/.config/yfcrawler
// On macOS: ~/Library/Application Support/yfcrawler
// On Windows: %APPDATA%\yfcrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return ErrNoSymbol
	}

	if c.Expirations <= 0 {
		return ErrInvalidExpirationCount
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.ArchiveDir == "" || c.ReportDir == "" || c.LogDir == "" {
		return ErrEmptyDirectory
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Proxy != "" {
		p, err := url.Parse(c.Proxy)
		if err != nil || p.Host == "" || !validProxySchemes[p.Scheme] {
			return ErrInvalidProxyURL
		}
	}

	return nil
}
