package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/d2vlab/yfcrawler/internal/archive"
	"github.com/d2vlab/yfcrawler/internal/config"
	"github.com/d2vlab/yfcrawler/internal/crawler"
	"github.com/d2vlab/yfcrawler/internal/database"
	applog "github.com/d2vlab/yfcrawler/internal/log"
	"github.com/d2vlab/yfcrawler/internal/model"
	"github.com/d2vlab/yfcrawler/internal/pipeline"
	"github.com/d2vlab/yfcrawler/internal/report"
)

// runCrawlCmd executes a crawl for the symbol argument.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog := setupLogger(cmd.ErrOrStderr(), cfg)
	defer closeLog()
	slog.SetDefault(logger)

	summary, err := runCrawl(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: archived %d/%d pages, generated %d reports (%d rows)\n",
		summary.Symbol,
		summary.ArchiveSucceeded,
		len(summary.Outcomes),
		summary.ReportSucceeded,
		summary.TotalRows(),
	)
	return nil
}

// normalizeSymbol trims and upper-cases a ticker symbol.
func normalizeSymbol(s string) string {
	return cases.Upper(language.English).String(strings.TrimSpace(s))
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the config file and cobra flags,
// with flags taking precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	if len(args) > 0 {
		cfg.Symbol = normalizeSymbol(args[0])
	}
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; a missing default one is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("config file not found: %s", cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	if flags.Changed("archive-dir") {
		if cfg.ArchiveDir, err = flags.GetString("archive-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("report-dir") {
		if cfg.ReportDir, err = flags.GetString("report-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-dir") {
		if cfg.LogDir, err = flags.GetString("log-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("expirations") {
		if cfg.Expirations, err = flags.GetInt("expirations"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("catalog") {
		if cfg.SaveToCatalog, err = flags.GetBool("catalog"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("catalog-dir") {
		if cfg.CatalogDir, err = flags.GetString("catalog-dir"); err != nil {
			return nil, err
		}
	}

	cfg.SummaryFile, err = flags.GetString("summary")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates the application logger. When the log directory does
// not exist, it logs to stderr only and warns about it. The returned
// function closes the log file.
func setupLogger(stderr io.Writer, cfg *config.Config) (*slog.Logger, func()) {
	f, err := applog.OpenLogFile(cfg.LogDir, cfg.Symbol)
	if err != nil {
		logger := applog.New(applog.Options{Stderr: stderr, Verbose: cfg.Verbose})
		logger.Warn("log file unavailable, logging to stderr only", "dir", cfg.LogDir, "error", err)
		return logger, func() {}
	}

	logger := applog.New(applog.Options{Stderr: stderr, File: f, Verbose: cfg.Verbose})
	return logger, func() { _ = f.Close() }
}

// runCrawl wires the crawl components from cfg and runs one crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.RunSummary, error) {
	namer, err := archive.NewNamer()
	if err != nil {
		return nil, err
	}

	fetcher := crawler.NewFetcher(
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithProxy(cfg.Proxy),
		crawler.WithLogger(logger),
	)
	extractor := crawler.NewExtractor(
		crawler.WithPriceSelector(cfg.PriceSelector),
		crawler.WithExtractorLogger(logger),
	)
	writer := report.NewFileWriter(logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithExpirations(cfg.Expirations),
		pipeline.WithArchiveDir(cfg.ArchiveDir),
		pipeline.WithReportDir(cfg.ReportDir),
		pipeline.WithBaseURL(cfg.BaseURL),
	}

	if cfg.SaveToCatalog {
		catalog, err := database.Open(cfg.CatalogDir, database.DefaultOptions())
		if err != nil {
			logger.Error("failed to open catalog, continuing without it", "dir", cfg.CatalogDir, "error", err)
		} else {
			defer catalog.Close()
			logger.Info("catalog opened", "path", catalog.Path())
			opts = append(opts, pipeline.WithRecorder(catalog))
		}
	}

	logger.Info("crawler starting",
		"symbol", cfg.Symbol,
		"expirations", cfg.Expirations,
		"archive_dir", cfg.ArchiveDir,
		"report_dir", cfg.ReportDir,
	)

	summary := pipeline.New(fetcher, extractor, writer, namer, opts...).Run(ctx, cfg.Symbol)

	if cfg.SummaryFile != "" {
		if err := writeSummary(cfg.SummaryFile, summary); err != nil {
			logger.Error("failed writing run summary", "file", cfg.SummaryFile, "error", err)
		}
	}

	return summary, nil
}

// writeSummary writes the run summary to path, creating parent directories.
func writeSummary(path string, summary *model.RunSummary) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided summary path is intentional
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	var w report.SummaryWriter = report.NewMarkdownWriter(f)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		w = report.NewJSONWriter(f)
	}

	_, err = w.Write(summary)
	return err
}
