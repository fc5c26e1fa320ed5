package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d2vlab/yfcrawler/internal/config"
)

// NewRootCmd creates the root command for yfcrawler.
// Given a symbol, the root command runs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yfcrawler SYMBOL",
		Short: "Archive option chain pages and extract option reports",
		Long: `yfcrawler fetches the option chain page of a ticker symbol for each of the
next weekly Friday expirations, saves the raw pages to the archive directory,
and appends every call and put contract to a pipe-delimited report file per
expiration.

The archive and report directories must already exist. The log file
{SYMBOL}-crawler.log is written to the log directory when it exists.

Examples:
  # Crawl the next 8 expirations of AAPL
  yfcrawler AAPL

  # Crawl 4 expirations and write a Markdown run summary
  yfcrawler -n 4 --summary runs/aapl.md AAPL

  # Record the run in the SQLite catalog
  yfcrawler --catalog AAPL

Configuration file (.yfcrawler) example:
  defaults:
    expirations: 8
    timeout: 30s
  symbols:
    SPY:
      expirations: 12`,
		Version:       getVersion(),
		Args:          cobra.ExactArgs(1),
		RunE:          runCrawlCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .yfcrawler in current or home directory)")
	cmd.Flags().String("archive-dir", config.DefaultArchiveDir,
		"Existing directory raw option pages are saved into")
	cmd.Flags().String("report-dir", config.DefaultReportDir,
		"Existing directory report files are appended to")
	cmd.Flags().String("log-dir", config.DefaultLogDir,
		"Directory of the {SYMBOL}-crawler.log file")
	cmd.Flags().IntP("expirations", "n", config.DefaultExpirations,
		"Number of weekly expirations to crawl")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Timeout for each page request (0 disables it)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Origin the option page URLs are built on")
	cmd.Flags().String("proxy", "",
		"Route page requests through an HTTP or SOCKS5 proxy (e.g. socks5://127.0.0.1:9050)")
	cmd.Flags().Bool("catalog", false,
		"Record pages, reports and the run in the SQLite catalog")
	cmd.Flags().String("catalog-dir", config.XDGDataDir(),
		"Directory of the SQLite catalog")
	cmd.Flags().String("summary", "",
		"Write a run summary to this path (.json for JSON, Markdown otherwise)")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
