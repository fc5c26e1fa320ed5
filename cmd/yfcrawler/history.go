package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d2vlab/yfcrawler/internal/config"
	"github.com/d2vlab/yfcrawler/internal/database"
	"github.com/d2vlab/yfcrawler/internal/report"
)

// NewHistoryCmd creates the history command.
// It reads runs recorded with --catalog.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "List crawl runs recorded in the catalog",
		Long: `History lists the runs of a symbol recorded in the SQLite catalog,
newest first. Runs are recorded when crawling with --catalog.

Examples:
  # List recorded runs of AAPL
  yfcrawler history AAPL

  # Show the full summary of one run as Markdown
  yfcrawler history --run 6f1c0e9a-... AAPL

  # Show the full summary of one run as JSON
  yfcrawler history --run 6f1c0e9a-... --json AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("catalog-dir", config.XDGDataDir(),
		"Directory of the SQLite catalog")
	cmd.Flags().StringP("run", "r", "",
		"Show the summary of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run summary in JSON format (with --run)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	symbol := normalizeSymbol(args[0])

	catalogDir, err := cmd.Flags().GetString("catalog-dir")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	catalog, err := database.Open(catalogDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer catalog.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if runID != "" {
		summary, err := catalog.GetRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to get run %s: %w", runID, err)
		}
		if summary.Symbol != symbol {
			return fmt.Errorf("run %s was recorded for %s, not %s", runID, summary.Symbol, symbol)
		}

		if jsonOutput {
			_, err = report.NewJSONWriter(out).Write(summary)
			return err
		}
		if _, err := report.NewMarkdownWriter(out).Write(summary); err != nil {
			return err
		}
		return writeArchivedPages(ctx, out, catalog, runID)
	}

	runs, err := catalog.ListRuns(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s\n", symbol)
		fmt.Fprintln(out, "\nUse 'yfcrawler --catalog "+symbol+"' to record runs.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", symbol, len(runs))
	fmt.Fprintf(out, "  %-36s  %-20s  %-9s  %s\n", "Run ID", "Started (UTC)", "Archived", "Reported")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-20s  %-9s  %s\n",
			r.RunID,
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", r.ArchiveSucceeded, r.ArchiveSucceeded+r.ArchiveFailed),
			fmt.Sprintf("%d/%d", r.ReportSucceeded, r.ReportSucceeded+r.ReportFailed),
		)
	}

	fmt.Fprintln(out, "\nUse 'yfcrawler history --run <id> "+symbol+"' to show a run summary.")

	return nil
}

// writeArchivedPages lists the pages a run archived with their digests.
func writeArchivedPages(ctx context.Context, out io.Writer, catalog *database.Catalog, runID string) error {
	pages, err := catalog.ListPages(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to list pages of run %s: %w", runID, err)
	}
	if len(pages) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nArchived pages (%d):\n\n", len(pages))
	for _, p := range pages {
		fmt.Fprintf(out, "  %s  %s  %d bytes  sha3-256 %s\n", p.ExpirationEpoch, p.ArchiveFile, p.Size, p.RawHash)
	}
	return nil
}
