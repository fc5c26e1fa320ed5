package report

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// MarkdownWriter outputs run summaries as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writePhases(md, summary)
	w.writeExpirations(md, summary)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Run %s*", summary.RunID)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and run properties.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Option crawl: " + summary.Symbol)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Symbol", "`" + summary.Symbol + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Expirations", strconv.Itoa(len(summary.Outcomes))},
			{"Rows written", strconv.Itoa(summary.TotalRows())},
			{"Elapsed", summary.Elapsed().Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	switch {
	case len(summary.Outcomes) > 0 && summary.ReportSucceeded == 0:
		md.Cautionf("No report was generated for %s.", summary.Symbol)
	case summary.ArchiveFailed > 0 || summary.ReportFailed > 0:
		md.Warningf("%d page(s) failed to archive and %d report(s) failed.",
			summary.ArchiveFailed, summary.ReportFailed)
	default:
		md.Tip("Every scheduled expiration was archived and reported.")
	}
	md.PlainText("")
}

// writePhases writes per-phase counts and an outcome chart.
func (w *MarkdownWriter) writePhases(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Phases")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Phase", "Succeeded", "Failed", "Elapsed"},
		Rows: [][]string{
			{
				"Archive",
				strconv.Itoa(summary.ArchiveSucceeded),
				strconv.Itoa(summary.ArchiveFailed),
				summary.ArchiveElapsed.Round(time.Millisecond).String(),
			},
			{
				"Report",
				strconv.Itoa(summary.ReportSucceeded),
				strconv.Itoa(summary.ReportFailed),
				summary.ReportElapsed.Round(time.Millisecond).String(),
			},
		},
	})
	md.PlainText("")

	if len(summary.Failures) > 0 {
		w.writeFailures(md, summary)
	}

	if len(summary.Outcomes) > 0 {
		w.writePieChart(md, summary)
	}
}

// writeFailures writes failure counts by kind, sorted by kind name.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.RunSummary) {
	kinds := make([]string, 0, len(summary.Failures))
	for kind := range summary.Failures {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	rows := make([][]string, len(kinds))
	for i, kind := range kinds {
		rows[i] = []string{"`" + kind + "`", strconv.Itoa(summary.Failures[kind])}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Failure kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of expiration outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Expiration Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.ReportSucceeded > 0 {
		chart.LabelAndIntValue("Reported", uint64(summary.ReportSucceeded))
	}
	if summary.ReportFailed > 0 {
		chart.LabelAndIntValue("Report failed", uint64(summary.ReportFailed))
	}
	if summary.ArchiveFailed > 0 {
		chart.LabelAndIntValue("Archive failed", uint64(summary.ArchiveFailed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeExpirations writes one table row per scheduled expiration.
func (w *MarkdownWriter) writeExpirations(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Expirations")
	md.PlainText("")

	if len(summary.Outcomes) == 0 {
		md.PlainText("No expirations were scheduled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		rows[i] = []string{
			o.Expiration.Date,
			o.Expiration.Epoch,
			outcomeStatus(o),
			strconv.Itoa(o.CallRows),
			strconv.Itoa(o.PutRows),
			dash(o.ReportFile),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Expiration", "Epoch", "Status", "Calls", "Puts", "Report"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Report rows hold %d `|`-separated fields: %s.",
		model.RecordFieldCount, strings.Join(model.ColumnNames[:], ", "))
	md.PlainText("")

	for _, o := range summary.Outcomes {
		if o.Error != "" {
			md.Details(o.Expiration.Date, o.Error)
		}
	}
	md.PlainText("")
}

// outcomeStatus returns the status label of one expiration.
func outcomeStatus(o model.Outcome) string {
	switch {
	case o.Reported():
		return "✅ reported"
	case o.Archived():
		return "⚠️ report failed"
	default:
		return "❌ archive failed"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
