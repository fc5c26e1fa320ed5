// Package report writes crawl output.
//
// This package contains:
//   - FileWriter: Appends pipe-delimited option rows to per-expiration report files
//   - MarkdownWriter: Human-readable summary of one run
//   - JSONWriter: Machine-readable summary of one run
//
// Summary writers implement the SummaryWriter interface so the CLI can pick a
// format without knowing the concrete type.
package report
