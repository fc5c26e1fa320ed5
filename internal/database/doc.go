// Package database provides the SQLite run catalog for yfcrawler.
//
// The catalog records, per run:
//   - every archived option page with its digest and size
//   - every report file written and its row counts
//   - the run summary, stored as JSON for later display
//
// The archive and report files stay the source of truth; the catalog only
// indexes them. It uses modernc.org/sqlite, a CGO-free driver, so the binary
// cross-compiles without a C toolchain.
package database
