// Package pipeline drives one crawl run for a ticker symbol.
//
// A run has two sequential phases:
//   - archive: fetch the option page of every scheduled expiration and save
//     it to the archive directory
//   - report: extract call and put rows from each saved page and append them
//     to that expiration's report file
//
// Failures are isolated per expiration. A page that cannot be saved is
// skipped in the report phase; a page whose calls or puts cannot be
// extracted produces no report. Neither stops the run, and both are
// counted in the returned model.RunSummary.
//
// Collaborators are injected as interfaces so tests can substitute them.
package pipeline
