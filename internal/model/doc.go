// Package model defines the data structures shared by the crawler stages.
//
// This package contains the following main types:
//   - ExpirationDate: A scheduled Friday expiration and its epoch identifier
//   - FetchResult: An archived option page ready to be parsed
//   - OptionRecord: One option contract row in fixed report order
//   - RunSummary: Counts and per-expiration outcomes of one pipeline run
//   - Failure: A classified failure from any stage
//
// Models live in their own package so that crawler, report, database and
// pipeline can share them without import cycles.
package model
