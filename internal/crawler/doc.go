// Package crawler retrieves option chain pages and extracts contract rows
// from archived copies.
//
// # Components
//
//   - Fetcher: Single-attempt page retrieval that persists the body to the archive
//   - Extractor: Table parser that turns one archived page into option records
//
// # Failure handling
//
// Neither component stops a run. Every failure is logged with its
// classification (see model.FailureKind) and returned as a *model.Failure so
// the caller can count it and move on to the next page.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(crawler.WithLogger(logger))
//	saved, err := fetcher.Save(ctx, url, "archive", name)
//
//	extractor := crawler.NewExtractor(crawler.WithExtractorLogger(logger))
//	calls, err := extractor.Extract(saved.Path, "2017-01-06 UTC", capturedAt, model.Call)
//
// # Row enumeration
//
// Rows are located by their ordinal class (data-row0, data-row1, ...) and the
// scan stops at the first missing index. A gap in the numbering therefore
// hides every later row. The data site numbers rows contiguously; a full
// table scan would change the output for pages that do not.
package crawler
