// Package log builds the application logger on top of the standard slog package.
//
// A yfcrawler logger fans every record out to two handlers:
//   - stderr, at Warn level or Debug level in verbose mode
//   - the per-symbol log file {SYMBOL}-crawler.log, at Info level
//
// # Usage
//
//	f, err := log.OpenLogFile("logs", "AAPL")
//	logger := log.New(log.Options{Stderr: os.Stderr, File: f, Verbose: verbose})
//	slog.SetDefault(logger)
//
// The log file rolls over when the US Eastern date changes; the previous
// day's records move to a timestamped file beside it.
//
// The log directory is never created. When OpenLogFile fails, callers pass a
// nil File and the logger writes to stderr only.
package log
