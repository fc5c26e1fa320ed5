package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/d2vlab/yfcrawler/internal/archive"
	"github.com/d2vlab/yfcrawler/internal/model"
)

// DefaultDir holds the per-symbol log files.
const DefaultDir = "logs"

// FileSuffix is appended to the symbol to name its log file.
const FileSuffix = "-crawler.log"

// Options configures New.
type Options struct {
	// Stderr receives Warn and above, or Debug and above when Verbose is set.
	// Nil disables console output.
	Stderr io.Writer

	// File receives Info and above. Nil disables file output.
	File io.Writer

	// Verbose lowers the console level to Debug.
	Verbose bool
}

// New creates a logger that fans out to the console and the log file.
func New(opts Options) *slog.Logger {
	consoleLevel := slog.LevelWarn
	if opts.Verbose {
		consoleLevel = slog.LevelDebug
	}

	var console, file slog.Handler
	if opts.Stderr != nil {
		console = slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: consoleLevel})
	}
	if opts.File != nil {
		file = slog.NewTextHandler(opts.File, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(NewFanoutHandler(console, file))
}

// FileName returns the log file name of a symbol.
func FileName(symbol string) string {
	return symbol + FileSuffix
}

// OpenLogFile opens dir/{SYMBOL}-crawler.log for appending, creating the file
// but never the directory. The file rolls over daily in US Eastern time.
func OpenLogFile(dir, symbol string) (*DailyFile, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, model.NewFailure(model.FailureFilesystem, "open log", dir, model.ErrNoSuchDirectory)
	}

	loc, err := time.LoadLocation(archive.EasternZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", archive.EasternZone, err)
	}

	path := filepath.Join(dir, FileName(symbol))
	f, err := openDailyFile(path, time.Now, loc)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", model.NewFailure(model.FailureFilesystem, "open log", path, err))
	}
	return f, nil
}
