package report

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// FileWriter appends serialized option rows to report files.
//
// Each Append issues a single write of the complete buffered row set to a
// file opened in append mode. Rows from separate calls are never merged or
// deduplicated.
type FileWriter struct {
	logger *slog.Logger
}

// NewFileWriter creates a FileWriter. A nil logger uses slog.Default().
func NewFileWriter(logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{logger: logger}
}

// Append writes rows, one per line, to dir/name and returns the file path.
// dir must already exist; otherwise nothing is created.
func (w *FileWriter) Append(rows []string, dir, name string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		failure := model.NewFailure(model.FailureFilesystem, "append", dir, model.ErrNoSuchDirectory)
		w.logger.Error("report directory does not exist", "kind", failure.Kind.String(), "dir", dir)
		return "", failure
	}

	var buf bytes.Buffer
	for _, row := range rows {
		buf.WriteString(row)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := appendFile(path, buf.Bytes()); err != nil {
		failure := model.NewFailure(model.FailureFilesystem, "append", path, err)
		w.logger.Error("failed writing to the file", "kind", failure.Kind.String(), "file", path, "error", err)
		return "", failure
	}

	return path, nil
}

// appendFile opens path for appending, creating it if needed, and writes data.
func appendFile(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // reports are shared data files
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	n, err := f.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	return err
}

// SummaryWriter outputs a run summary in one format.
type SummaryWriter interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *model.RunSummary) (int, error)
}

// baseWriter provides the output destination shared by summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
