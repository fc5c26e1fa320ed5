package report

import (
	"encoding/json"
	"io"

	"github.com/d2vlab/yfcrawler/internal/model"
)

// JSONWriter outputs run summaries as indented JSON.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary followed by a newline.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
