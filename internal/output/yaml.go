package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// YAMLWriter writes all rows as one YAML sequence.
type YAMLWriter struct {
	w     *bufio.Writer
	limit int
	items []record
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer, limit int) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		limit: limit,
		items: make([]record, 0),
	}
}

// Write buffers the rows of ds.
func (w *YAMLWriter) Write(ds *dataset.Dataset) error {
	w.items = append(w.items, records(ds, w.limit)...)
	return nil
}

// Flush writes the buffered rows as YAML.
func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.items); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.items = w.items[:0]
	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
