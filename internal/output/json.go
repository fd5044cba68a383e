package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// JSONWriter writes all rows as one JSON array.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	limit  int
	items  []record
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string, limit int) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		limit:  limit,
		items:  make([]record, 0),
	}
}

// Write buffers the rows of ds.
func (w *JSONWriter) Write(ds *dataset.Dataset) error {
	w.items = append(w.items, records(ds, w.limit)...)
	return nil
}

// Flush writes the buffered rows as a JSON array.
func (w *JSONWriter) Flush() error {
	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(w.items, "", w.indent)
	} else {
		output, err = json.Marshal(w.items)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	w.items = w.items[:0]
	return w.w.Flush()
}

// Close flushes and closes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL).
type JSONLWriter struct {
	w     *bufio.Writer
	limit int
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer, limit int) *JSONLWriter {
	return &JSONLWriter{
		w:     bufio.NewWriter(w),
		limit: limit,
	}
}

// Write writes each row as a JSON line.
func (w *JSONLWriter) Write(ds *dataset.Dataset) error {
	for _, rec := range records(ds, w.limit) {
		output, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := w.w.Write(output); err != nil {
			return err
		}
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
