package output

import (
	"encoding/csv"
	"io"

	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// CSVWriter writes a header row followed by one line per row. Null cells
// are written empty.
type CSVWriter struct {
	w           *csv.Writer
	limit       int
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer, limit int) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), limit: limit}
}

// Write writes the header on first use, then the rows.
func (w *CSVWriter) Write(ds *dataset.Dataset) error {
	if !w.wroteHeader {
		if err := w.w.Write(ds.Columns); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	rec := make([]string, len(ds.Columns))
	for _, r := range rows(ds, w.limit) {
		for i := range rec {
			rec[i] = ""
			if i < len(r) && r[i].Valid {
				rec[i] = r[i].String
			}
		}
		if err := w.w.Write(rec); err != nil {
			return err
		}
	}
	w.w.Flush()
	return w.w.Error()
}

// Flush flushes the buffer.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
