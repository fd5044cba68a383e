// Package output renders datasets in the formats offered by the CLI.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// Format represents output format types.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatJSONL, FormatYAML}
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs the rows of ds. Formats that emit a single document
	// buffer until Flush.
	Write(ds *dataset.Dataset) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
	limit  int
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithLimit caps the number of rows written per dataset. Zero means no limit.
func WithLimit(n int) WriterOption {
	return func(c *writerConfig) {
		c.limit = n
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatCSV:
		return NewCSVWriter(w, cfg.limit), nil
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent, cfg.limit), nil
	case FormatJSONL:
		return NewJSONLWriter(w, cfg.limit), nil
	case FormatYAML:
		return NewYAMLWriter(w, cfg.limit), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// rows returns ds.Rows truncated to limit.
func rows(ds *dataset.Dataset, limit int) []dataset.Row {
	if limit > 0 && limit < len(ds.Rows) {
		return ds.Rows[:limit]
	}
	return ds.Rows
}
