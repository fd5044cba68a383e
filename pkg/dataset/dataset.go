// Package dataset holds the tabular rows produced by a scrape run.
package dataset

import (
	"strings"

	"github.com/jmylchreest/expatscrape/pkg/category"
)

// Value is a nullable string cell.
type Value struct {
	String string
	Valid  bool
}

// Null is the missing value.
var Null = Value{}

// Str returns a present value.
func Str(s string) Value {
	return Value{String: s, Valid: true}
}

// Ptr returns nil for a null value.
func (v Value) Ptr() *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// Row is one extracted listing, aligned with Dataset.Columns.
type Row []Value

// Key returns a string that is equal for two rows iff every cell is equal.
// Null and empty string are distinct.
func (r Row) Key() string {
	var sb strings.Builder
	for _, v := range r {
		if v.Valid {
			sb.WriteByte('s')
			sb.WriteString(v.String)
		} else {
			sb.WriteByte('n')
		}
		sb.WriteByte(0x1f)
	}
	return sb.String()
}

// Clone returns a copy that shares no backing array with r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Dataset is an ordered sequence of rows for one category.
type Dataset struct {
	Category category.Category
	Columns  []string
	Rows     []Row
}

// New creates an empty dataset with the category's columns.
func New(c category.Category) *Dataset {
	return &Dataset{
		Category: c,
		Columns:  c.Columns(),
		Rows:     make([]Row, 0),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Append adds a row.
func (d *Dataset) Append(r Row) {
	d.Rows = append(d.Rows, r)
}

// Index returns the column position of name, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the cell for column name, or Null if absent.
func (d *Dataset) Get(r Row, name string) Value {
	i := d.Index(name)
	if i < 0 || i >= len(r) {
		return Null
	}
	return r[i]
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Category: d.Category,
		Columns:  append([]string(nil), d.Columns...),
		Rows:     make([]Row, len(d.Rows)),
	}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Records maps each row to column name -> value (nil for null).
func (d *Dataset) Records() []map[string]*string {
	out := make([]map[string]*string, len(d.Rows))
	for i, r := range d.Rows {
		rec := make(map[string]*string, len(d.Columns))
		for j, col := range d.Columns {
			if j < len(r) {
				rec[col] = r[j].Ptr()
			} else {
				rec[col] = nil
			}
		}
		out[i] = rec
	}
	return out
}
