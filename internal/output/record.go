package output

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// record is one row keyed by column, serialized in column order.
type record struct {
	columns []string
	values  dataset.Row
}

func records(ds *dataset.Dataset, limit int) []record {
	rs := rows(ds, limit)
	out := make([]record, len(rs))
	for i, r := range rs {
		out[i] = record{columns: ds.Columns, values: r}
	}
	return out
}

func (r record) value(i int) dataset.Value {
	if i < len(r.values) {
		return r.values[i]
	}
	return dataset.Null
}

// MarshalJSON writes an object whose keys follow the column order. Null
// cells become JSON null.
func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.value(i).Ptr())
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds a mapping node so key order survives encoding.
func (r record) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for i, col := range r.columns {
		k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col}
		v := &yaml.Node{Kind: yaml.ScalarNode}
		if cell := r.value(i); cell.Valid {
			v.Tag, v.Value = "!!str", cell.String
		} else {
			v.Tag, v.Value = "!!null", "null"
		}
		n.Content = append(n.Content, k, v)
	}
	return n, nil
}
