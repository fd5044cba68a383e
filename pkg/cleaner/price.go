package cleaner

import (
	"fmt"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
	"github.com/jmylchreest/expatscrape/pkg/price"
)

// PriceCleaner coerces the price column to an integer and drops every row
// whose price is missing or unparsable.
type PriceCleaner struct {
	column string
}

// NewPriceCoercion creates a cleaner for the standard price column.
func NewPriceCoercion() *PriceCleaner {
	return &PriceCleaner{column: category.FieldPrice}
}

// Clean rewrites each price cell in canonical integer form.
// Datasets without a price column pass through unchanged.
func (c *PriceCleaner) Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	idx := ds.Index(c.column)
	if idx < 0 {
		return ds.Clone(), nil
	}

	out := &dataset.Dataset{
		Category: ds.Category,
		Columns:  append([]string(nil), ds.Columns...),
		Rows:     make([]dataset.Row, 0, len(ds.Rows)),
	}
	dropped := 0
	for _, r := range ds.Rows {
		if idx >= len(r) || !r[idx].Valid {
			dropped++
			continue
		}
		n, err := price.Parse(r[idx].String)
		if err != nil {
			dropped++
			continue
		}
		row := r.Clone()
		row[idx] = dataset.Str(price.Format(n))
		out.Rows = append(out.Rows, row)
	}
	if dropped > 0 {
		logger.Debug("rows dropped for price", "dropped", dropped, "kept", len(out.Rows))
	}
	return out, nil
}

// Name returns the cleaner type.
func (c *PriceCleaner) Name() string {
	return "price"
}

// PriceOf returns the integer price of a cleaned row.
func PriceOf(ds *dataset.Dataset, r dataset.Row) (int64, error) {
	v := ds.Get(r, category.FieldPrice)
	if !v.Valid {
		return 0, fmt.Errorf("row has no price")
	}
	return price.Parse(v.String)
}
