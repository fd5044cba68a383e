// Package extractor turns listing containers into dataset rows.
//
// Every category has its own extractor built from the category field table.
// Field lookups are independent: a missing element or a failing lookup nulls
// that one field and the rest of the row is still produced.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
	"github.com/jmylchreest/expatscrape/pkg/fetcher"
	"github.com/jmylchreest/expatscrape/pkg/price"
)

// ErrInvalidContainer is returned when no row can be built from a container.
var ErrInvalidContainer = errors.New("invalid listing container")

// Extractor builds one row from one container.
type Extractor interface {
	Category() category.Category
	Extract(c fetcher.Container) (dataset.Row, error)
}

// For returns the extractor for cat.
func For(cat category.Category) (Extractor, error) {
	switch cat {
	case category.Vehicles:
		return NewVehicles(), nil
	case category.Motorcycles:
		return NewMotorcycles(), nil
	case category.Equipment:
		return NewEquipment(), nil
	default:
		return nil, fmt.Errorf("%w: %v", category.ErrUnknownCategory, cat)
	}
}

// Vehicles extracts car listings.
type Vehicles struct{ table }

// NewVehicles creates the car extractor.
func NewVehicles() *Vehicles { return &Vehicles{newTable(category.Vehicles)} }

// Motorcycles extracts motorbike, scooter and bicycle listings.
type Motorcycles struct{ table }

// NewMotorcycles creates the motorcycle extractor.
func NewMotorcycles() *Motorcycles { return &Motorcycles{newTable(category.Motorcycles)} }

// Equipment extracts equipment and parts listings.
type Equipment struct{ table }

// NewEquipment creates the equipment extractor.
func NewEquipment() *Equipment { return &Equipment{newTable(category.Equipment)} }

// table is the field-driven extraction shared by the category extractors.
type table struct {
	cat    category.Category
	fields []category.Field
}

func newTable(cat category.Category) table {
	return table{cat: cat, fields: cat.Fields()}
}

func (t table) Category() category.Category {
	return t.cat
}

// Extract reads every field of the category from c.
func (t table) Extract(c fetcher.Container) (dataset.Row, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: container %d is empty", ErrInvalidContainer, c.Index)
	}

	row := make(dataset.Row, len(t.fields))
	var errs []error
	for i, f := range t.fields {
		v, err := lookup(c, f)
		if err != nil {
			logger.Debug("field lookup failed",
				"category", t.cat,
				"container", c.Index,
				"field", f.Name,
				"error", err)
			errs = append(errs, err)
			row[i] = dataset.Null
			continue
		}
		row[i] = v
	}

	if len(errs) == len(t.fields) {
		return nil, fmt.Errorf("%w: container %d: %w", ErrInvalidContainer, c.Index, errors.Join(errs...))
	}
	return row, nil
}

// lookup reads one field. A panic inside the DOM access is converted into an
// error for this field only.
func lookup(c fetcher.Container, f category.Field) (v dataset.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = dataset.Null
			err = fmt.Errorf("field %s: %v", f.Name, r)
		}
	}()

	el := c.Selection().Find(f.Selector).First()
	if el.Length() == 0 {
		return dataset.Null, nil
	}

	var s string
	switch f.Lookup {
	case category.LookupText:
		s = collapse(el.Text())
	case category.LookupPrice:
		s = collapse(price.Strip(el.Text()))
	case category.LookupAttr:
		s = attr(el, f.Attr)
	case category.LookupURL:
		s = c.ResolveURL(attr(el, f.Attr))
	default:
		return dataset.Null, fmt.Errorf("field %s: unknown lookup %d", f.Name, f.Lookup)
	}

	if s == "" {
		return dataset.Null, nil
	}
	return dataset.Str(s), nil
}

// attr reads name, falling back to the lazy-loading data- variant.
func attr(el *goquery.Selection, name string) string {
	if v := strings.TrimSpace(el.AttrOr(name, "")); v != "" {
		return v
	}
	return strings.TrimSpace(el.AttrOr("data-"+name, ""))
}

// collapse trims s and folds inner whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
