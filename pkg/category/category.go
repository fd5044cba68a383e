// Package category defines the listing categories scraped from expat-dakar.com.
// Each category carries its listing index URL and the ordered set of fields
// extracted from every listing container.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned by Parse for names outside the registry.
var ErrUnknownCategory = errors.New("unknown category")

// ContainerSelector matches one listing card on an index page.
const ContainerSelector = ".listing-item"

// Category is one of the closed set of listing types.
type Category int

const (
	Vehicles Category = iota + 1
	Motorcycles
	Equipment
)

// Lookup describes how a field value is read from its element.
type Lookup int

const (
	// LookupText reads the trimmed text content.
	LookupText Lookup = iota
	// LookupAttr reads an attribute value.
	LookupAttr
	// LookupPrice reads text and strips currency markers.
	LookupPrice
	// LookupURL reads an attribute and resolves it against the page URL.
	LookupURL
)

// Field is one extracted column.
type Field struct {
	Name     string
	Selector string
	Lookup   Lookup
	Attr     string // for LookupAttr and LookupURL
}

// Field names shared across categories.
const (
	FieldState     = "state"
	FieldBrand     = "brand"
	FieldYear      = "year"
	FieldGearbox   = "gearbox"
	FieldAddress   = "address"
	FieldPrice     = "price"
	FieldImageLink = "image_link"
	FieldDetails   = "details"
)

var (
	stateField     = Field{Name: FieldState, Selector: ".listing-item-state"}
	brandField     = Field{Name: FieldBrand, Selector: ".listing-item-title"}
	yearField      = Field{Name: FieldYear, Selector: ".listing-item-year"}
	gearboxField   = Field{Name: FieldGearbox, Selector: ".listing-item-transmission"}
	addressField   = Field{Name: FieldAddress, Selector: ".listing-item-location"}
	priceField     = Field{Name: FieldPrice, Selector: ".listing-item-price", Lookup: LookupPrice}
	imageField     = Field{Name: FieldImageLink, Selector: "img", Lookup: LookupURL, Attr: "src"}
	detailsField   = Field{Name: FieldDetails, Selector: ".listing-item-details"}
	baseListingURL = "https://www.expat-dakar.com"
)

type definition struct {
	slug    string
	display string
	path    string
	fields  []Field
}

var registry = map[Category]definition{
	Vehicles: {
		slug:    "vehicles",
		display: "Voitures",
		path:    "/voitures",
		fields:  []Field{stateField, brandField, yearField, gearboxField, addressField, priceField, imageField},
	},
	Motorcycles: {
		slug:    "motorcycles",
		display: "Motos",
		path:    "/motos-scooters-velos",
		fields:  []Field{stateField, brandField, yearField, addressField, priceField, imageField},
	},
	Equipment: {
		slug:    "equipment",
		display: "Équipements et pièces",
		path:    "/equipements-pieces",
		fields:  []Field{detailsField, stateField, addressField, priceField, imageField},
	},
}

// All returns every category in registry order.
func All() []Category {
	return []Category{Vehicles, Motorcycles, Equipment}
}

// Valid reports whether c is a registered category.
func (c Category) Valid() bool {
	_, ok := registry[c]
	return ok
}

// Slug returns the filename-safe identifier.
func (c Category) Slug() string {
	return registry[c].slug
}

// DisplayName returns the site's own label for the category.
func (c Category) DisplayName() string {
	return registry[c].display
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return c.Slug()
}

// IndexURL returns the unpaginated listing index.
func (c Category) IndexURL() string {
	return baseListingURL + registry[c].path
}

// URL returns the listing index URL for a 1-based page number.
func (c Category) URL(page int) string {
	return fmt.Sprintf("%s?page=%d", c.IndexURL(), page)
}

// Fields returns a copy of the ordered field definitions.
func (c Category) Fields() []Field {
	def := registry[c]
	out := make([]Field, len(def.fields))
	copy(out, def.fields)
	return out
}

// Columns returns the field names in order, used as the CSV header.
func (c Category) Columns() []string {
	def := registry[c]
	cols := make([]string, len(def.fields))
	for i, f := range def.fields {
		cols[i] = f.Name
	}
	return cols
}

// HasField reports whether the category schema contains name.
func (c Category) HasField(name string) bool {
	for _, f := range registry[c].fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Parse resolves a slug, English name or display name to a Category.
func Parse(name string) (Category, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range All() {
		def := registry[c]
		if n == def.slug || n == strings.ToLower(def.display) {
			return c, nil
		}
	}
	switch n {
	case "vehicle", "cars", "car", "voiture":
		return Vehicles, nil
	case "motorcycle", "moto", "motos-scooters-velos":
		return Motorcycles, nil
	case "equipements", "equipements-pieces", "parts":
		return Equipment, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// FromColumns finds the category whose schema matches columns exactly.
func FromColumns(columns []string) (Category, bool) {
	for _, c := range All() {
		cols := c.Columns()
		if len(cols) != len(columns) {
			continue
		}
		match := true
		for i := range cols {
			if cols[i] != columns[i] {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return 0, false
}
