package category

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"vehicles", Vehicles},
		{"Voitures", Vehicles},
		{"  MOTOS ", Motorcycles},
		{"motorcycles", Motorcycles},
		{"Équipements et pièces", Equipment},
		{"equipment", Equipment},
		{"parts", Equipment},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("boats")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestURL(t *testing.T) {
	got := Motorcycles.URL(3)
	want := "https://www.expat-dakar.com/motos-scooters-velos?page=3"
	if got != want {
		t.Errorf("URL(3) = %q, want %q", got, want)
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		cat  Category
		want []string
	}{
		{Vehicles, []string{"state", "brand", "year", "gearbox", "address", "price", "image_link"}},
		{Motorcycles, []string{"state", "brand", "year", "address", "price", "image_link"}},
		{Equipment, []string{"details", "state", "address", "price", "image_link"}},
	}

	for _, tt := range tests {
		t.Run(tt.cat.Slug(), func(t *testing.T) {
			got := tt.cat.Columns()
			if len(got) != len(tt.want) {
				t.Fatalf("Columns() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Columns()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if !tt.cat.HasField(FieldPrice) {
				t.Error("every category should carry a price field")
			}
		})
	}
}

func TestFields_ReturnsCopy(t *testing.T) {
	f := Vehicles.Fields()
	f[0].Selector = "mutated"
	if Vehicles.Fields()[0].Selector == "mutated" {
		t.Error("Fields() should not expose the registry slice")
	}
}

func TestFromColumns(t *testing.T) {
	c, ok := FromColumns(Equipment.Columns())
	if !ok || c != Equipment {
		t.Errorf("FromColumns() = %v, %v; want equipment", c, ok)
	}

	if _, ok := FromColumns([]string{"state", "price"}); ok {
		t.Error("FromColumns() should not match a partial header")
	}
}

func TestString_Invalid(t *testing.T) {
	if got := Category(42).String(); got != "Category(42)" {
		t.Errorf("String() = %q", got)
	}
	if Category(0).Valid() {
		t.Error("zero Category should be invalid")
	}
}
