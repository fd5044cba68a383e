package price

import (
	"errors"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"narrow_nbsp_and_suffix", "1\u202f234\u202f567 F Cfa", "1234567"},
		{"fcfa_upper", "  850 000 FCFA ", "850 000"},
		{"no_suffix", "1 500 000", "1 500 000"},
		{"text_only", "Prix sur demande", "Prix sur demande"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"scenario_narrow_spaces", "1\u202f234\u202f567 F Cfa", 1234567},
		{"stripped", "1234567", 1234567},
		{"regular_spaces", "2 500 000", 2500000},
		{"nbsp", "2\u00a0500\u00a0000 FCFA", 2500000},
		{"commas", "3,000,000", 3000000},
		{"dots", "12.500.000 CFA", 12500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "Prix sur demande", "F Cfa", "12k"} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); !errors.Is(err, ErrNoPrice) {
				t.Errorf("Parse(%q) error = %v, want ErrNoPrice", input, err)
			}
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	n, err := Parse(Format(1234567))
	if err != nil || n != 1234567 {
		t.Errorf("Parse(Format()) = %d, %v", n, err)
	}
}
