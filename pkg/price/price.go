// Package price normalizes CFA franc price strings from listing cards.
package price

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrNoPrice is returned when a string holds no parsable amount.
var ErrNoPrice = errors.New("no numeric price")

var (
	currencySuffix = regexp.MustCompile(`(?i)[\s\x{00a0}\x{202f}]*(f[\s\x{00a0}\x{202f}]*cfa|cfa|xof)[\s\x{00a0}\x{202f}]*$`)
	currencyAny    = regexp.MustCompile(`(?i)(f[\s\x{00a0}\x{202f}]*cfa|cfa|xof)`)

	spaceStripper = strings.NewReplacer("\u202f", "", "\u00a0", "")
)

// Strip trims the text, drops the trailing currency marker and removes
// narrow and regular no-break spaces. The result is still a string.
func Strip(s string) string {
	s = strings.TrimSpace(s)
	s = currencySuffix.ReplaceAllString(s, "")
	s = spaceStripper.Replace(s)
	return strings.TrimSpace(s)
}

// Parse coerces a raw or stripped price to an integer amount.
// Whitespace of any kind, thousands separators and currency markers are removed.
func Parse(s string) (int64, error) {
	cleaned := currencyAny.ReplaceAllString(s, "")
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' || r == '.' {
			return -1
		}
		return r
	}, cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, s)
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, s)
	}
	return n, nil
}

// Format renders an amount in the canonical form Parse accepts.
func Format(n int64) string {
	return strconv.FormatInt(n, 10)
}
