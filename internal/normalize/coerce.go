package normalize

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	maxInt = decimal.NewFromInt(math.MaxInt64)
	minInt = decimal.NewFromInt(math.MinInt64)
)

// CoerceInt converts numeric-looking cell text to an integer, truncating
// toward zero. Empty, non-numeric or out-of-range text yields 0.
func CoerceInt(s string) int64 {
	v, _ := coerce(s)
	return v
}

// coerce reports ok=false only for non-empty text that could not be parsed.
func coerce(s string) (int64, bool) {
	raw := strings.TrimFunc(s, unicode.IsSpace)
	if raw == "" {
		return 0, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	if d.IsZero() {
		return 0, true
	}
	// Magnitude is checked on digits and exponent alone; comparing or
	// truncating would rescale to a 10^exp big.Int first.
	mag := int64(d.NumDigits()) + int64(d.Exponent())
	if mag > 19 {
		return 0, false
	}
	if mag <= 0 {
		return 0, true
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxInt) || d.LessThan(minInt) {
		return 0, false
	}
	return d.IntPart(), true
}
