package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousands separators: 18248 → "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f with precision decimals and thousands separators:
// FormatFloat(-1234.567, 2) → "-1,234.57". A value that rounds to zero never
// carries a minus sign.
func FormatFloat(f float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(f, 'f', precision, 64)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return strconv.FormatFloat(f, 'f', precision, 64)
	}

	out := FormatNumber(n)
	if hasFrac {
		out += "." + frac
	}
	if negative && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out
}

// FormatLarge abbreviates values of a million or more: "~1.5 billion".
// Smaller values are rounded and separated.
func FormatLarge(n float64) string {
	switch {
	case n >= BillionThreshold:
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	case n >= LargeNumberThreshold:
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	default:
		return FormatNumber(int64(math.Round(n)))
	}
}

// FormatMass renders a kg CO2e value in u, e.g. "1,234.568 kg CO2e".
func FormatMass(kg float64, u Unit, precision int) (string, error) {
	v, err := FromKg(kg, u)
	if err != nil {
		return "", err
	}
	return FormatFloat(v, precision) + " " + u.Label(), nil
}
