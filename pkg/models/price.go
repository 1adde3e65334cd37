package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Price is a currency-denominated amount held in minor units (pence,
// cents) so arithmetic and comparisons are exact. On the wire it is a
// plain decimal number with two fraction digits.
type Price int64

// PriceFromFloat converts a decimal major-unit amount, rounding to the
// nearest minor unit.
func PriceFromFloat(v float64) Price {
	if v < 0 {
		return -PriceFromFloat(-v)
	}
	return Price(int64(v*100 + 0.5))
}

// Float returns the amount in major units.
func (p Price) Float() float64 { return float64(p) / 100 }

// Positive reports whether the amount is greater than zero.
func (p Price) Positive() bool { return p > 0 }

// String renders the bare decimal form, e.g. "250.00".
func (p Price) String() string {
	a := int64(p)
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

// Format renders a display string with the currency symbol and
// thousand grouping, e.g. "£1,250.00".
func (p Price) Format(symbol string) string {
	a := int64(p)
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, humanize.Comma(a/100), a%100)
}

// ParsePrice parses a display or wire string back to a Price. Leading
// currency symbols and thousand separators are tolerated, so a
// formatted value round-trips: 250.00 -> "£250.00" -> 250.00.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	// strip a leading symbol such as £, $ or €
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}

	units := s
	cents := "0"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		units, cents = s[:i], s[i+1:]
		if units == "" {
			units = "0"
		}
		switch len(cents) {
		case 0:
			cents = "0"
		case 1:
			cents += "0"
		case 2:
		default:
			return 0, fmt.Errorf("invalid price %q: more than two decimal places", s)
		}
	}
	u, err := strconv.ParseInt(units, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	c, err := strconv.ParseInt(cents, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	p := Price(u*100 + c)
	if neg {
		p = -p
	}
	return p, nil
}

// MarshalJSON encodes the price as a raw decimal number with two
// fraction digits.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal
// string; backends have been observed emitting both.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*p = 0
		return nil
	}
	v, err := ParsePrice(s)
	if err != nil {
		// fall back to float parsing for exponent forms
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		v = PriceFromFloat(f)
	}
	*p = v
	return nil
}

// SymbolFor maps an ISO currency code to its display symbol.
func SymbolFor(currency string) string {
	switch strings.ToUpper(currency) {
	case "GBP", "":
		return "£"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return currency + " "
	}
}
