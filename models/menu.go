package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Paise is a money amount in hundredths of a rupee. The backend sends
// prices and subtotals as JSON numbers, sometimes fractional; keeping
// amounts in paise keeps cart totals exact.
type Paise int64

// ParseAmount parses a decimal rupee amount ("10", "10.5", "10.50")
// into paise. At most two fractional digits are accepted.
func ParseAmount(s string) (Paise, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fractional digits", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	rupees, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q", s)
	}
	paise, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q", s)
	}
	v := rupees*100 + paise
	if neg {
		v = -v
	}
	return Paise(v), nil
}

func (p *Paise) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*p = 0
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalJSON writes the amount back as a decimal rupee number so it
// round-trips through UnmarshalJSON.
func (p Paise) MarshalJSON() ([]byte, error) {
	return []byte(p.Format()), nil
}

// Format renders the amount in rupees the way the ordering page shows it:
// whole amounts without decimals, fractional ones with two.
func (p Paise) Format() string {
	v := int64(p)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v%100 == 0 {
		return fmt.Sprintf("%s%d", sign, v/100)
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MenuItem is one normalized menu record. Items are loaded once per menu
// refresh and never mutated afterwards.
type MenuItem struct {
	ID          string
	Name        string
	Price       Paise
	Category    string
	Description string
	ImageURL    string
	Available   bool
}

// DefaultCategory groups items whose record carries no category.
const DefaultCategory = "Menu"

// Image returns the item's picture, falling back to a deterministic
// placeholder seeded by the item name.
func (m MenuItem) Image() string {
	if m.ImageURL != "" {
		return m.ImageURL
	}
	return "https://picsum.photos/seed/" + url.PathEscape(m.Name) + "/400/240"
}
