package listing

import (
	"regexp"
	"strconv"

	"golang.org/x/text/width"
)

var priceNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// ParsePrice returns the first decimal number in text, or nil when there is none.
// Full-width digits and points count as their ASCII forms.
func ParsePrice(text string) *float64 {
	m := priceNumber.FindString(width.Narrow.String(text))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}
