package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Slugify derives a URL-safe slug from a label name: lower-case, every run of
// non-alphanumeric characters collapsed to a single hyphen, no leading or
// trailing hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// ParseDecimal parses a decimal string, returning zero on empty input.
func ParseDecimal(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
