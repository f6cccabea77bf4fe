// Package reconcile implements the catalog reconciliation core: canonical
// name normalization, rule-table classification, duplicate grouping, and the
// orchestrating catalog mutator.
package reconcile

import (
	"regexp"
	"strings"
)

// Trailing "SKU:<anything>" annotations left by the scraper. Stripped before
// the alphanumeric collapse so the literal "sku" inside the annotation can
// never leak into the canonical key.
var skuSuffixPattern = regexp.MustCompile(`(?i)sku:.*$`)

// NormalizeName turns a product name into its canonical grouping key:
// lower-case, SKU annotation stripped, everything outside [a-z0-9] dropped.
// Two names differing only in spacing or punctuation normalize identically.
// Total over any input; never shown to users.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = skuSuffixPattern.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
