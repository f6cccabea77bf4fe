package reconcile

import (
	"strings"

	"github.com/FantasticalEmbrace/hmherbs-catalog/config"
)

// Classify matches a product name against an ordered rule table and returns
// the label name of the first rule with a matching keyword, or fallback when
// no rule matches. Table order is significant: first match wins, no scoring.
//
// Keyword matching is word-boundary aware: both the name and the keyword are
// tokenized on non-alphanumeric runs and the keyword's token sequence must
// appear contiguously among the name's tokens. The legacy scripts used raw
// substring containment, which let "Now" match inside "Known"; token matching
// keeps the cheap anywhere-in-free-text behavior without that false positive.
func Classify(name string, rules []config.ClassificationRule, fallback string) string {
	nameTokens := tokenize(name)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if containsTokenSequence(nameTokens, tokenize(keyword)) {
				return rule.Label
			}
		}
	}
	return fallback
}

// tokenize lower-cases and splits on every run of non-alphanumeric
// characters, so "Nature's Plus" and "Natures Plus" both yield comparable
// token streams ("nature s plus" vs "natures plus" differ; rule authors list
// both spellings as keywords where needed).
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}

func containsTokenSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, tok := range needle {
			if haystack[i+j] != tok {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
