package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Echinacea EXTRACT", "echinaceaextract"},
		{"strips punctuation and spacing", "Dr. Tony's Blood-Sugar", "drtonysbloodsugar"},
		{"strips sku annotation", "Dr. Tony's Blood Sugar SKU: 12345", "drtonysbloodsugar"},
		{"sku annotation case-insensitive", "Milk Thistle sku:MT-900", "milkthistle"},
		{"digits kept", "Omega 3 1000mg", "omega31000mg"},
		{"empty", "", ""},
		{"only punctuation", "?!*", ""},
		{"unicode dropped", "Ginkgo Bilobä", "ginkgobilob"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeName(tc.in))
		})
	}
}

func TestNormalizeNameEquivalence(t *testing.T) {
	assert.Equal(t,
		NormalizeName("dr tonys blood sugar"),
		NormalizeName("Dr. Tony's Blood Sugar SKU: 12345"),
	)
	assert.Equal(t,
		NormalizeName("NOW Foods Vitamin C-1000"),
		NormalizeName("now foods   vitamin c 1000"),
	)
}
