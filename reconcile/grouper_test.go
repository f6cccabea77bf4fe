package reconcile

import (
	"testing"

	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupOptions() GroupOptions {
	return GroupOptions{
		PlaceholderPrice:           decimal.RequireFromString("25.00"),
		DescriptionLengthThreshold: 50,
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGroupDuplicatesPartitionsByCanonicalKey(t *testing.T) {
	entries := []*models.Product{
		{ID: 1, Name: "Dr. Tony's Blood Sugar", Price: price("19.99")},
		{ID: 2, Name: "dr tonys blood sugar SKU: 99", Price: price("0")},
		{ID: 3, Name: "Milk Thistle", Price: price("12.00")},
	}
	groups := GroupDuplicates(entries, groupOptions())

	require.Len(t, groups, 1, "singleton partitions produce no group")
	assert.Equal(t, "drtonysbloodsugar", groups[0].Key)
	assert.Equal(t, 1, groups[0].Survivor.ID)
	require.Len(t, groups[0].Losers, 1)
	assert.Equal(t, 2, groups[0].Losers[0].ID)
}

// Prices {0, 25.00, 19.99} with descriptions of lengths {0, 80, 10}: the
// 19.99 entry must win regardless of description length or id ordering.
func TestGroupDuplicatesTieBreakDeterminism(t *testing.T) {
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	entries := []*models.Product{
		{ID: 10, Name: "Ginseng Root", Price: price("0")},
		{ID: 11, Name: "Ginseng  Root!", Price: price("25.00"), LongDescription: string(long)},
		{ID: 12, Name: "ginseng root", Price: price("19.99"), LongDescription: "short text"},
	}
	groups := GroupDuplicates(entries, groupOptions())

	require.Len(t, groups, 1)
	assert.Equal(t, 12, groups[0].Survivor.ID)
	assert.Len(t, groups[0].Losers, 2)
}

func TestGroupDuplicatesZeroPriceIsWorst(t *testing.T) {
	entries := []*models.Product{
		{ID: 1, Name: "Valerian", Price: price("0"), LongDescription: string(make([]byte, 200))},
		{ID: 2, Name: "valerian", Price: price("25.00")},
	}
	groups := GroupDuplicates(entries, groupOptions())
	require.Len(t, groups, 1)
	// even a placeholder price beats no price at all
	assert.Equal(t, 2, groups[0].Survivor.ID)
}

func TestGroupDuplicatesDescriptionThenId(t *testing.T) {
	longDesc := string(make([]byte, 60))
	entries := []*models.Product{
		{ID: 5, Name: "Chamomile Tea", Price: price("9.99"), LongDescription: longDesc},
		{ID: 9, Name: "chamomile-tea", Price: price("9.99")},
	}
	groups := GroupDuplicates(entries, groupOptions())
	require.Len(t, groups, 1)
	assert.Equal(t, 5, groups[0].Survivor.ID, "long description beats larger id")

	// identical descriptions: larger id wins
	entries[0].LongDescription = ""
	groups = GroupDuplicates(entries, groupOptions())
	require.Len(t, groups, 1)
	assert.Equal(t, 9, groups[0].Survivor.ID)
}

func TestGroupDuplicatesEmptyKeyPartition(t *testing.T) {
	entries := []*models.Product{
		{ID: 1, Name: "???", Price: price("5.00")},
		{ID: 2, Name: "", Price: price("7.00")},
	}
	groups := GroupDuplicates(entries, groupOptions())
	require.Len(t, groups, 1)
	assert.Equal(t, "", groups[0].Key)
	assert.Equal(t, 2, groups[0].Survivor.ID)
}

func TestGroupDuplicatesAllPairsCovered(t *testing.T) {
	entries := []*models.Product{
		{ID: 1, Name: "A B", Price: price("1")},
		{ID: 2, Name: "a-b", Price: price("1")},
		{ID: 3, Name: "ab", Price: price("1")},
		{ID: 4, Name: "c", Price: price("1")},
	}
	groups := GroupDuplicates(entries, groupOptions())
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Survivor.ID)
	assert.Len(t, groups[0].Losers, 2)

	// exactly one survivor per class; grouping is exhaustive over the class
	total := len(groups[0].Losers) + 1
	assert.Equal(t, 3, total)
}

func TestGroupDuplicatesPureReadOnly(t *testing.T) {
	entries := []*models.Product{
		{ID: 1, Name: "Kava", Price: price("0")},
		{ID: 2, Name: "kava", Price: price("3")},
	}
	_ = GroupDuplicates(entries, groupOptions())
	assert.Equal(t, "Kava", entries[0].Name)
	assert.True(t, entries[0].Price.IsZero())
}
