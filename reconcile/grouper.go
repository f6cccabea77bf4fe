package reconcile

import (
	"sort"

	"github.com/FantasticalEmbrace/hmherbs-catalog/models"
	"github.com/shopspring/decimal"
)

// DuplicateGroup is one canonical-key equivalence class with its designated
// survivor. Recomputed each run, never persisted.
type DuplicateGroup struct {
	Key      string
	Survivor *models.Product
	Losers   []*models.Product
}

// GroupOptions parameterizes the survivor ranking.
type GroupOptions struct {
	// PlaceholderPrice marks rows injected by a known-faulty ingestion run;
	// entries carrying it rank below any other priced entry.
	PlaceholderPrice decimal.Decimal
	// DescriptionLengthThreshold is the LongDescription length above which an
	// entry counts as "well described".
	DescriptionLengthThreshold int
}

// GroupDuplicates partitions the snapshot by canonical name key and selects
// one survivor per partition of size > 1. Pure and read-only; partitions of
// size 1 produce no group. An all-empty-name partition groups like any other.
func GroupDuplicates(entries []*models.Product, opts GroupOptions) []DuplicateGroup {
	partitions := make(map[string][]*models.Product)
	for _, entry := range entries {
		key := NormalizeName(entry.Name)
		partitions[key] = append(partitions[key], entry)
	}

	keys := make([]string, 0, len(partitions))
	for key, members := range partitions {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	groups := make([]DuplicateGroup, 0, len(keys))
	for _, key := range keys {
		members := partitions[key]
		survivor := members[0]
		for _, candidate := range members[1:] {
			if opts.ranksAbove(candidate, survivor) {
				survivor = candidate
			}
		}
		group := DuplicateGroup{Key: key, Survivor: survivor}
		for _, member := range members {
			if member != survivor {
				group.Losers = append(group.Losers, member)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// ranksAbove reports whether a should survive over b. Tie-break predicates in
// order, each consulted only when the previous one does not discriminate:
// non-zero price, non-placeholder price, long description, larger id.
// IDs are unique, so the order is total and the survivor deterministic.
func (o GroupOptions) ranksAbove(a, b *models.Product) bool {
	if aZero, bZero := a.Price.IsZero(), b.Price.IsZero(); aZero != bZero {
		return bZero
	}
	if aPlaceholder, bPlaceholder := a.Price.Equal(o.PlaceholderPrice), b.Price.Equal(o.PlaceholderPrice); aPlaceholder != bPlaceholder {
		return bPlaceholder
	}
	aLong := len(a.LongDescription) > o.DescriptionLengthThreshold
	bLong := len(b.LongDescription) > o.DescriptionLengthThreshold
	if aLong != bLong {
		return aLong
	}
	return a.ID > b.ID
}
