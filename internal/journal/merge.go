package journal

import (
	"cmp"
	"slices"

	"github.com/threewords/journal/internal/model"
)

// Merge combines the local list with a freshly pulled remote list.
//
// Local entries are kept so unsynced edits survive. A remote entry replaces
// the local entry with the same id in place, otherwise it is appended. The
// result is ordered newest experience first. Merging the same remote list
// twice gives the same result as merging it once.
//
// There is no per-entry modification time: whichever device synced last
// wins for every id it knows about.
func Merge(local, remote []model.Entry) []model.Entry {
	merged := make([]model.Entry, 0, len(local)+len(remote))
	index := make(map[int64]int, len(local)+len(remote))

	for _, e := range local {
		if _, ok := index[e.ID]; ok {
			continue
		}
		index[e.ID] = len(merged)
		merged = append(merged, e)
	}

	for _, e := range remote {
		if i, ok := index[e.ID]; ok {
			merged[i] = e
			continue
		}
		index[e.ID] = len(merged)
		merged = append(merged, e)
	}

	Sort(merged)
	return merged
}

// Sort orders entries by experience date, newest first. Entries on the same
// instant are ordered by id so the result does not depend on input order.
func Sort(entries []model.Entry) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		c := b.SortDate().Compare(a.SortDate())
		if c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// Prepend puts imported entries ahead of existing ones. An existing entry
// whose id was imported is replaced by the imported copy.
func Prepend(imported, existing []model.Entry) []model.Entry {
	result := make([]model.Entry, 0, len(imported)+len(existing))
	seen := make(map[int64]bool, len(imported)+len(existing))

	for _, group := range [][]model.Entry{imported, existing} {
		for _, e := range group {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			result = append(result, e)
		}
	}
	return result
}

// IDs returns the set of ids in entries.
func IDs(entries []model.Entry) map[int64]bool {
	ids := make(map[int64]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids
}
