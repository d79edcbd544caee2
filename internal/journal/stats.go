package journal

import (
	"slices"
	"time"

	"github.com/threewords/journal/internal/model"
)

type Stats struct {
	Total       int `json:"total"`
	Tags        int `json:"tags"`
	ThisMonth   int `json:"thisMonth"`
	WithStories int `json:"withStories"`
}

func ComputeStats(entries []model.Entry, now time.Time) Stats {
	stats := Stats{
		Total: len(entries),
		Tags:  len(DistinctTags(entries)),
	}
	for i := range entries {
		if sameMonth(entries[i].SortDate().In(now.Location()), now) {
			stats.ThisMonth++
		}
		if entries[i].HasStory() {
			stats.WithStories++
		}
	}
	return stats
}

// DistinctTags returns every tag used across entries, sorted.
func DistinctTags(entries []model.Entry) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, e := range entries {
		for _, tag := range e.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}
