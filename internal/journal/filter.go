package journal

import (
	"slices"
	"strings"
	"time"

	"github.com/threewords/journal/internal/model"
)

// Range restricts entries to a window around now.
type Range string

const (
	RangeAll       Range = "all"
	RangeToday     Range = "today"
	RangeThisWeek  Range = "thisWeek"
	RangeThisMonth Range = "thisMonth"
	RangeThisYear  Range = "thisYear"
)

// Valid reports whether r is a known range. The empty range means all.
func (r Range) Valid() bool {
	switch r {
	case "", RangeAll, RangeToday, RangeThisWeek, RangeThisMonth, RangeThisYear:
		return true
	}
	return false
}

// Filter selects entries for the journal view. Zero value matches everything.
type Filter struct {
	// Query is matched case-insensitively against words, tags, summary and story.
	Query string
	// Tags must all be present on an entry.
	Tags  []string
	Range Range
}

// Apply returns the entries matching f, keeping their order.
func (f Filter) Apply(entries []model.Entry, now time.Time) []model.Entry {
	matched := make([]model.Entry, 0, len(entries))
	for i := range entries {
		if f.Match(&entries[i], now) {
			matched = append(matched, entries[i])
		}
	}
	return matched
}

func (f Filter) Match(e *model.Entry, now time.Time) bool {
	return f.matchQuery(e) && f.matchTags(e) && f.matchRange(e, now)
}

func (f Filter) matchQuery(e *model.Entry) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	}
	if slices.ContainsFunc(e.Words[:], contains) || slices.ContainsFunc(e.Tags, contains) {
		return true
	}
	return contains(e.ExperienceSummary) || contains(e.FullStory)
}

func (f Filter) matchTags(e *model.Entry) bool {
	for _, tag := range f.Tags {
		if !slices.Contains(e.Tags, tag) {
			return false
		}
	}
	return true
}

func (f Filter) matchRange(e *model.Entry, now time.Time) bool {
	date := e.SortDate().In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch f.Range {
	case RangeToday:
		return !date.Before(today) && date.Before(today.AddDate(0, 0, 1))
	case RangeThisWeek:
		return !date.Before(today.AddDate(0, 0, -7))
	case RangeThisMonth:
		return sameMonth(date, now)
	case RangeThisYear:
		return date.Year() == now.Year()
	default:
		return true
	}
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
