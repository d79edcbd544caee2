package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/threewords/journal/internal/model"
)

var (
	ErrParse    = errors.New("parse error")
	ErrNotArray = fmt.Errorf("%w: expected a JSON array of entries", ErrParse)
)

// Record is a stored entry in whichever shape it was written.
type Record interface {
	Normalize() model.Entry
}

// LegacyEntry is the shape written before tags existed, when every entry
// carried a single topic.
type LegacyEntry struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title,omitempty"`
	Words             model.Words     `json:"words"`
	Topic             string          `json:"topic"`
	ExperienceSummary string          `json:"experienceSummary"`
	FullStory         string          `json:"fullStory"`
	Date              model.Timestamp `json:"date"`
	ExperienceDate    model.Timestamp `json:"experienceDate"`
}

// Normalize turns the topic into a one-element tag list. A blank topic
// yields no tags.
func (e LegacyEntry) Normalize() model.Entry {
	tags := []string{}
	topic := strings.TrimSpace(e.Topic)
	if topic != "" {
		tags = append(tags, topic)
	}
	return model.Entry{
		ID:                e.ID,
		Title:             e.Title,
		Words:             e.Words,
		Tags:              tags,
		ExperienceSummary: e.ExperienceSummary,
		FullStory:         e.FullStory,
		Date:              e.Date,
		ExperienceDate:    e.ExperienceDate,
	}
}

// CurrentEntry is an entry already in the tagged shape.
type CurrentEntry struct {
	model.Entry
}

func (e CurrentEntry) Normalize() model.Entry {
	entry := e.Entry
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	return entry
}

// shape is only used to tell the two variants apart.
type shape struct {
	Tags  json.RawMessage `json:"tags"`
	Topic *string         `json:"topic"`
}

func (s shape) legacy() bool {
	hasTags := len(s.Tags) > 0 && string(s.Tags) != "null"
	return !hasTags && s.Topic != nil
}

// Decode reads a JSON array of entries, deciding per element whether it is a
// LegacyEntry or a CurrentEntry. Anything other than an array fails with
// ErrNotArray; a single undecodable element fails the whole payload.
func Decode(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if raw == nil {
		return nil, ErrNotArray
	}

	records := make([]Record, 0, len(raw))
	for i, element := range raw {
		record, err := decodeRecord(element)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrParse, i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRecord(data json.RawMessage) (Record, error) {
	var s shape
	err := json.Unmarshal(data, &s)
	if err != nil {
		return nil, err
	}

	if s.legacy() {
		var legacy LegacyEntry
		err = json.Unmarshal(data, &legacy)
		if err != nil {
			return nil, err
		}
		return legacy, nil
	}

	var current CurrentEntry
	err = json.Unmarshal(data, &current)
	if err != nil {
		return nil, err
	}
	return current, nil
}

// HasLegacy reports whether any record still needs migrating.
func HasLegacy(records []Record) bool {
	for _, r := range records {
		if _, ok := r.(LegacyEntry); ok {
			return true
		}
	}
	return false
}

// Migrate normalizes every record into the current entry shape.
// Migrating already-migrated entries changes nothing.
func Migrate(records []Record) []model.Entry {
	entries := make([]model.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Normalize())
	}
	return entries
}

// Records wraps entries so they can be fed back through Migrate.
func Records(entries []model.Entry) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, CurrentEntry{Entry: e})
	}
	return records
}

// DecodeEntries decodes and migrates in one step.
func DecodeEntries(data []byte) ([]model.Entry, error) {
	records, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Migrate(records), nil
}

// Complete brings entries from a file up to what the app itself writes:
// tags are normalized, a missing experience date takes the record date and
// the title is derived from the summary. Completed entries come back
// unchanged from a spreadsheet round trip.
func Complete(entries []model.Entry) []model.Entry {
	completed := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		e.Tags = NormalizeTags(e.Tags)
		if e.ExperienceDate.IsZero() {
			e.ExperienceDate = e.Date
		}
		e.Title = GenerateTitle(e.ExperienceSummary)
		completed = append(completed, e)
	}
	return completed
}

// Encode writes entries as the pretty-printed array used for exports.
func Encode(entries []model.Entry) ([]byte, error) {
	if entries == nil {
		entries = []model.Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}
