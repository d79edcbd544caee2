package model

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxWordLength is the longest a single journal word may be.
const MaxWordLength = 20

// maxSafeID keeps ids inside the integer range a browser can represent exactly.
const maxSafeID = 1<<53 - 1

// Entry is one journal record: three words capturing an experience plus
// optional tags, summary and story.
type Entry struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title,omitempty"`
	Words             Words     `json:"words"`
	Tags              []string  `json:"tags"`
	ExperienceSummary string    `json:"experienceSummary"`
	FullStory         string    `json:"fullStory"`
	Date              Timestamp `json:"date"`
	ExperienceDate    Timestamp `json:"experienceDate"`
}

// NewEntryID returns a random id for a new entry. Ids are never reassigned.
func NewEntryID() int64 {
	for {
		u := uuid.New()
		id := int64(binary.BigEndian.Uint64(u[:8]) & maxSafeID)
		if id != 0 {
			return id
		}
	}
}

// SortDate is the date an entry is ordered by: when the experience happened,
// or when it was recorded if that is unknown.
func (e *Entry) SortDate() time.Time {
	if !e.ExperienceDate.IsZero() {
		return e.ExperienceDate.Time
	}
	return e.Date.Time
}

// HasStory reports whether the entry carries a non-blank full story.
func (e *Entry) HasStory() bool {
	return strings.TrimSpace(e.FullStory) != ""
}

// Words is the ordered triple of words of an entry.
type Words [3]string

// Complete reports whether all three slots are filled.
func (w Words) Complete() bool {
	return w[0] != "" && w[1] != "" && w[2] != ""
}

// UnmarshalJSON accepts arrays of any length, keeping the first three
// values and leaving missing slots empty.
func (w *Words) UnmarshalJSON(data []byte) error {
	var values []string
	err := json.Unmarshal(data, &values)
	if err != nil {
		return fmt.Errorf("words: %w", err)
	}
	*w = Words{}
	copy(w[:], values)
	return nil
}

// Timestamp is an instant serialized the way browsers print ISO dates
// (2024-01-01T00:00:00.000Z). It also accepts bare calendar dates.
type Timestamp struct {
	time.Time
}

const isoLayout = "2006-01-02T15:04:05.000Z"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"1/2/2006",
}

// NewTimestamp normalizes t to UTC with millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// ParseTimestamp parses ISO-8601 timestamps, bare dates and the US locale
// dates older spreadsheets were written with.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// String formats the timestamp as ISO-8601, or "" when zero.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var value *string
	err := json.Unmarshal(data, &value)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if value == nil || strings.TrimSpace(*value) == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(*value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
