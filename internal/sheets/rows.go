package sheets

import (
	"strconv"
	"strings"
	"time"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
)

// SheetTitle is the tab holding the journal inside the spreadsheet.
const SheetTitle = "Journal Entries"

// Header is the first row of the journal sheet. Columns are positional.
var Header = []string{"Date", "Word1", "Word2", "Word3", "Tags", "Summary", "FullStory", "ExperienceDate", "EntryID"}

const (
	colDate = iota
	colWord1
	colWord2
	colWord3
	colTags
	colSummary
	colStory
	colExperienceDate
	colID
)

// EncodeRow lays an entry out in Header order.
func EncodeRow(e model.Entry) []string {
	return []string{
		e.Date.String(),
		e.Words[0],
		e.Words[1],
		e.Words[2],
		journal.JoinTags(e.Tags),
		e.ExperienceSummary,
		e.FullStory,
		e.ExperienceDate.String(),
		strconv.FormatInt(e.ID, 10),
	}
}

// DecodeRow parses a data row. It reports false for rows missing any of the
// three words. Unreadable dates fall back to the row date, then to now. An
// unreadable id is replaced with a fresh one.
func DecodeRow(row []string, now time.Time) (model.Entry, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	words := model.Words{cell(colWord1), cell(colWord2), cell(colWord3)}
	if !words.Complete() {
		return model.Entry{}, false
	}

	date, err := model.ParseTimestamp(cell(colDate))
	if err != nil {
		date = model.NewTimestamp(now)
	}
	experienceDate, err := model.ParseTimestamp(cell(colExperienceDate))
	if err != nil {
		experienceDate = date
	}

	id, err := strconv.ParseInt(strings.TrimSpace(cell(colID)), 10, 64)
	if err != nil || id <= 0 {
		id = model.NewEntryID()
	}

	summary := cell(colSummary)
	return model.Entry{
		ID:                id,
		Title:             journal.GenerateTitle(summary),
		Words:             words,
		Tags:              journal.SplitTags(cell(colTags)),
		ExperienceSummary: summary,
		FullStory:         cell(colStory),
		Date:              date,
		ExperienceDate:    experienceDate,
	}, true
}

// URL is the browser address of a spreadsheet.
func URL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}
