package sheets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/sheets/sheetstest"
	"google.golang.org/api/googleapi"
)

func mustTimestamp(t *testing.T, value string) model.Timestamp {
	t.Helper()
	ts, err := model.ParseTimestamp(value)
	require.NoError(t, err)
	return ts
}

func TestEnsureTable(t *testing.T) {
	ctx := context.Background()

	t.Run("existing id is reused", func(t *testing.T) {
		mem := sheetstest.NewMemory()
		id, created, err := NewTable(mem).EnsureTable(ctx, "sheet-42", "3 Word Journal")
		require.NoError(t, err)
		assert.Equal(t, "sheet-42", id)
		assert.False(t, created)
		assert.Empty(t, mem.Calls)
	})

	t.Run("creates with header", func(t *testing.T) {
		mem := sheetstest.NewMemory()
		id, created, err := NewTable(mem).EnsureTable(ctx, "", "3 Word Journal")
		require.NoError(t, err)
		assert.True(t, created)

		sheet, ok := mem.Get(id)
		require.True(t, ok)
		assert.Equal(t, "3 Word Journal", sheet.Title)
		assert.Equal(t, []string{"Date", "Word1", "Word2", "Word3", "Tags", "Summary", "FullStory", "ExperienceDate", "EntryID"}, sheet.Header)
		assert.True(t, sheet.Formatted)
	})

	t.Run("formatting failure is ignored", func(t *testing.T) {
		mem := sheetstest.NewMemory()
		mem.FormatErr = errors.New("boom")
		id, created, err := NewTable(mem).EnsureTable(ctx, "", "3 Word Journal")
		require.NoError(t, err)
		assert.True(t, created)

		sheet, ok := mem.Get(id)
		require.True(t, ok)
		assert.NotEmpty(t, sheet.Header)
		assert.False(t, sheet.Formatted)
	})

	t.Run("header write failure still creates", func(t *testing.T) {
		mem := sheetstest.NewMemory()
		mem.HeaderErr = errors.New("boom")
		id, created, err := NewTable(mem).EnsureTable(ctx, "", "3 Word Journal")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEmpty(t, id)

		sheet, ok := mem.Get(id)
		require.True(t, ok)
		assert.Nil(t, sheet.Header)
		assert.False(t, sheet.Formatted)
		assert.Equal(t, []string{"CreateSpreadsheet", "WriteHeader"}, mem.Calls)
	})

	t.Run("permission failure", func(t *testing.T) {
		mem := sheetstest.NewMemory()
		mem.Err = &googleapi.Error{Code: http.StatusForbidden}
		_, _, err := NewTable(mem).EnsureTable(ctx, "", "3 Word Journal")
		require.ErrorIs(t, err, ErrAuthorizationDenied)
		assert.Equal(t, 0, mem.Count())
	})
}

func TestPushPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := sheetstest.NewMemory()
	table := NewTable(mem)

	id, _, err := table.EnsureTable(ctx, "", "3 Word Journal")
	require.NoError(t, err)

	summary := "Maya and I walked to the lighthouse before the storm rolled in"
	entries := []model.Entry{
		{
			ID:                9007199254740991,
			Title:             journal.GenerateTitle(summary),
			Words:             model.Words{"Lighthouse", "Maya", "Forgiveness"},
			Tags:              []string{"Family", "Travel"},
			ExperienceSummary: summary,
			FullStory:         "It rained.\nThen it stopped.",
			Date:              mustTimestamp(t, "2024-03-02T09:30:15.250Z"),
			ExperienceDate:    mustTimestamp(t, "2024-03-01"),
		},
		{
			ID:             12,
			Words:          model.Words{"one", "two", "three"},
			Tags:           []string{},
			Date:           mustTimestamp(t, "2023-12-31T23:59:59.999Z"),
			ExperienceDate: mustTimestamp(t, "2023-12-31T23:59:59.999Z"),
		},
	}

	require.NoError(t, table.Push(ctx, entries, id))
	pulled, err := table.Pull(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entries, pulled)
}

func TestPull_SkipsBadRowsAndFallsBack(t *testing.T) {
	ctx := context.Background()
	mem := sheetstest.NewMemory()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	table := NewTable(mem)
	table.now = func() time.Time { return now }

	mem.SetRows("sheet", [][]string{
		{"2024-01-01T00:00:00.000Z", "a", "b", "", "", "", "", "", "1"},
		{"2024-01-02T00:00:00.000Z", "d", "e", "f", "x, ,y", "sum", "", "not a date", "2"},
		{"not a date", "g", "h", "i", "", "", "", "", "3"},
		{"1/15/2024", "j", "k", "l", "", "", "", "1/16/2024", "4"},
		{"2024-01-05", "m", "n", "o"},
	})

	entries, err := table.Pull(ctx, "sheet")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, []string{"x", "y"}, entries[0].Tags)
	assert.Equal(t, entries[0].Date, entries[0].ExperienceDate)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), entries[0].ExperienceDate.Time)

	assert.Equal(t, int64(3), entries[1].ID)
	assert.True(t, now.Equal(entries[1].Date.Time))
	assert.True(t, now.Equal(entries[1].ExperienceDate.Time))

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), entries[2].Date.Time)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), entries[2].ExperienceDate.Time)

	assert.NotZero(t, entries[3].ID)
	assert.Equal(t, model.Words{"m", "n", "o"}, entries[3].Words)
	assert.Equal(t, []string{}, entries[3].Tags)
}

func TestPull_NoSpreadsheetYet(t *testing.T) {
	mem := sheetstest.NewMemory()
	entries, err := NewTable(mem).Pull(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, mem.Calls)
}

func TestPush_ReplacesAllRows(t *testing.T) {
	ctx := context.Background()
	mem := sheetstest.NewMemory()
	table := NewTable(mem)
	mem.SetRows("sheet", [][]string{{"old"}, {"older"}})

	entry := model.Entry{ID: 5, Words: model.Words{"a", "b", "c"}, Date: mustTimestamp(t, "2024-01-01")}
	require.NoError(t, table.Push(ctx, []model.Entry{entry}, "sheet"))

	sheet, _ := mem.Get("sheet")
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "5", sheet.Rows[0][8])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", sheet.Rows[0][0])
	assert.Equal(t, "", sheet.Rows[0][7])

	require.NoError(t, table.Push(ctx, nil, "sheet"))
	sheet, _ = mem.Get("sheet")
	assert.Empty(t, sheet.Rows)
	assert.Equal(t, "ClearRows", mem.Calls[len(mem.Calls)-1])
}

func TestPush_DeletedSpreadsheet(t *testing.T) {
	ctx := context.Background()
	mem := sheetstest.NewMemory()
	table := NewTable(mem)

	err := table.Push(ctx, nil, "gone")
	require.ErrorIs(t, err, ErrMalformedRemoteState)
	assert.Equal(t, "Invalid request. The spreadsheet may not exist or you may not have access.", Guidance(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &googleapi.Error{Code: 401}, ErrAuthorizationDenied},
		{"forbidden", &googleapi.Error{Code: 403}, ErrAuthorizationDenied},
		{"bad request", &googleapi.Error{Code: 400}, ErrMalformedRemoteState},
		{"not found", &googleapi.Error{Code: 404}, ErrMalformedRemoteState},
		{"server error", &googleapi.Error{Code: 503}, ErrTransport},
		{"network", errors.New("dial tcp: connection refused"), ErrTransport},
		{"deadline", context.DeadlineExceeded, ErrTransport},
		{"already classified", ErrAuthorizationTimeout, ErrAuthorizationTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}
	assert.NoError(t, Classify(nil))
}
