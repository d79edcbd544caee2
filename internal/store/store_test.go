package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/db/dbtest"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
)

func newStore(t *testing.T) (*Store, repository.RecordRepository) {
	t.Helper()
	records := repository.NewRecordRepository(dbtest.New(t))
	return New(records), records
}

func sampleEntries(t *testing.T) []model.Entry {
	t.Helper()
	date, err := model.ParseTimestamp("2024-03-02T09:30:00.000Z")
	require.NoError(t, err)
	experience, err := model.ParseTimestamp("2024-03-01")
	require.NoError(t, err)

	return []model.Entry{
		{
			ID:                42,
			Title:             "Storm at the lighthouse",
			Words:             model.Words{"Lighthouse", "Maya", "Forgiveness"},
			Tags:              []string{"Family", "Travel"},
			ExperienceSummary: "Storm at the lighthouse",
			FullStory:         "It rained.",
			Date:              date,
			ExperienceDate:    experience,
		},
		{
			ID:    7,
			Words: model.Words{"one", "two", ""},
			Tags:  []string{},
			Date:  date,
		},
	}
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, records := newStore(t)

	assert.Equal(t, []model.Entry{}, s.Load(ctx, "u1"))

	entries := sampleEntries(t)
	require.NoError(t, s.Save(ctx, "u1", entries))
	assert.Equal(t, entries, s.Load(ctx, "u1"))
	assert.Equal(t, []model.Entry{}, s.Load(ctx, "u2"))

	require.NoError(t, s.Save(ctx, "u1", nil))
	_, err := records.Get(EntriesKey("u1"))
	require.ErrorIs(t, err, repository.ErrRecordNotFound)
	assert.Equal(t, []model.Entry{}, s.Load(ctx, "u1"))
}

func TestStore_LoadUnreadableRecord(t *testing.T) {
	ctx := context.Background()
	s, records := newStore(t)

	require.NoError(t, records.Set(EntriesKey("u1"), "{not json"))
	assert.Equal(t, []model.Entry{}, s.Load(ctx, "u1"))

	require.NoError(t, records.Set(EntriesKey("u1"), `{"id":1}`))
	assert.Equal(t, []model.Entry{}, s.Load(ctx, "u1"))
}

func TestStore_LoadMigratesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	s, records := newStore(t)

	legacy := `[{"id":1,"words":["a","b","c"],"topic":"Work","experienceSummary":"s","fullStory":"","date":"2024-01-01T00:00:00.000Z","experienceDate":"2024-01-01T00:00:00.000Z"}]`
	require.NoError(t, records.Set(EntriesKey("u1"), legacy))

	entries := s.Load(ctx, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Work"}, entries[0].Tags)

	raw, err := records.Get(EntriesKey("u1"))
	require.NoError(t, err)
	assert.NotContains(t, raw, "topic")
	assert.Contains(t, raw, `"tags":["Work"]`)

	assert.Equal(t, entries, s.Load(ctx, "u1"))
}

func TestStore_ProfileSpreadsheetAndStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	assert.Nil(t, s.LoadUser(ctx, "u1"))
	user := &model.User{ID: "u1", GoogleSub: "sub", Email: "ada@example.com", Name: "Ada"}
	require.NoError(t, s.SaveUser(ctx, user))
	loaded := s.LoadUser(ctx, "u1")
	require.NotNil(t, loaded)
	assert.Equal(t, "ada@example.com", loaded.Email)
	require.NoError(t, s.ClearUser(ctx, "u1"))
	assert.Nil(t, s.LoadUser(ctx, "u1"))

	assert.Empty(t, s.SpreadsheetID(ctx, "u1"))
	require.NoError(t, s.SetSpreadsheetID(ctx, "u1", "sheet-123"))
	assert.Equal(t, "sheet-123", s.SpreadsheetID(ctx, "u1"))
	require.NoError(t, s.ClearSpreadsheetID(ctx, "u1"))
	assert.Empty(t, s.SpreadsheetID(ctx, "u1"))

	assert.Nil(t, s.SyncStatus(ctx, "u1"))
	status := model.SyncStatus{LastSync: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), Direction: model.SyncDirectionPush, EntryCount: 3}
	require.NoError(t, s.SetSyncStatus(ctx, "u1", status))
	got := s.SyncStatus(ctx, "u1")
	require.NotNil(t, got)
	assert.True(t, status.LastSync.Equal(got.LastSync))
	assert.Equal(t, status.Direction, got.Direction)
	assert.Equal(t, status.EntryCount, got.EntryCount)
}
