package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/journal"
)

type memoryStorage struct {
	objects map[string][]byte
	types   map[string]string
	saveErr error
}

func (m *memoryStorage) Save(ctx context.Context, path string, body io.Reader, contentType string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[path] = data
	m.types[path] = contentType
	return nil
}

func (m *memoryStorage) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "https://storage.example.com/" + path + "?expires=" + expiry.String(), nil
}

func TestArchive_Create(t *testing.T) {
	ctx := context.Background()
	js, _ := newJournalService(t)
	_, err := js.Add(ctx, testUser, input("Archived entry", 3, "a", "b", "c"))
	require.NoError(t, err)

	store := &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
	svc := NewArchiveService(js, store, time.Hour)

	archive, err := svc.Create(ctx, testUser)
	require.NoError(t, err)

	assert.Equal(t, "exports/user-1/3-word-journal-2024-06-15.json", archive.Path)
	assert.Equal(t, "https://storage.example.com/exports/user-1/3-word-journal-2024-06-15.json?expires=1h0m0s", archive.URL)
	assert.Equal(t, testNow.Add(time.Hour), archive.ExpiresAt)
	assert.Equal(t, "application/json", store.types[archive.Path])

	entries, err := journal.DecodeEntries(store.objects[archive.Path])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Archived entry", entries[0].ExperienceSummary)
}

func TestArchive_Failures(t *testing.T) {
	ctx := context.Background()
	js, _ := newJournalService(t)

	_, err := NewArchiveService(js, nil, time.Hour).Create(ctx, testUser)
	require.ErrorIs(t, err, ErrArchiveDisabled)

	boom := errors.New("bucket unavailable")
	store := &memoryStorage{saveErr: boom}
	_, err = NewArchiveService(js, store, time.Hour).Create(ctx, testUser)
	require.ErrorIs(t, err, boom)
}
