// Package store persists each user's journal as key/value records: the entry
// list, the signed-in profile, the remote spreadsheet id and the last sync.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
)

const (
	entriesPrefix     = "threeWordEntries_"
	userPrefix        = "googleUser_"
	syncStatusPrefix  = "syncStatus_"
	spreadsheetPrefix = "journalSpreadsheetId_"
)

func EntriesKey(userID string) string     { return entriesPrefix + userID }
func UserKey(userID string) string        { return userPrefix + userID }
func SyncStatusKey(userID string) string  { return syncStatusPrefix + userID }
func SpreadsheetKey(userID string) string { return spreadsheetPrefix + userID }

type Store struct {
	records repository.RecordRepository
}

func New(records repository.RecordRepository) *Store {
	return &Store{records: records}
}

// Load returns the user's entries. A missing or unreadable record yields an
// empty list. Records in an older shape are migrated and written back.
func (s *Store) Load(ctx context.Context, userID string) []model.Entry {
	raw, err := s.records.Get(EntriesKey(userID))
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			slog.ErrorContext(ctx, "failed to read entries", "error", err, "user_id", userID)
		}
		return []model.Entry{}
	}

	records, err := journal.Decode([]byte(raw))
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse stored entries", "error", err, "user_id", userID)
		return []model.Entry{}
	}

	entries := journal.Migrate(records)
	if journal.HasLegacy(records) {
		err = s.Save(ctx, userID, entries)
		if err != nil {
			slog.ErrorContext(ctx, "failed to write back migrated entries", "error", err, "user_id", userID)
		} else {
			slog.InfoContext(ctx, "migrated stored entries", "user_id", userID, "count", len(entries))
		}
	}
	return entries
}

// Save stores the full list. An empty list removes the record.
func (s *Store) Save(ctx context.Context, userID string, entries []model.Entry) error {
	if len(entries) == 0 {
		err := s.records.Delete(EntriesKey(userID))
		if err != nil {
			return fmt.Errorf("failed to remove entries: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	err = s.records.Set(EntriesKey(userID), string(data))
	if err != nil {
		return fmt.Errorf("failed to save entries: %w", err)
	}
	return nil
}

// LoadUser returns the cached profile, or nil when there is none.
func (s *Store) LoadUser(ctx context.Context, userID string) *model.User {
	var user model.User
	if !s.getJSON(ctx, UserKey(userID), &user) {
		return nil
	}
	return &user
}

func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	return s.setJSON(UserKey(user.ID), user)
}

func (s *Store) ClearUser(ctx context.Context, userID string) error {
	return s.records.Delete(UserKey(userID))
}

// SpreadsheetID returns the remote table id, or "" before the first sync.
func (s *Store) SpreadsheetID(ctx context.Context, userID string) string {
	id, err := s.records.Get(SpreadsheetKey(userID))
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			slog.ErrorContext(ctx, "failed to read spreadsheet id", "error", err, "user_id", userID)
		}
		return ""
	}
	return id
}

func (s *Store) SetSpreadsheetID(ctx context.Context, userID, id string) error {
	return s.records.Set(SpreadsheetKey(userID), id)
}

func (s *Store) ClearSpreadsheetID(ctx context.Context, userID string) error {
	return s.records.Delete(SpreadsheetKey(userID))
}

// SyncStatus returns the last completed sync, or nil if the user never synced.
func (s *Store) SyncStatus(ctx context.Context, userID string) *model.SyncStatus {
	var status model.SyncStatus
	if !s.getJSON(ctx, SyncStatusKey(userID), &status) {
		return nil
	}
	return &status
}

func (s *Store) SetSyncStatus(ctx context.Context, userID string, status model.SyncStatus) error {
	return s.setJSON(SyncStatusKey(userID), status)
}

func (s *Store) ClearSyncStatus(ctx context.Context, userID string) error {
	return s.records.Delete(SyncStatusKey(userID))
}

func (s *Store) getJSON(ctx context.Context, key string, v any) bool {
	raw, err := s.records.Get(key)
	if err != nil {
		if !errors.Is(err, repository.ErrRecordNotFound) {
			slog.ErrorContext(ctx, "failed to read record", "error", err, "key", key)
		}
		return false
	}

	err = json.Unmarshal([]byte(raw), v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse record", "error", err, "key", key)
		return false
	}
	return true
}

func (s *Store) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	err = s.records.Set(key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
