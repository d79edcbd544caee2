package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/store"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Connector opens the Sheets API for a user's grant.
type Connector func(ctx context.Context, ts oauth2.TokenSource) (sheets.Service, error)

// SyncResult describes a finished exchange with the user's spreadsheet.
type SyncResult struct {
	Direction     string `json:"direction"`
	EntryCount    int    `json:"entryCount"`
	SpreadsheetID string `json:"spreadsheetId,omitempty"`
	URL           string `json:"url,omitempty"`
	// Created is set when the spreadsheet was made by this exchange.
	Created bool `json:"created"`
	// Shared is set when the result was handed to more than one caller.
	Shared bool `json:"shared"`
}

// SyncService mirrors journals to Google Sheets. At most one exchange runs
// per user; callers arriving meanwhile receive the running one's result.
type SyncService struct {
	journal  *JournalService
	store    *store.Store
	sessions *sheets.Sessions
	connect  Connector
	title    string
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group
}

func NewSyncService(journal *JournalService, store *store.Store, sessions *sheets.Sessions, connect Connector, title string, timeout time.Duration) *SyncService {
	if connect == nil {
		connect = sheets.NewGoogleService
	}
	return &SyncService{
		journal:  journal,
		store:    store,
		sessions: sessions,
		connect:  connect,
		title:    title,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Sync pulls the spreadsheet, merges it into the journal and pushes the
// merged list back, creating the spreadsheet on first use. Without a grant
// it starts an authorization and returns *sheets.AuthorizationRequiredError.
func (s *SyncService) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	return s.do(ctx, userID, model.SyncDirectionPush, true)
}

// Pull merges the spreadsheet into the journal without writing it back.
func (s *SyncService) Pull(ctx context.Context, userID string) (*SyncResult, error) {
	return s.do(ctx, userID, model.SyncDirectionPull, true)
}

// AutoPull runs a pull when a grant is already held. It never prompts and
// only logs failures.
func (s *SyncService) AutoPull(ctx context.Context, userID string) {
	if s.sessions.Get(userID).State() != sheets.Authorized {
		slog.DebugContext(ctx, "auto pull skipped, sheets not authorized", "user_id", userID)
		return
	}

	result, err := s.do(ctx, userID, model.SyncDirectionPull, false)
	if err != nil {
		slog.WarnContext(ctx, "auto pull failed", "error", err, "user_id", userID)
		return
	}
	slog.InfoContext(ctx, "auto pull completed", "user_id", userID, "entries", result.EntryCount)
}

// Status returns the last completed exchange, or nil.
func (s *SyncService) Status(ctx context.Context, userID string) *model.SyncStatus {
	return s.store.SyncStatus(ctx, userID)
}

// UnlinkSpreadsheet forgets the user's spreadsheet. The next sync creates
// a new one; the old spreadsheet is left untouched.
func (s *SyncService) UnlinkSpreadsheet(ctx context.Context, userID string) error {
	err := s.store.ClearSpreadsheetID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to unlink spreadsheet: %w", err)
	}
	slog.InfoContext(ctx, "spreadsheet unlinked", "user_id", userID)
	return nil
}

func (s *SyncService) do(ctx context.Context, userID, direction string, interactive bool) (*SyncResult, error) {
	v, err, shared := s.group.Do(userID, func() (any, error) {
		// Runs to completion even if the first caller goes away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.run(ctx, userID, direction, interactive)
	})
	if err != nil {
		return nil, err
	}

	result := *v.(*SyncResult)
	result.Shared = shared
	return &result, nil
}

func (s *SyncService) run(ctx context.Context, userID, direction string, interactive bool) (*SyncResult, error) {
	table, err := s.open(ctx, userID, interactive)
	if err != nil {
		return nil, err
	}

	unlock := s.journal.lock(userID)
	defer unlock()

	id := s.store.SpreadsheetID(ctx, userID)
	remote, err := table.Pull(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, userID, err)
	}

	merged := journal.Merge(s.store.Load(ctx, userID), remote)
	err = s.store.Save(ctx, userID, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to save merged entries: %w", err)
	}

	result := &SyncResult{Direction: direction, EntryCount: len(merged), SpreadsheetID: id}
	if direction == model.SyncDirectionPush {
		result.SpreadsheetID, result.Created, err = table.EnsureTable(ctx, id, s.title)
		if err != nil {
			return nil, s.fail(ctx, userID, err)
		}
		if result.Created {
			err = s.store.SetSpreadsheetID(ctx, userID, result.SpreadsheetID)
			if err != nil {
				return nil, fmt.Errorf("failed to save spreadsheet id: %w", err)
			}
		}

		err = table.Push(ctx, merged, result.SpreadsheetID)
		if err != nil {
			return nil, s.fail(ctx, userID, err)
		}
	}
	if result.SpreadsheetID != "" {
		result.URL = sheets.URL(result.SpreadsheetID)
	}

	err = s.store.SetSyncStatus(ctx, userID, model.SyncStatus{
		LastSync:   s.now().UTC(),
		Direction:  direction,
		EntryCount: len(merged),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to save sync status", "error", err, "user_id", userID)
	}

	slog.InfoContext(ctx, "sync completed",
		"user_id", userID,
		"direction", direction,
		"entries", len(merged),
		"remote", len(remote),
		"spreadsheet_id", result.SpreadsheetID,
	)
	return result, nil
}

// open connects to the Sheets API with the user's grant.
func (s *SyncService) open(ctx context.Context, userID string, interactive bool) (*sheets.Table, error) {
	session := s.sessions.Get(userID)

	ts, err := session.TokenSource(ctx)
	if errors.Is(err, sheets.ErrUnauthenticated) && interactive {
		url, err := session.Begin()
		if err != nil {
			return nil, err
		}
		return nil, &sheets.AuthorizationRequiredError{URL: url}
	}
	if err != nil {
		return nil, err
	}

	svc, err := s.connect(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to google sheets: %w", sheets.Classify(err))
	}
	return sheets.NewTable(svc), nil
}

// fail drops a grant the API refused so the next attempt asks again.
func (s *SyncService) fail(ctx context.Context, userID string, err error) error {
	if errors.Is(err, sheets.ErrAuthorizationDenied) {
		revokeErr := s.sessions.Revoke(userID)
		if revokeErr != nil {
			slog.ErrorContext(ctx, "failed to revoke sheets grant", "error", revokeErr, "user_id", userID)
		}
	}
	slog.WarnContext(ctx, "sync failed", "error", err, "user_id", userID)
	return err
}
