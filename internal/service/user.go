package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/store"
)

type UserService struct {
	userRepository repository.UserRepository
	store          *store.Store
	sessions       *sheets.Sessions
}

func NewUserService(userRepository repository.UserRepository, store *store.Store, sessions *sheets.Sessions) *UserService {
	return &UserService{
		userRepository: userRepository,
		store:          store,
		sessions:       sessions,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

// Profile is what the client shows about the signed-in user.
type Profile struct {
	User           *model.User       `json:"user"`
	SyncStatus     *model.SyncStatus `json:"syncStatus"`
	SheetsState    string            `json:"sheetsState"`
	SpreadsheetID  string            `json:"spreadsheetId,omitempty"`
	SpreadsheetURL string            `json:"spreadsheetUrl,omitempty"`
	CSRFToken      string            `json:"csrfToken,omitempty"`
}

// Profile prefers the profile cached at sign-in over the given user.
func (s *UserService) Profile(ctx context.Context, user *model.User) Profile {
	if cached := s.store.LoadUser(ctx, user.ID); cached != nil {
		user = cached
	}
	profile := Profile{
		User:        user,
		SyncStatus:  s.store.SyncStatus(ctx, user.ID),
		SheetsState: s.sessions.Get(user.ID).State().String(),
	}
	if id := s.store.SpreadsheetID(ctx, user.ID); id != "" {
		profile.SpreadsheetID = id
		profile.SpreadsheetURL = sheets.URL(id)
	}
	return profile
}

// Delete removes the account with its journal, grant and sync metadata.
// The spreadsheet itself belongs to the user's Google account and is kept.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	err := s.store.Save(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	for _, remove := range []func(context.Context, string) error{s.store.ClearUser, s.store.ClearSpreadsheetID, s.store.ClearSyncStatus} {
		err = remove(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user records: %w", err)
		}
	}

	err = s.sessions.Revoke(userID)
	if err != nil {
		return err
	}

	err = s.userRepository.Delete(userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}
