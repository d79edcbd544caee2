package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/threewords/journal/internal/storage"
)

var ErrArchiveDisabled = errors.New("export archive storage is not configured")

// Archive is a stored export file.
type Archive struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ArchiveService copies journal exports to object storage.
type ArchiveService struct {
	journal *JournalService
	storage storage.Storage
	expiry  time.Duration
}

// NewArchiveService returns a service that reports ErrArchiveDisabled when
// storage is nil.
func NewArchiveService(journal *JournalService, storage storage.Storage, expiry time.Duration) *ArchiveService {
	return &ArchiveService{journal: journal, storage: storage, expiry: expiry}
}

func (s *ArchiveService) Enabled() bool {
	return s.storage != nil
}

// Create writes the current export under exports/<userID>/ and returns a
// temporary download link.
func (s *ArchiveService) Create(ctx context.Context, userID string) (*Archive, error) {
	if !s.Enabled() {
		return nil, ErrArchiveDisabled
	}

	data, filename, err := s.journal.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := path.Join("exports", userID, filename)
	err = s.storage.Save(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to store archive: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign archive url: %w", err)
	}

	slog.InfoContext(ctx, "export archived", "user_id", userID, "path", key, "bytes", len(data))
	return &Archive{
		Path:      key,
		URL:       url,
		ExpiresAt: s.journal.now().Add(s.expiry).UTC(),
	}, nil
}
