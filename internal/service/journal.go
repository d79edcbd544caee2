package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/markdown"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/store"
	"github.com/threewords/journal/internal/validation"
)

var ErrEntryNotFound = errors.New("entry not found")

// EntryInput is what the journal form submits. Id and record date are
// assigned by the service and never change afterwards.
type EntryInput struct {
	Words             model.Words     `json:"words"`
	Tags              []string        `json:"tags"`
	ExperienceSummary string          `json:"experienceSummary"`
	FullStory         string          `json:"fullStory"`
	ExperienceDate    model.Timestamp `json:"experienceDate"`
}

// JournalService owns each user's entry list. Every change is saved before
// the call returns, one writer per user at a time.
type JournalService struct {
	store    *store.Store
	markdown *markdown.Parser
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewJournalService(store *store.Store, markdown *markdown.Parser) *JournalService {
	return &JournalService{
		store:    store,
		markdown: markdown,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *JournalService) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Update applies fn to the stored list and saves the result.
func (s *JournalService) Update(ctx context.Context, userID string, fn func([]model.Entry) ([]model.Entry, error)) ([]model.Entry, error) {
	unlock := s.lock(userID)
	defer unlock()

	entries, err := fn(s.store.Load(ctx, userID))
	if err != nil {
		return nil, err
	}

	err = s.store.Save(ctx, userID, entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// load reads the list under the user's lock. Loading may write migrated
// records back, which must not race a concurrent Update.
func (s *JournalService) load(ctx context.Context, userID string) []model.Entry {
	unlock := s.lock(userID)
	defer unlock()
	return s.store.Load(ctx, userID)
}

func (s *JournalService) List(ctx context.Context, userID string, filter journal.Filter) []model.Entry {
	return filter.Apply(s.load(ctx, userID), s.now())
}

func (s *JournalService) Get(ctx context.Context, userID string, id int64) (*model.Entry, error) {
	entries := s.load(ctx, userID)
	i := indexOf(entries, id)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	return &entries[i], nil
}

// Add creates an entry at the top of the journal.
func (s *JournalService) Add(ctx context.Context, userID string, input EntryInput) (*model.Entry, error) {
	now := model.NewTimestamp(s.now())
	entry := model.Entry{
		ID:   model.NewEntryID(),
		Date: now,
	}
	applyInput(&entry, input)

	err := validation.ValidateEntry(&entry)
	if err != nil {
		return nil, err
	}

	_, err = s.Update(ctx, userID, func(entries []model.Entry) ([]model.Entry, error) {
		return append([]model.Entry{entry}, entries...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add entry: %w", err)
	}

	slog.InfoContext(ctx, "entry added", "user_id", userID, "entry_id", entry.ID)
	return &entry, nil
}

// Edit replaces the editable fields of an entry in place.
func (s *JournalService) Edit(ctx context.Context, userID string, id int64, input EntryInput) (*model.Entry, error) {
	var edited model.Entry
	_, err := s.Update(ctx, userID, func(entries []model.Entry) ([]model.Entry, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return nil, ErrEntryNotFound
		}

		edited = entries[i]
		applyInput(&edited, input)
		err := validation.ValidateEntry(&edited)
		if err != nil {
			return nil, err
		}

		entries[i] = edited
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "entry edited", "user_id", userID, "entry_id", id)
	return &edited, nil
}

func (s *JournalService) Delete(ctx context.Context, userID string, id int64) error {
	_, err := s.Update(ctx, userID, func(entries []model.Entry) ([]model.Entry, error) {
		i := indexOf(entries, id)
		if i < 0 {
			return nil, ErrEntryNotFound
		}
		return slices.Delete(entries, i, i+1), nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "entry deleted", "user_id", userID, "entry_id", id)
	return nil
}

// Import decodes an exported file and puts its entries ahead of the
// existing ones. Nothing is imported unless the whole file decodes.
// Imported entries are completed so a later sync round trips them.
func (s *JournalService) Import(ctx context.Context, userID string, data []byte) (int, error) {
	decoded, err := journal.DecodeEntries(data)
	if err != nil {
		return 0, fmt.Errorf("failed to import entries: %w", err)
	}
	imported := journal.Complete(decoded)

	_, err = s.Update(ctx, userID, func(entries []model.Entry) ([]model.Entry, error) {
		return journal.Prepend(imported, entries), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import entries: %w", err)
	}

	slog.InfoContext(ctx, "entries imported", "user_id", userID, "count", len(imported))
	return len(imported), nil
}

// Export returns the journal as a pretty-printed file and its dated name.
func (s *JournalService) Export(ctx context.Context, userID string) ([]byte, string, error) {
	data, err := journal.Encode(s.load(ctx, userID))
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode entries: %w", err)
	}
	return data, ExportFilename(s.now()), nil
}

// ExportFilename is the dated name export files are saved under.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("3-word-journal-%s.json", now.Format(time.DateOnly))
}

func (s *JournalService) Stats(ctx context.Context, userID string) journal.Stats {
	return journal.ComputeStats(s.load(ctx, userID), s.now())
}

func (s *JournalService) Tags(ctx context.Context, userID string) []string {
	return journal.DistinctTags(s.load(ctx, userID))
}

// Story renders an entry's full story as HTML.
func (s *JournalService) Story(ctx context.Context, userID string, id int64) (string, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	html, err := s.markdown.RenderStory(entry.FullStory)
	if err != nil {
		return "", fmt.Errorf("failed to render story: %w", err)
	}
	return html, nil
}

func applyInput(e *model.Entry, input EntryInput) {
	for i, word := range input.Words {
		e.Words[i] = strings.TrimSpace(word)
	}
	e.Tags = journal.NormalizeTags(input.Tags)
	e.ExperienceSummary = strings.TrimSpace(input.ExperienceSummary)
	e.FullStory = input.FullStory
	e.ExperienceDate = input.ExperienceDate
	e.Title = journal.GenerateTitle(e.ExperienceSummary)
}

func indexOf(entries []model.Entry, id int64) int {
	return slices.IndexFunc(entries, func(e model.Entry) bool { return e.ID == id })
}
