package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/db/dbtest"
	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/markdown"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/sheets/sheetstest"
	"github.com/threewords/journal/internal/store"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

type syncFixture struct {
	sync     *SyncService
	journal  *JournalService
	store    *store.Store
	sessions *sheets.Sessions
	tokens   repository.TokenRepository
	remote   *sheetstest.Memory
	service  sheets.Service
	userID   string
}

func newSyncFixture(t *testing.T, authorized bool) *syncFixture {
	t.Helper()

	conn := dbtest.New(t)
	users := repository.NewUserRepository(conn)
	user := &model.User{GoogleSub: "sub-1", Email: "ada@example.com"}
	require.NoError(t, users.Upsert(user))

	f := &syncFixture{
		tokens: repository.NewTokenRepository(conn),
		store:  store.New(repository.NewRecordRepository(conn)),
		remote: sheetstest.NewMemory(),
		userID: user.ID,
	}
	f.service = f.remote

	if authorized {
		expiry := time.Now().Add(time.Hour)
		require.NoError(t, f.tokens.Save(&model.OAuthToken{
			UserID:       user.ID,
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       &expiry,
		}))
	}

	config := sheets.OAuthConfig("client", "secret", "http://localhost/auth/sheets/callback")
	f.sessions = sheets.NewSessions(config, f.tokens, time.Minute)
	f.journal = NewJournalService(f.store, markdown.NewParser())
	connect := func(ctx context.Context, ts oauth2.TokenSource) (sheets.Service, error) {
		return f.service, nil
	}
	f.sync = NewSyncService(f.journal, f.store, f.sessions, connect, "3 Word Journal", time.Minute)
	return f
}

func (f *syncFixture) add(t *testing.T, summary string, day int) model.Entry {
	t.Helper()
	entry, err := f.journal.Add(context.Background(), f.userID, input(summary, day, "one", "two", "three"))
	require.NoError(t, err)
	return *entry
}

func rowsOf(entries ...model.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, sheets.EncodeRow(e))
	}
	return rows
}

func TestSync_CreatesSpreadsheet(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	older := f.add(t, "Older entry", 1)
	newer := f.add(t, "Newer entry", 2)

	result, err := f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, model.SyncDirectionPush, result.Direction)
	assert.Equal(t, 2, result.EntryCount)
	assert.Equal(t, "sheet-1", result.SpreadsheetID)
	assert.Equal(t, sheets.URL("sheet-1"), result.URL)
	assert.Equal(t, "sheet-1", f.store.SpreadsheetID(ctx, f.userID))

	stored, ok := f.remote.Get("sheet-1")
	require.True(t, ok)
	assert.Equal(t, "3 Word Journal", stored.Title)
	assert.Equal(t, sheets.Header, stored.Header)
	assert.Equal(t, rowsOf(newer, older), stored.Rows)

	status := f.sync.Status(ctx, f.userID)
	require.NotNil(t, status)
	assert.Equal(t, model.SyncDirectionPush, status.Direction)
	assert.Equal(t, 2, status.EntryCount)

	again, err := f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, 1, f.remote.Count())
}

func TestSync_MergesRemoteEdits(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	local := f.add(t, "Written on the laptop", 5)
	untouched := f.add(t, "Only on the laptop", 3)

	fromPhone := local
	fromPhone.ExperienceSummary = "Rewritten on the phone"
	fromPhone.Title = journal.GenerateTitle(fromPhone.ExperienceSummary)
	phoneOnly := local
	phoneOnly.ID = local.ID + 1
	phoneOnly.ExperienceSummary = "Only on the phone"
	phoneOnly.Title = journal.GenerateTitle(phoneOnly.ExperienceSummary)
	phoneOnly.ExperienceDate = model.NewTimestamp(time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC))

	f.remote.SetRows("shared", rowsOf(fromPhone, phoneOnly))
	require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))

	result, err := f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, 3, result.EntryCount)

	want := []model.Entry{fromPhone, phoneOnly, untouched}
	assert.Equal(t, want, f.store.Load(ctx, f.userID))

	stored, _ := f.remote.Get("shared")
	assert.Equal(t, rowsOf(want...), stored.Rows)

	// A second sync with nothing new changes nothing.
	_, err = f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, want, f.store.Load(ctx, f.userID))
}

func TestSync_PullDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)

	remote := model.Entry{
		ID:                99,
		Words:             model.Words{"a", "b", "c"},
		Tags:              []string{},
		ExperienceSummary: "From the sheet",
		Title:             "From the sheet",
		Date:              model.NewTimestamp(time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC)),
		ExperienceDate:    model.NewTimestamp(time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC)),
	}
	f.remote.SetRows("shared", rowsOf(remote))
	require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))

	result, err := f.sync.Pull(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncDirectionPull, result.Direction)
	assert.Equal(t, 2, result.EntryCount)
	assert.Equal(t, []string{"ReadRows"}, f.remote.Calls)

	entries := f.store.Load(ctx, f.userID)
	require.Len(t, entries, 2)
	assert.Equal(t, remote, entries[0])
	assert.Equal(t, model.SyncDirectionPull, f.sync.Status(ctx, f.userID).Direction)
}

func TestSync_PullWithoutSpreadsheet(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)

	result, err := f.sync.Pull(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntryCount)
	assert.Empty(t, result.URL)
	assert.Empty(t, f.remote.Calls)
}

func TestSync_RequiresAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, false)
	f.add(t, "Local only", 2)

	_, err := f.sync.Sync(ctx, f.userID)
	var authErr *sheets.AuthorizationRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, strings.HasPrefix(authErr.URL, "https://accounts.google.com/"))
	assert.Equal(t, sheets.Authorizing, f.sessions.Get(f.userID).State())
	assert.Empty(t, f.remote.Calls)
	assert.Nil(t, f.sync.Status(ctx, f.userID))
}

func TestSync_AutoPull(t *testing.T) {
	ctx := context.Background()

	t.Run("without grant stays quiet", func(t *testing.T) {
		f := newSyncFixture(t, false)
		f.sync.AutoPull(ctx, f.userID)

		assert.Equal(t, sheets.Unauthenticated, f.sessions.Get(f.userID).State())
		assert.Empty(t, f.remote.Calls)
	})

	t.Run("with grant merges", func(t *testing.T) {
		f := newSyncFixture(t, true)
		remote := f.add(t, "Synced elsewhere", 3)
		require.NoError(t, f.store.Save(ctx, f.userID, nil))
		f.remote.SetRows("shared", rowsOf(remote))
		require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))

		f.sync.AutoPull(ctx, f.userID)

		assert.Equal(t, []model.Entry{remote}, f.store.Load(ctx, f.userID))
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		f := newSyncFixture(t, true)
		f.remote.Err = &googleapi.Error{Code: http.StatusServiceUnavailable}
		require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))

		f.sync.AutoPull(ctx, f.userID)
		assert.Nil(t, f.sync.Status(ctx, f.userID))
	})
}

func TestSync_DeniedRevokesGrant(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)
	f.remote.SetRows("shared", nil)
	require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))
	f.remote.Err = &googleapi.Error{Code: http.StatusForbidden}

	_, err := f.sync.Sync(ctx, f.userID)
	require.ErrorIs(t, err, sheets.ErrAuthorizationDenied)

	_, err = f.tokens.ByUserID(f.userID)
	require.ErrorIs(t, err, repository.ErrTokenNotFound)
	assert.Equal(t, sheets.Unauthenticated, f.sessions.Get(f.userID).State())
	assert.Len(t, f.store.Load(ctx, f.userID), 1, "local entries survive")
}

func TestSync_TransportErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)
	f.remote.Err = &googleapi.Error{Code: http.StatusBadGateway}

	_, err := f.sync.Sync(ctx, f.userID)
	require.ErrorIs(t, err, sheets.ErrTransport)
	assert.Equal(t, sheets.Authorized, f.sessions.Get(f.userID).State())
	assert.Empty(t, f.store.SpreadsheetID(ctx, f.userID))
	assert.Len(t, f.store.Load(ctx, f.userID), 1)
}

func TestSync_DeletedSpreadsheet(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)
	require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "gone"))

	_, err := f.sync.Sync(ctx, f.userID)
	require.ErrorIs(t, err, sheets.ErrMalformedRemoteState)
	assert.Equal(t, "gone", f.store.SpreadsheetID(ctx, f.userID), "kept until the user unlinks it")

	require.NoError(t, f.sync.UnlinkSpreadsheet(ctx, f.userID))
	result, err := f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, result.SpreadsheetID, f.store.SpreadsheetID(ctx, f.userID))
}

// blockingService holds ReadRows until released.
type blockingService struct {
	*sheetstest.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingService) ReadRows(ctx context.Context, id string) ([][]string, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Memory.ReadRows(ctx, id)
}

func TestSync_SingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)
	f.remote.SetRows("shared", nil)
	require.NoError(t, f.store.SetSpreadsheetID(ctx, f.userID, "shared"))

	blocking := &blockingService{
		Memory:  f.remote,
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	f.service = blocking

	var wg sync.WaitGroup
	results := make([]*SyncResult, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.sync.Sync(ctx, f.userID)
	}()
	<-blocking.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.sync.Pull(ctx, f.userID)
	}()
	// Give the second caller time to join the running exchange.
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, results[0].Shared)
	assert.True(t, results[1].Shared)
	assert.Equal(t, model.SyncDirectionPush, results[1].Direction, "joined the running sync")
	assert.Len(t, blocking.entered, 0, "remote was read once")
}

func TestSync_CallerCancellationDoesNotAbort(t *testing.T) {
	f := newSyncFixture(t, true)
	f.add(t, "Local only", 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestSync_ImportedEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, true)

	file := []byte(`[
		{"id": 11, "words": ["sun", "sand", "salt"], "tags": ["beach, summer", "beach"], "experienceSummary": "Day at the beach", "date": "2024-05-01T10:00:00.000Z"},
		{"id": 12, "title": "Hand written title", "words": ["rain", "tea", "book"], "topic": "home", "experienceSummary": "Reading inside", "date": "2024-05-02T10:00:00.000Z", "experienceDate": "2024-04-30T08:00:00.000Z"}
	]`)
	_, err := f.journal.Import(ctx, f.userID, file)
	require.NoError(t, err)

	imported := f.store.Load(ctx, f.userID)
	require.Len(t, imported, 2)
	beach := imported[0]
	assert.Equal(t, []string{"beach", "summer"}, beach.Tags)
	assert.True(t, beach.ExperienceDate.Equal(beach.Date.Time), "experience date defaults to the record date")
	assert.Equal(t, journal.GenerateTitle("Reading inside"), imported[1].Title)

	_, err = f.sync.Sync(ctx, f.userID)
	require.NoError(t, err)
	pushed := f.store.Load(ctx, f.userID)

	_, err = f.sync.Pull(ctx, f.userID)
	require.NoError(t, err)
	pulled := f.store.Load(ctx, f.userID)

	assert.Equal(t, pushed, pulled)
	require.Len(t, pulled, 2)
	assert.Equal(t, []string{"beach", "summer"}, pulled[0].Tags)
	assert.True(t, pulled[0].ExperienceDate.Equal(beach.Date.Time))
}
