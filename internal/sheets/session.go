package sheets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// State is where a user's Sheets authorization stands.
type State int

const (
	Unauthenticated State = iota
	Authorizing
	Authorized
)

func (s State) String() string {
	switch s {
	case Authorizing:
		return "authorizing"
	case Authorized:
		return "authorized"
	default:
		return "unauthenticated"
	}
}

// OAuthConfig returns the Google OAuth configuration for the Sheets grant.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheetsapi.SpreadsheetsScope},
		Endpoint:     google.Endpoint,
	}
}

// Sessions holds one AuthSession per user. Persisted grants are picked up
// the first time a user's session is requested.
type Sessions struct {
	config  *oauth2.Config
	tokens  repository.TokenRepository
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*AuthSession
}

func NewSessions(config *oauth2.Config, tokens repository.TokenRepository, timeout time.Duration) *Sessions {
	return &Sessions{
		config:   config,
		tokens:   tokens,
		timeout:  timeout,
		now:      time.Now,
		sessions: make(map[string]*AuthSession),
	}
}

// Get returns the user's session, creating it on first use.
func (s *Sessions) Get(userID string) *AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if ok {
		return session
	}

	session = &AuthSession{
		userID:  userID,
		config:  s.config,
		tokens:  s.tokens,
		timeout: s.timeout,
		now:     s.now,
	}

	stored, err := s.tokens.ByUserID(userID)
	switch {
	case err == nil:
		session.token = toOAuth2(stored)
		session.state = Authorized
	case !errors.Is(err, repository.ErrTokenNotFound):
		slog.Error("failed to load sheets token", "error", err, "user_id", userID)
	}

	s.sessions[userID] = session
	return session
}

// Revoke forgets the user's grant in memory and in storage.
func (s *Sessions) Revoke(userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	err := s.tokens.Delete(userID)
	if err != nil {
		return fmt.Errorf("failed to delete sheets token: %w", err)
	}
	return nil
}

// AuthSession walks one user through Unauthenticated, Authorizing and
// Authorized. It never retries on its own.
type AuthSession struct {
	userID  string
	config  *oauth2.Config
	tokens  repository.TokenRepository
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	state     State
	nonce     string
	startedAt time.Time
	timedOut  bool
	token     *oauth2.Token
}

// State reports the current state, applying the authorization timeout.
func (a *AuthSession) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expireLocked()
	return a.state
}

// expireLocked drops an authorization that has waited too long.
func (a *AuthSession) expireLocked() {
	if a.state == Authorizing && a.now().Sub(a.startedAt) > a.timeout {
		a.state = Unauthenticated
		a.nonce = ""
		a.timedOut = true
	}
}

// Begin starts an authorization and returns the consent URL to send the
// user to. It must be completed within the session timeout.
func (a *AuthSession) Begin() (string, error) {
	nonce, err := randomState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = Authorizing
	a.nonce = nonce
	a.startedAt = a.now()
	a.timedOut = false

	url := a.config.AuthCodeURL(nonce,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, nil
}

// Complete exchanges the authorization code and persists the grant.
func (a *AuthSession) Complete(ctx context.Context, state, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.expireLocked()
	if a.state != Authorizing {
		if a.timedOut {
			return ErrAuthorizationTimeout
		}
		return &DenialError{Reason: "no authorization in progress"}
	}
	if state == "" || state != a.nonce {
		a.resetLocked()
		return &DenialError{Reason: "state mismatch"}
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		a.resetLocked()
		return fmt.Errorf("failed to exchange code: %w", Classify(err))
	}

	err = a.tokens.Save(fromOAuth2(a.userID, token))
	if err != nil {
		a.resetLocked()
		return fmt.Errorf("failed to save sheets token: %w", err)
	}

	a.token = token
	a.state = Authorized
	a.nonce = ""
	slog.InfoContext(ctx, "google sheets authorized", "user_id", a.userID)
	return nil
}

// Deny abandons the authorization, e.g. when the consent window was closed.
func (a *AuthSession) Deny(reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.expireLocked()
	if a.timedOut {
		return ErrAuthorizationTimeout
	}
	a.resetLocked()
	return &DenialError{Reason: reason}
}

func (a *AuthSession) resetLocked() {
	a.state = Unauthenticated
	a.nonce = ""
	a.token = nil
}

// TokenSource returns a source for the held grant. Refreshed tokens are
// persisted. A grant that can no longer be refreshed drops the session back
// to Unauthenticated.
func (a *AuthSession) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Authorized || a.token == nil {
		return nil, ErrUnauthenticated
	}
	if !a.token.Valid() && a.token.RefreshToken == "" {
		a.expireGrantLocked()
		return nil, ErrUnauthenticated
	}

	return &persistingSource{
		session: a,
		base:    a.config.TokenSource(ctx, a.token),
		last:    a.token.AccessToken,
	}, nil
}

func (a *AuthSession) expireGrantLocked() {
	a.resetLocked()
	err := a.tokens.Delete(a.userID)
	if err != nil {
		slog.Error("failed to delete expired sheets token", "error", err, "user_id", a.userID)
	}
	slog.Info("google sheets grant expired", "user_id", a.userID)
}

type persistingSource struct {
	session *AuthSession
	base    oauth2.TokenSource
	mu      sync.Mutex
	last    string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			p.session.mu.Lock()
			p.session.expireGrantLocked()
			p.session.mu.Unlock()
		}
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken == p.last {
		return token, nil
	}
	p.last = token.AccessToken

	p.session.mu.Lock()
	p.session.token = token
	p.session.mu.Unlock()

	err = p.session.tokens.Save(fromOAuth2(p.session.userID, token))
	if err != nil {
		slog.Error("failed to save refreshed sheets token", "error", err, "user_id", p.session.userID)
	}
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func toOAuth2(t *model.OAuthToken) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.Expiry != nil {
		token.Expiry = *t.Expiry
	}
	return token
}

func fromOAuth2(userID string, t *oauth2.Token) *model.OAuthToken {
	token := &model.OAuthToken{
		UserID:       userID,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if !t.Expiry.IsZero() {
		expiry := t.Expiry
		token.Expiry = &expiry
	}
	return token
}
