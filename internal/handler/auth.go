package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/threewords/journal/internal/config"
	"github.com/threewords/journal/internal/ctxkeys"
	"github.com/threewords/journal/internal/notify"
	"github.com/threewords/journal/internal/service"
	"github.com/threewords/journal/internal/sheets"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type authHandler struct {
	authService       *service.AuthService
	userService       *service.UserService
	syncService       *service.SyncService
	sessions          *sheets.Sessions
	googleOAuthConfig *oauth2.Config
	userInfoURL       string
	autoPull          bool
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, syncService *service.SyncService, sessions *sheets.Sessions, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		userService: userService,
		syncService: syncService,
		sessions:    sessions,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		autoPull:    cfg.AutoPull,
	}
}

// Logout ends the session. Entries stay stored for the next sign-in.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user != nil {
		h.authService.SignOut(r.Context(), user.ID)
		slog.Info("user logged out", "user_id", user.ID)
	}
	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"notification": notify.Info("Signed out.")})
}

// Me returns the signed-in user with sync and Sheets authorization state,
// plus the CSRF token to echo back on writes.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := h.userService.Profile(r.Context(), user)
	profile.CSRFToken = ctxkeys.CSRFToken(r.Context())
	writeJSON(w, http.StatusOK, profile)
}

// DeleteAccount removes the user and everything stored for them.
func (h *authHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.Delete(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.authService.ClearJWTCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"notification": notify.Info("Your account has been deleted.")})
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	// Generate secure state token for CSRF protection
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	// Store state in secure cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction, // Secure flag based on APP_ENV (safer than r.TLS behind load balancers)
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	authURL := h.googleOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// GoogleCallback signs the user in and starts a silent pull from their
// spreadsheet when a Sheets grant is already held.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// Validate state parameter for CSRF protection
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		redirectWithError(w, r, "Sign-in failed. Please try again.")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code", "error", r.URL.Query().Get("error"))
		redirectWithError(w, r, "Sign-in failed. Please try again.")
		return
	}

	// Exchange code for token
	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		redirectWithError(w, r, "Sign-in failed. Please try again.")
		return
	}

	info, err := h.fetchUserInfo(r.Context(), token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		redirectWithError(w, r, "Sign-in failed. Please try again.")
		return
	}

	user, err := h.authService.AuthenticateGoogle(r.Context(), *info)
	if err != nil {
		slog.Error("google authentication failed", "error", err, "email", info.Email)
		redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	// Generate JWT
	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		redirectWithError(w, r, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.authService.JWTExpiry()))

	slog.Info("user logged in with google oauth", "user_id", user.ID, "email", user.Email)

	if h.autoPull {
		go h.syncService.AutoPull(context.WithoutCancel(r.Context()), user.ID)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *authHandler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*service.GoogleUserInfo, error) {
	client := h.googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info service.GoogleUserInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// SheetsAuth starts the Google Sheets grant for the signed-in user.
func (h *authHandler) SheetsAuth(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	authURL, err := h.sessions.Get(user.ID).Begin()
	if err != nil {
		slog.Error("failed to start sheets authorization", "error", err, "user_id", user.ID)
		redirectWithError(w, r, "Could not start Google Sheets authorization. Please try again.")
		return
	}
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// SheetsCallback finishes the grant. Google reports a declined consent with
// an error parameter instead of a code.
func (h *authHandler) SheetsCallback(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	session := h.sessions.Get(user.ID)
	query := r.URL.Query()

	var err error
	if reason := query.Get("error"); reason != "" || query.Get("code") == "" {
		err = session.Deny(reason)
	} else {
		err = session.Complete(r.Context(), query.Get("state"), query.Get("code"))
	}
	if err != nil {
		slog.Warn("sheets authorization failed", "error", err, "user_id", user.ID)
		redirectWithError(w, r, sheets.Guidance(err))
		return
	}

	http.Redirect(w, r, "/?sheets=authorized", http.StatusSeeOther)
}

// redirectWithError sends the browser home with a message to show.
func redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(message), http.StatusSeeOther)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
