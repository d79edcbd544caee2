package routes

import (
	"net/http"

	"github.com/threewords/journal/internal/app"
	"github.com/threewords/journal/internal/handler"
	"github.com/threewords/journal/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, app.SyncService, app.Sessions, app.Cfg)
	entries := handler.NewEntryHandler(app.JournalService, app.ArchiveService)
	sync := handler.NewSyncHandler(app.SyncService)
	words := handler.NewWordsHandler(app.WordsService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Check)

	// ============================================================================
	// AUTH
	// ============================================================================

	rateLimiter := middleware.RateLimitAuth()

	// Google sign-in
	mux.HandleFunc("GET /auth/google", rateLimiter(middleware.RequireGuest(auth.GoogleAuth)))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Google Sheets grant
	mux.HandleFunc("GET /auth/sheets", rateLimiter(middleware.RequireAuth(auth.SheetsAuth)))
	mux.HandleFunc("GET /auth/sheets/callback", rateLimiter(middleware.RequireAuth(auth.SheetsCallback)))

	// ============================================================================
	// API (/api/*)
	// ============================================================================

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("DELETE /api/account", middleware.RequireAuth(auth.DeleteAccount))

	// Entries
	mux.HandleFunc("GET /api/entries", middleware.RequireAuth(entries.List))
	mux.HandleFunc("POST /api/entries", middleware.RequireAuth(entries.Create))
	mux.HandleFunc("GET /api/entries/stats", middleware.RequireAuth(entries.Stats))
	mux.HandleFunc("GET /api/entries/export", middleware.RequireAuth(entries.Export))
	mux.HandleFunc("POST /api/entries/export/archive", middleware.RequireAuth(entries.Archive))
	mux.HandleFunc("POST /api/entries/import", middleware.RequireAuth(entries.Import))
	mux.HandleFunc("PUT /api/entries/{id}", middleware.RequireAuth(entries.Update))
	mux.HandleFunc("DELETE /api/entries/{id}", middleware.RequireAuth(entries.Delete))
	mux.HandleFunc("GET /api/entries/{id}/story", middleware.RequireAuth(entries.Story))
	mux.HandleFunc("GET /api/tags", middleware.RequireAuth(entries.Tags))

	// Sync
	mux.HandleFunc("POST /api/sync", middleware.RequireAuth(sync.Sync))
	mux.HandleFunc("POST /api/sync/pull", middleware.RequireAuth(sync.Pull))
	mux.HandleFunc("GET /api/sync/status", middleware.RequireAuth(sync.Status))
	mux.HandleFunc("DELETE /api/sync/spreadsheet", middleware.RequireAuth(sync.Unlink))

	// Word suggestions (public, any method so others get a JSON 405)
	mux.HandleFunc("/api/generate-words", middleware.RateLimitWords()(words.Generate))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by CSRF cookie flags)
		middleware.RequestLogging,
		middleware.CSRFProtection, // CSRF protection for all state-changing requests
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)

	return handler
}
