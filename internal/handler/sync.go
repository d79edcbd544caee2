package handler

import (
	"net/http"

	"github.com/threewords/journal/internal/ctxkeys"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/notify"
	"github.com/threewords/journal/internal/service"
)

type syncHandler struct {
	syncService *service.SyncService
}

func NewSyncHandler(syncService *service.SyncService) *syncHandler {
	return &syncHandler{syncService: syncService}
}

type syncResponse struct {
	Result       *service.SyncResult `json:"result"`
	Notification notify.Notification `json:"notification"`
}

// Sync pulls, merges and pushes. Without a Sheets grant it answers 401 with
// the URL the client must open.
func (h *syncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	result, err := h.syncService.Sync(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Result: result, Notification: syncNotification(model.SyncDirectionPush, result)})
}

func (h *syncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	result, err := h.syncService.Pull(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Result: result, Notification: syncNotification(model.SyncDirectionPull, result)})
}

// syncNotification describes what actually ran. A shared result may come
// from an exchange started in the other direction.
func syncNotification(requested string, result *service.SyncResult) notify.Notification {
	if result.Direction == model.SyncDirectionPull {
		if result.Shared && requested == model.SyncDirectionPush {
			return notify.Info("A pull was already running. Entries were loaded from Google Sheets but not saved back; sync again to update the sheet.")
		}
		return notify.Success("Loaded entries from Google Sheets!")
	}
	if result.Created {
		return notify.Success("Created Google Sheet and synced!")
	}
	return notify.Success("Synced to Google Sheets!")
}

func (h *syncHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": h.syncService.Status(r.Context(), user.ID)})
}

// Unlink forgets the spreadsheet so the next sync starts a new one.
func (h *syncHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.syncService.UnlinkSpreadsheet(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notification": notify.Info("Spreadsheet unlinked. The next sync creates a new one."),
	})
}
