package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/threewords/journal/internal/ctxkeys"
	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/model"
	"github.com/threewords/journal/internal/notify"
	"github.com/threewords/journal/internal/service"
	"github.com/threewords/journal/internal/validation"
)

type entryHandler struct {
	journalService *service.JournalService
	archiveService *service.ArchiveService
}

func NewEntryHandler(journalService *service.JournalService, archiveService *service.ArchiveService) *entryHandler {
	return &entryHandler{
		journalService: journalService,
		archiveService: archiveService,
	}
}

type entryResponse struct {
	Entry        *model.Entry        `json:"entry"`
	Notification notify.Notification `json:"notification"`
}

// List returns the journal, optionally filtered by q, tag and range.
func (h *entryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	query := r.URL.Query()

	filter := journal.Filter{
		Query: query.Get("q"),
		Tags:  query["tag"],
		Range: journal.Range(query.Get("range")),
	}
	if !filter.Range.Valid() {
		writeMessage(w, http.StatusBadRequest, "Unknown date range.")
		return
	}

	entries := h.journalService.List(r.Context(), user.ID, filter)
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *entryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.EntryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.journalService.Add(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entryResponse{Entry: entry, Notification: notify.Success("Entry saved!")})
}

func (h *entryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var input service.EntryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.journalService.Edit(r.Context(), user.ID, id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{Entry: entry, Notification: notify.Success("Entry updated!")})
}

func (h *entryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, ok := entryID(w, r)
	if !ok {
		return
	}

	err := h.journalService.Delete(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notification": notify.Success("Entry deleted.")})
}

// Story returns the entry's full story rendered as HTML.
func (h *entryHandler) Story(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	id, ok := entryID(w, r)
	if !ok {
		return
	}

	html, err := h.journalService.Story(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (h *entryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	writeJSON(w, http.StatusOK, h.journalService.Stats(r.Context(), user.ID))
}

func (h *entryHandler) Tags(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.journalService.Tags(r.Context(), user.ID)})
}

// Export downloads the journal as a JSON file.
func (h *entryHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	data, filename, err := h.journalService.Export(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	if err != nil {
		slog.Error("failed to write export", "error", err, "user_id", user.ID)
	}
}

// Archive stores the export in object storage and returns a download link.
func (h *entryHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	archive, err := h.archiveService.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archive":      archive,
		"notification": notify.Success("Export archived!"),
	})
}

// Import accepts an exported file either as the raw body or as the "file"
// field of a multipart form.
func (h *entryHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	constraints := validation.JSONConstraints

	r.Body = http.MaxBytesReader(w, r.Body, constraints.MaxSize+1<<20)

	var data []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, err = readUpload(r, constraints)
	} else {
		data, err = io.ReadAll(io.LimitReader(r.Body, constraints.MaxSize+1))
		if err == nil && int64(len(data)) > constraints.MaxSize {
			err = &validation.Error{Field: "file", Message: fmt.Sprintf("File too large: maximum size is %d MB", constraints.MaxSize/(1<<20))}
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	count, err := h.journalService.Import(r.Context(), user.ID, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"imported":     count,
		"notification": notify.Success(fmt.Sprintf("Imported %d entries!", count)),
	})
}

func readUpload(r *http.Request, constraints validation.FileConstraints) ([]byte, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &validation.Error{Field: "file", Message: "Please choose a file to import."}
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close upload", "error", closeErr)
		}
	}()

	err = validation.ValidateFile(header, constraints)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(file)
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid entry id.")
		return 0, false
	}
	return id, true
}
