package handler

import (
	"net/http"

	"github.com/threewords/journal/internal/service"
)

type wordsHandler struct {
	wordsService *service.WordsService
}

func NewWordsHandler(wordsService *service.WordsService) *wordsHandler {
	return &wordsHandler{wordsService: wordsService}
}

type generateWordsRequest struct {
	ExperienceText string `json:"experienceText"`
}

// Generate answers {"words": [a, b, c]} or a non-2xx {"error": "..."}.
func (h *wordsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req generateWordsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	words, err := h.wordsService.Generate(r.Context(), req.ExperienceText)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": words})
}
