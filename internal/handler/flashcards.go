package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rswinton/marginalia/internal/bookmarks"
	"github.com/rswinton/marginalia/internal/model"
)

type FlashcardHandler struct {
	service *bookmarks.Service
	logger  *slog.Logger
}

func NewFlashcardHandler(svc *bookmarks.Service, logger *slog.Logger) *FlashcardHandler {
	return &FlashcardHandler{service: svc, logger: logger}
}

type randomResponse struct {
	Bookmark       *model.Bookmark `json:"bookmark"`
	RemainingCount int             `json:"remainingCount"`
}

// Random handles GET /api/flashcards/random?excludeIds=id1,id2
func (h *FlashcardHandler) Random(w http.ResponseWriter, r *http.Request) {
	var exclude []string
	if raw := r.URL.Query().Get("excludeIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				exclude = append(exclude, id)
			}
		}
	}

	picks, remaining, err := h.service.Random(r.Context(), 1, exclude)
	if err != nil {
		if errors.Is(err, bookmarks.ErrUnavailable) {
			writeOffline(w)
			return
		}
		h.logger.Error("random flashcard", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to draw a flashcard"})
		return
	}

	resp := randomResponse{RemainingCount: remaining}
	if len(picks) > 0 {
		resp.Bookmark = &picks[0]
	}
	writeJSON(w, http.StatusOK, resp)
}
