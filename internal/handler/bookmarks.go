package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rswinton/marginalia/internal/bookmarks"
	"github.com/rswinton/marginalia/internal/model"
)

type BookmarkHandler struct {
	service *bookmarks.Service
	logger  *slog.Logger
}

func NewBookmarkHandler(svc *bookmarks.Service, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{service: svc, logger: logger}
}

type listResponse struct {
	Bookmarks  []model.Bookmark `json:"bookmarks"`
	HasMore    bool             `json:"hasMore"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// List handles GET /api/bookmarks?pageSize=&cursor=&search=
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	cursor := r.URL.Query().Get("cursor")
	search := r.URL.Query().Get("search")

	page, err := h.service.List(r.Context(), pageSize, cursor, search)
	if err != nil {
		if errors.Is(err, bookmarks.ErrUnavailable) {
			writeOffline(w)
			return
		}
		h.logger.Error("list bookmarks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list bookmarks"})
		return
	}

	resp := listResponse{
		Bookmarks:  page.Bookmarks,
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	}
	if resp.Bookmarks == nil {
		resp.Bookmarks = []model.Bookmark{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Featured handles GET /api/bookmarks/featured
func (h *BookmarkHandler) Featured(w http.ResponseWriter, r *http.Request) {
	picks, err := h.service.Featured(r.Context())
	if err != nil {
		if errors.Is(err, bookmarks.ErrUnavailable) {
			writeOffline(w)
			return
		}
		h.logger.Error("featured bookmarks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to pick featured bookmarks"})
		return
	}
	if picks == nil {
		picks = []model.Bookmark{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": picks})
}
