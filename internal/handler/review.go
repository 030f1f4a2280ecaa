package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/rswinton/marginalia/internal/review"
)

const deviceIDHeader = "X-Device-ID"

type ReviewHandler struct {
	sessions *review.Sessions
}

func NewReviewHandler(sessions *review.Sessions) *ReviewHandler {
	return &ReviewHandler{sessions: sessions}
}

// deviceID returns the caller's device id, minting one when absent. The id
// is always echoed back so the client can persist it.
func (h *ReviewHandler) deviceID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(deviceIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(deviceIDHeader, id)
	return id
}

// GetSession handles GET /api/review/session
func (h *ReviewHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := h.deviceID(w, r)
	writeJSON(w, http.StatusOK, h.sessions.Get(id))
}

type reviewActionRequest struct {
	BookmarkID string `json:"bookmarkId"`
}

// MarkReviewed handles POST /api/review/session/reviewed
func (h *ReviewHandler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	id := h.deviceID(w, r)

	var req reviewActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookmarkID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bookmarkId is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.MarkReviewed(id, req.BookmarkID))
}

// MarkSkipped handles POST /api/review/session/skipped
func (h *ReviewHandler) MarkSkipped(w http.ResponseWriter, r *http.Request) {
	id := h.deviceID(w, r)

	var req reviewActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookmarkID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bookmarkId is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.MarkSkipped(id, req.BookmarkID))
}

// ResetSession handles POST /api/review/session/reset
func (h *ReviewHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := h.deviceID(w, r)
	writeJSON(w, http.StatusOK, h.sessions.Reset(id))
}
