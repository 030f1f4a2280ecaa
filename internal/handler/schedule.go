package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rswinton/marginalia/internal/bookmarks"
	"github.com/rswinton/marginalia/internal/model"
	"github.com/rswinton/marginalia/internal/schedule"
	"github.com/rswinton/marginalia/internal/store"
)

type ScheduleHandler struct {
	settingsStore *store.SettingsStore
	bookmarks     *bookmarks.Service
	logger        *slog.Logger
	now           func() time.Time
}

func NewScheduleHandler(ss *store.SettingsStore, svc *bookmarks.Service, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		settingsStore: ss,
		bookmarks:     svc,
		logger:        logger,
		now:           time.Now,
	}
}

type scheduleResponse struct {
	NextNotificationTime *string         `json:"nextNotificationTime"`
	BookmarkPreview      *model.Bookmark `json:"bookmarkPreview"`
}

// Next handles GET /api/notifications/schedule. The next firing time is
// computed from the stored settings; the preview degrades to null rather
// than failing when the source is down.
func (h *ScheduleHandler) Next(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.Get(store.DefaultUserID)
	if err != nil {
		h.logger.Error("get settings for schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get settings"})
		return
	}

	var resp scheduleResponse
	if settings.Enabled {
		if next, _, ok := schedule.NextFromSchedule(h.now(), settings.Schedule); ok {
			iso := next.Format(time.RFC3339)
			resp.NextNotificationTime = &iso
		}
	}

	preview, err := h.bookmarks.Preview(r.Context())
	if err != nil {
		h.logger.Warn("preview bookmark for schedule", "error", err)
	} else {
		resp.BookmarkPreview = preview
	}

	writeJSON(w, http.StatusOK, resp)
}
