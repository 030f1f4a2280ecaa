package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rswinton/marginalia/internal/model"
	"github.com/rswinton/marginalia/internal/schedule"
	"github.com/rswinton/marginalia/internal/store"
	"github.com/rswinton/marginalia/internal/websocket"
)

// Rescheduler re-arms the reminder scheduler after a settings write.
type Rescheduler interface {
	Reschedule()
}

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	scheduler     Rescheduler
	hub           *websocket.Hub
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, scheduler Rescheduler, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	v := validator.New()
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return schedule.ValidTime(fl.Field().String())
	})
	return &SettingsHandler{
		settingsStore: ss,
		scheduler:     scheduler,
		hub:           hub,
		validate:      v,
		logger:        logger,
	}
}

// Get handles GET /api/settings/notifications
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.Get(store.DefaultUserID)
	if err != nil {
		h.logger.Error("get notification settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get settings"})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type settingsRequest struct {
	Enabled              *bool     `json:"enabled"`
	Schedule             *[]string `json:"schedule"`
	LastNotificationDate *string   `json:"lastNotificationDate"`
}

// Update handles POST /api/settings/notifications. Schedule entries must
// match HH:MM; duplicates are accepted as-is, deduplication is the editing
// UI's concern.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Enabled == nil || req.Schedule == nil || req.LastNotificationDate == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled, schedule, and lastNotificationDate are required"})
		return
	}

	for _, entry := range *req.Schedule {
		if err := h.validate.Var(entry, "hhmm"); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("invalid schedule entry %q: must be 24-hour HH:MM", entry),
			})
			return
		}
	}

	settings := model.NotificationSettings{
		Enabled:              *req.Enabled,
		Schedule:             *req.Schedule,
		LastNotificationDate: *req.LastNotificationDate,
	}
	if err := h.settingsStore.Put(store.DefaultUserID, settings); err != nil {
		h.logger.Error("save notification settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("settings", "updated", "", nil))
	}
	if h.scheduler != nil {
		h.scheduler.Reschedule()
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
}
