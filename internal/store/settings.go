package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rswinton/marginalia/internal/model"
)

// DefaultUserID is the placeholder identity for this single-user deployment.
const DefaultUserID = "default"

// SettingsStore persists notification settings as one JSON document per user.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored settings for a user. A missing row or an
// undecodable document reads as the defaults, never an error — writes are
// validated at the API boundary, reads fall back silently.
func (s *SettingsStore) Get(userID string) (model.NotificationSettings, error) {
	var raw string
	err := s.db.QueryRow(`SELECT settings FROM notification_settings WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return model.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return model.NotificationSettings{}, fmt.Errorf("get settings for %q: %w", userID, err)
	}

	var settings model.NotificationSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return model.DefaultNotificationSettings(), nil
	}
	if settings.Schedule == nil {
		settings.Schedule = []string{}
	}
	return settings, nil
}

// Put upserts a user's settings. Last writer wins; there is no versioning.
func (s *SettingsStore) Put(userID string, settings model.NotificationSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO notification_settings (user_id, settings, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET settings = excluded.settings, updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put settings for %q: %w", userID, err)
	}
	return nil
}

// SetLastNotificationDate updates only the lastNotificationDate field,
// preserving the rest of the stored document.
func (s *SettingsStore) SetLastNotificationDate(userID, date string) error {
	settings, err := s.Get(userID)
	if err != nil {
		return err
	}
	settings.LastNotificationDate = date
	return s.Put(userID, settings)
}
