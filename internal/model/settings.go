package model

// NotificationSettings holds a user's reminder preferences. Schedule entries
// are 24-hour "HH:MM" strings. The API accepts duplicate entries (only the
// editing UI deduplicates), so storage keeps whatever was accepted.
type NotificationSettings struct {
	Enabled              bool     `json:"enabled"`
	Schedule             []string `json:"schedule"`
	LastNotificationDate string   `json:"lastNotificationDate"`
}

// DefaultNotificationSettings is the value read back whenever nothing was
// stored or the stored value cannot be decoded.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:              false,
		Schedule:             []string{},
		LastNotificationDate: "",
	}
}
