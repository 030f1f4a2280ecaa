package store

import (
	"database/sql"
	"fmt"
	"time"
)

// NotificationLogStore records which occurrences have already been delivered.
// The (user, occurrence) pair is the shared idempotency marker: any number of
// schedulers may race toward the same occurrence, exactly one wins the claim.
type NotificationLogStore struct {
	db *sql.DB
}

func NewNotificationLogStore(db *sql.DB) *NotificationLogStore {
	return &NotificationLogStore{db: db}
}

// Claim attempts to mark an occurrence as delivered. It returns true when
// this caller won the claim and should send, false when someone already did.
func (s *NotificationLogStore) Claim(userID, occurrence string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO notification_log (user_id, occurrence) VALUES (?, ?)`,
		userID, occurrence,
	)
	if err != nil {
		return false, fmt.Errorf("claim occurrence %q: %w", occurrence, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim occurrence %q: %w", occurrence, err)
	}
	return n > 0, nil
}

// WasSent reports whether an occurrence was already claimed.
func (s *NotificationLogStore) WasSent(userID, occurrence string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notification_log WHERE user_id = ? AND occurrence = ?`,
		userID, occurrence,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check occurrence %q: %w", occurrence, err)
	}
	return count > 0, nil
}

// Cleanup deletes claim records older than the given time. Claims only guard
// against near-simultaneous duplicates, so a short retention is plenty.
func (s *NotificationLogStore) Cleanup(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM notification_log WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup notification log: %w", err)
	}
	return nil
}
