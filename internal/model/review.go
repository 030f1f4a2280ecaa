package model

// SessionStats counts actions taken in the current review session.
type SessionStats struct {
	Reviewed int `json:"reviewed"`
	Skipped  int `json:"skipped"`
}

// ReviewState is the per-device flashcard session memory. Both ID lists are
// append-only within a session and reset together; it lives only in process
// memory and is lost on restart.
type ReviewState struct {
	ReviewedIDs    []string     `json:"reviewedIds"`
	SkippedIDs     []string     `json:"skippedIds"`
	LastReviewDate string       `json:"lastReviewDate"`
	SessionStats   SessionStats `json:"sessionStats"`
}

// DefaultReviewState returns an empty session.
func DefaultReviewState() ReviewState {
	return ReviewState{
		ReviewedIDs: []string{},
		SkippedIDs:  []string{},
	}
}
