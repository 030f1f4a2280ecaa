// Package review tracks flashcard sessions in process memory, one per
// device. State is deliberately ephemeral: a restart forgets every session,
// matching the on-device session storage it mirrors.
package review

import (
	"sync"
	"time"

	"github.com/rswinton/marginalia/internal/model"
)

// Sessions is the per-device session registry. Concurrent writers for the
// same device race with last-write-wins semantics; there is no versioning.
type Sessions struct {
	mu    sync.RWMutex
	byDev map[string]model.ReviewState
	now   func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		byDev: make(map[string]model.ReviewState),
		now:   time.Now,
	}
}

// Get returns the device's session, or an empty one if none exists yet.
func (s *Sessions) Get(deviceID string) model.ReviewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.byDev[deviceID]
	if !ok {
		return model.DefaultReviewState()
	}
	return state
}

// MarkReviewed appends a bookmark to the reviewed set. The reviewed and
// skipped sets are kept disjoint by the caller's flow, not enforced here.
func (s *Sessions) MarkReviewed(deviceID, bookmarkID string) model.ReviewState {
	return s.update(deviceID, func(state *model.ReviewState) {
		state.ReviewedIDs = append(state.ReviewedIDs, bookmarkID)
		state.SessionStats.Reviewed++
	})
}

// MarkSkipped appends a bookmark to the skipped set.
func (s *Sessions) MarkSkipped(deviceID, bookmarkID string) model.ReviewState {
	return s.update(deviceID, func(state *model.ReviewState) {
		state.SkippedIDs = append(state.SkippedIDs, bookmarkID)
		state.SessionStats.Skipped++
	})
}

// Reset ends the session, returning both sets and the stats to defaults.
func (s *Sessions) Reset(deviceID string) model.ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := model.DefaultReviewState()
	s.byDev[deviceID] = state
	return state
}

func (s *Sessions) update(deviceID string, mutate func(*model.ReviewState)) model.ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.byDev[deviceID]
	if !ok {
		state = model.DefaultReviewState()
	}
	mutate(&state)
	state.LastReviewDate = s.now().Format("2006-01-02")
	s.byDev[deviceID] = state
	return state
}
