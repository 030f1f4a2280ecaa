package review

import (
	"sync"
	"testing"
	"time"
)

func TestGetUnknownDevice(t *testing.T) {
	s := NewSessions()

	state := s.Get("device-1")
	if len(state.ReviewedIDs) != 0 || len(state.SkippedIDs) != 0 {
		t.Errorf("fresh session not empty: %+v", state)
	}
	if state.SessionStats.Reviewed != 0 || state.SessionStats.Skipped != 0 {
		t.Errorf("fresh session has stats: %+v", state.SessionStats)
	}
}

func TestMarkReviewedAndSkipped(t *testing.T) {
	s := NewSessions()
	s.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	s.MarkReviewed("device-1", "a")
	s.MarkReviewed("device-1", "b")
	state := s.MarkSkipped("device-1", "c")

	if len(state.ReviewedIDs) != 2 || state.ReviewedIDs[0] != "a" || state.ReviewedIDs[1] != "b" {
		t.Errorf("reviewedIds = %v", state.ReviewedIDs)
	}
	if len(state.SkippedIDs) != 1 || state.SkippedIDs[0] != "c" {
		t.Errorf("skippedIds = %v", state.SkippedIDs)
	}
	if state.SessionStats.Reviewed != 2 || state.SessionStats.Skipped != 1 {
		t.Errorf("stats = %+v", state.SessionStats)
	}
	if state.LastReviewDate != "2026-03-14" {
		t.Errorf("lastReviewDate = %q", state.LastReviewDate)
	}
}

func TestSessionsAreIsolatedPerDevice(t *testing.T) {
	s := NewSessions()

	s.MarkReviewed("device-1", "a")
	if state := s.Get("device-2"); len(state.ReviewedIDs) != 0 {
		t.Errorf("device-2 session polluted: %v", state.ReviewedIDs)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewSessions()

	s.MarkReviewed("device-1", "a")
	s.MarkSkipped("device-1", "b")
	state := s.Reset("device-1")

	if len(state.ReviewedIDs) != 0 || len(state.SkippedIDs) != 0 {
		t.Errorf("reset left ids behind: %+v", state)
	}
	if state.SessionStats.Reviewed != 0 || state.SessionStats.Skipped != 0 {
		t.Errorf("reset left stats behind: %+v", state.SessionStats)
	}
	if got := s.Get("device-1"); len(got.ReviewedIDs) != 0 {
		t.Errorf("reset did not persist: %+v", got)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := NewSessions()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.MarkReviewed("device-1", "x")
			}
		}()
	}
	wg.Wait()

	state := s.Get("device-1")
	if state.SessionStats.Reviewed != 1000 {
		t.Errorf("reviewed = %d, want 1000", state.SessionStats.Reviewed)
	}
}
