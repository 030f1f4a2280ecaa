package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rswinton/marginalia/internal/review"
)

func TestReviewSessionMintsDeviceID(t *testing.T) {
	h := NewReviewHandler(review.NewSessions())

	req := httptest.NewRequest(http.MethodGet, "/api/review/session", nil)
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Device-ID") == "" {
		t.Error("X-Device-ID header not set for a fresh client")
	}
}

func TestReviewMarkReviewedAccumulates(t *testing.T) {
	h := NewReviewHandler(review.NewSessions())

	mark := func(path, id string) {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"bookmarkId":"`+id+`"}`))
		req.Header.Set("X-Device-ID", "device-1")
		rec := httptest.NewRecorder()
		switch path {
		case "/api/review/reviewed":
			h.MarkReviewed(rec, req)
		case "/api/review/skipped":
			h.MarkSkipped(rec, req)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status = %d", path, id, rec.Code)
		}
	}

	mark("/api/review/reviewed", "a")
	mark("/api/review/reviewed", "b")
	mark("/api/review/skipped", "c")

	req := httptest.NewRequest(http.MethodGet, "/api/review/session", nil)
	req.Header.Set("X-Device-ID", "device-1")
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	var state struct {
		ReviewedIDs []string `json:"reviewedIds"`
		SkippedIDs  []string `json:"skippedIds"`
		Stats       struct {
			Reviewed int `json:"reviewed"`
			Skipped  int `json:"skipped"`
		} `json:"sessionStats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Stats.Reviewed != 2 || state.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", state.Stats)
	}
	if len(state.ReviewedIDs) != 2 || len(state.SkippedIDs) != 1 {
		t.Errorf("ids = %v / %v, want 2 reviewed and 1 skipped", state.ReviewedIDs, state.SkippedIDs)
	}
}

func TestReviewMarkReviewedRequiresBookmarkID(t *testing.T) {
	h := NewReviewHandler(review.NewSessions())

	req := httptest.NewRequest(http.MethodPost, "/api/review/reviewed", strings.NewReader(`{}`))
	req.Header.Set("X-Device-ID", "device-1")
	rec := httptest.NewRecorder()
	h.MarkReviewed(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReviewResetClearsSession(t *testing.T) {
	sessions := review.NewSessions()
	h := NewReviewHandler(sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/review/reviewed", strings.NewReader(`{"bookmarkId":"a"}`))
	req.Header.Set("X-Device-ID", "device-1")
	h.MarkReviewed(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/review/reset", nil)
	req.Header.Set("X-Device-ID", "device-1")
	rec := httptest.NewRecorder()
	h.ResetSession(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	state := sessions.Get("device-1")
	if len(state.ReviewedIDs) != 0 || state.SessionStats.Reviewed != 0 {
		t.Errorf("state after reset = %+v", state)
	}
}

func TestReviewSessionsIsolatedPerDevice(t *testing.T) {
	h := NewReviewHandler(review.NewSessions())

	req := httptest.NewRequest(http.MethodPost, "/api/review/reviewed", strings.NewReader(`{"bookmarkId":"a"}`))
	req.Header.Set("X-Device-ID", "device-1")
	h.MarkReviewed(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/review/session", nil)
	req.Header.Set("X-Device-ID", "device-2")
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	var state struct {
		ReviewedIDs []string `json:"reviewedIds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.ReviewedIDs) != 0 {
		t.Errorf("device-2 sees device-1 reviews: %v", state.ReviewedIDs)
	}
}
