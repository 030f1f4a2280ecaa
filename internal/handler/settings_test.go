package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rswinton/marginalia/internal/database"
	"github.com/rswinton/marginalia/internal/model"
	"github.com/rswinton/marginalia/internal/store"
)

type stubRescheduler struct {
	calls int
}

func (s *stubRescheduler) Reschedule() { s.calls++ }

func newSettingsFixture(t *testing.T) (*SettingsHandler, *store.SettingsStore, *stubRescheduler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ss := store.NewSettingsStore(db)
	sched := &stubRescheduler{}
	return NewSettingsHandler(ss, sched, nil, slog.Default()), ss, sched
}

func postSettings(t *testing.T, h *SettingsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/settings/notifications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	return rec
}

func TestGetSettingsDefaults(t *testing.T) {
	h, _, _ := newSettingsFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got model.NotificationSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := model.DefaultNotificationSettings()
	if got.Enabled != want.Enabled || len(got.Schedule) != len(want.Schedule) {
		t.Errorf("got %+v, want defaults %+v", got, want)
	}
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	h, ss, sched := newSettingsFixture(t)

	rec := postSettings(t, h, `{"enabled":true,"schedule":["08:15","21:00"],"lastNotificationDate":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if sched.calls != 1 {
		t.Errorf("reschedule calls = %d, want 1", sched.calls)
	}

	stored, err := ss.Get(store.DefaultUserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Enabled || len(stored.Schedule) != 2 || stored.Schedule[0] != "08:15" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpdateSettingsRejectsMalformedTime(t *testing.T) {
	h, _, sched := newSettingsFixture(t)

	for _, body := range []string{
		`{"enabled":true,"schedule":["9:00"],"lastNotificationDate":""}`,
		`{"enabled":true,"schedule":["24:00"],"lastNotificationDate":""}`,
		`{"enabled":true,"schedule":["09:60"],"lastNotificationDate":""}`,
		`{"enabled":true,"schedule":["0900"],"lastNotificationDate":""}`,
	} {
		rec := postSettings(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
	if sched.calls != 0 {
		t.Errorf("reschedule calls = %d, want 0", sched.calls)
	}
}

func TestUpdateSettingsRejectsMissingFields(t *testing.T) {
	h, _, _ := newSettingsFixture(t)

	for _, body := range []string{
		`{}`,
		`{"enabled":true}`,
		`{"schedule":["09:00"],"lastNotificationDate":""}`,
		`not json`,
	} {
		rec := postSettings(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateSettingsAcceptsDuplicateEntries(t *testing.T) {
	h, ss, _ := newSettingsFixture(t)

	rec := postSettings(t, h, `{"enabled":true,"schedule":["09:00","09:00"],"lastNotificationDate":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	stored, err := ss.Get(store.DefaultUserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Schedule) != 2 {
		t.Errorf("schedule = %v, duplicates should be stored as sent", stored.Schedule)
	}
}

func TestUpdateSettingsAcceptsEmptySchedule(t *testing.T) {
	h, _, sched := newSettingsFixture(t)

	rec := postSettings(t, h, `{"enabled":false,"schedule":[],"lastNotificationDate":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if sched.calls != 1 {
		t.Errorf("reschedule calls = %d, want 1", sched.calls)
	}
}
