package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyUnconfiguredPassesThrough(t *testing.T) {
	h := APIKey("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no key configured", rec.Code)
	}
}

func TestAPIKeyBearerHeader(t *testing.T) {
	h := APIKey("s3cret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for valid bearer key", rec.Code)
	}
}

func TestAPIKeyCustomHeader(t *testing.T) {
	h := APIKey("s3cret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for valid X-API-Key", rec.Code)
	}
}

func TestAPIKeyRejectsMissingAndWrong(t *testing.T) {
	h := APIKey("s3cret")(okHandler())

	// Missing
	req := httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for missing key", rec.Code)
	}

	// Wrong
	req = httptest.NewRequest(http.MethodGet, "/api/settings/notifications", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for wrong key", rec.Code)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.Allow("key", 5, time.Minute) {
		t.Error("6th request should be denied")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, 10*time.Millisecond)
	}

	if rl.Allow("key", 3, 10*time.Millisecond) {
		t.Error("should be blocked within window")
	}

	time.Sleep(15 * time.Millisecond)

	if !rl.Allow("key", 3, 10*time.Millisecond) {
		t.Error("should be allowed after window expires")
	}
}
