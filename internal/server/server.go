package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rswinton/marginalia/internal/bookmarks"
	"github.com/rswinton/marginalia/internal/config"
	"github.com/rswinton/marginalia/internal/handler"
	"github.com/rswinton/marginalia/internal/middleware"
	"github.com/rswinton/marginalia/internal/notion"
	"github.com/rswinton/marginalia/internal/push"
	"github.com/rswinton/marginalia/internal/review"
	"github.com/rswinton/marginalia/internal/store"
	ws "github.com/rswinton/marginalia/internal/websocket"
)

type Server struct {
	db            *sql.DB
	cfg           *config.Config
	hub           *ws.Hub
	bookmarkH     *handler.BookmarkHandler
	flashcardH    *handler.FlashcardHandler
	settingsH     *handler.SettingsHandler
	scheduleH     *handler.ScheduleHandler
	reviewH       *handler.ReviewHandler
	pushH         *handler.PushHandler
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	source := notion.NewClient(notion.Config{
		Token:      cfg.Notion.Token,
		DatabaseID: cfg.Notion.Database,
	}, cfg.Fetch.Timeout)
	bookmarkSvc := bookmarks.NewService(source, cfg.Cache.TTL)

	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	logStore := store.NewNotificationLogStore(db)
	sessions := review.NewSessions()

	pushLogger := logger.With("component", "push")

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.PushConfigured() {
		pushSvc = push.NewService(push.Config{
			VAPIDPublicKey:  cfg.VAPID.Public,
			VAPIDPrivateKey: cfg.VAPID.Private,
			Subscriber:      cfg.VAPID.Subscriber,
		})
		pushSched = push.NewScheduler(pushSvc, settingsStore, pushStore, logStore, bookmarkSvc, hub, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	// A typed nil *push.Scheduler stored in the interface would not
	// compare equal to nil inside the handler.
	var rescheduler handler.Rescheduler
	if pushSched != nil {
		rescheduler = pushSched
	}

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		bookmarkH:     handler.NewBookmarkHandler(bookmarkSvc, logger.With("component", "bookmarks")),
		flashcardH:    handler.NewFlashcardHandler(bookmarkSvc, logger.With("component", "flashcards")),
		settingsH:     handler.NewSettingsHandler(settingsStore, rescheduler, hub, logger.With("component", "settings")),
		scheduleH:     handler.NewScheduleHandler(settingsStore, bookmarkSvc, logger.With("component", "schedule")),
		reviewH:       handler.NewReviewHandler(sessions),
		pushH:         pushH,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// PushScheduler returns the reminder scheduler, nil when VAPID keys are
// not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Read-only bookmark surface
	mux.HandleFunc("GET /api/bookmarks", s.bookmarkH.List)
	mux.HandleFunc("GET /api/bookmarks/featured", s.bookmarkH.Featured)
	mux.HandleFunc("GET /api/flashcards/random", s.flashcardH.Random)

	// Notification settings and schedule
	mux.HandleFunc("GET /api/settings/notifications", s.keyedHandler(s.settingsH.Get))
	mux.HandleFunc("POST /api/settings/notifications", s.keyedHandler(s.rateLimitedHandler(s.settingsH.Update)))
	mux.HandleFunc("GET /api/notifications/schedule", s.keyedHandler(s.scheduleH.Next))

	// Review session routes
	mux.HandleFunc("GET /api/review/session", s.reviewH.GetSession)
	mux.HandleFunc("POST /api/review/session/reviewed", s.reviewH.MarkReviewed)
	mux.HandleFunc("POST /api/review/session/skipped", s.reviewH.MarkSkipped)
	mux.HandleFunc("POST /api/review/session/reset", s.reviewH.ResetSession)

	// Push routes are registered only when VAPID keys are configured
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.keyedHandler(s.rateLimitedHandler(s.pushH.Subscribe)))
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.keyedHandler(s.pushH.Unsubscribe))
		mux.HandleFunc("GET /api/push/subscriptions", s.keyedHandler(s.pushH.ListSubscriptions))
		mux.HandleFunc("POST /api/push/test", s.keyedHandler(s.pushH.TestNotification))
	}

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) keyedHandler(h http.HandlerFunc) http.HandlerFunc {
	guard := middleware.APIKey(s.cfg.API.Key)
	return func(w http.ResponseWriter, r *http.Request) {
		guard(h).ServeHTTP(w, r)
	}
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
