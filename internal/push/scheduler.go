package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rswinton/marginalia/internal/model"
	"github.com/rswinton/marginalia/internal/schedule"
	"github.com/rswinton/marginalia/internal/store"
	"github.com/rswinton/marginalia/internal/websocket"
)

const logRetention = 7 * 24 * time.Hour

// PreviewSource supplies the random bookmark embedded in a reminder body.
type PreviewSource interface {
	Preview(ctx context.Context) (*model.Bookmark, error)
}

// Scheduler delivers bookmark-review reminders at the user's daily HH:MM
// times. It arms one timer for the earliest upcoming occurrence; each firing
// schedules its successor. The notification log's occurrence claim keeps a
// second scheduler (or a restarted process re-arming the same minute) from
// double-delivering.
type Scheduler struct {
	sender    Sender
	settings  *store.SettingsStore
	subs      *store.PushStore
	log       *store.NotificationLogStore
	bookmarks PreviewSource
	hub       *websocket.Hub
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	next    time.Time
	nextSet bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(sender Sender, settingsStore *store.SettingsStore, pushStore *store.PushStore, logStore *store.NotificationLogStore, source PreviewSource, hub *websocket.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sender:    sender,
		settings:  settingsStore,
		subs:      pushStore,
		log:       logStore,
		bookmarks: source,
		hub:       hub,
		logger:    logger,
		now:       time.Now,
	}
}

// Start arms the scheduler from whatever settings are stored, independent of
// any page being open.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.armLocked()
	s.mu.Unlock()
}

// Stop cancels the armed timer. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.disarmLocked()
}

// Reschedule recomputes the next occurrence from current settings, replacing
// whatever was armed. Called after every settings write; a disabled or empty
// schedule leaves nothing armed.
func (s *Scheduler) Reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	s.disarmLocked()
	s.armLocked()
}

// NextRun returns the armed occurrence, if any.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next, s.nextSet
}

func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextSet = false
}

func (s *Scheduler) armLocked() {
	settings, err := s.settings.Get(store.DefaultUserID)
	if err != nil {
		s.logger.Error("scheduler: read settings", "error", err)
		return
	}
	if !settings.Enabled || len(settings.Schedule) == 0 {
		return
	}

	now := s.now()
	next, entry, ok := schedule.NextFromSchedule(now, settings.Schedule)
	if !ok {
		s.logger.Warn("scheduler: no valid schedule entries", "schedule", settings.Schedule)
		return
	}

	s.next = next
	s.nextSet = true
	s.timer = time.AfterFunc(next.Sub(now), func() {
		s.fire(next)
	})
	s.logger.Info("scheduler: reminder armed", "entry", entry, "at", next)
}

// fire delivers one occurrence and arms the next. Failures are logged and
// never break the chain: a misfired occurrence must not end the lineage.
func (s *Scheduler) fire(occurrence time.Time) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	if err := s.deliver(ctx, occurrence); err != nil {
		s.logger.Error("scheduler: deliver reminder", "occurrence", occurrence, "error", err)
	}

	s.mu.Lock()
	if s.ctx != nil && s.ctx.Err() == nil {
		s.disarmLocked()
		s.armLocked()
	}
	s.mu.Unlock()

	if err := s.log.Cleanup(s.now().Add(-logRetention)); err != nil {
		s.logger.Warn("scheduler: cleanup notification log", "error", err)
	}
}

func (s *Scheduler) deliver(ctx context.Context, occurrence time.Time) error {
	key := schedule.OccurrenceKey(occurrence)
	won, err := s.log.Claim(store.DefaultUserID, key)
	if err != nil {
		return fmt.Errorf("claim occurrence: %w", err)
	}
	if !won {
		s.logger.Debug("scheduler: occurrence already delivered", "occurrence", key)
		return nil
	}

	preview, err := s.bookmarks.Preview(ctx)
	if err != nil {
		// The claim stands: retrying this occurrence later would violate
		// the at-most-once contract, so the miss is final.
		return fmt.Errorf("fetch preview bookmark: %w", err)
	}

	payload := Payload{
		Title: "Time to review a bookmark",
		Body:  "Open your flashcards for today's review",
		URL:   "/flashcards",
		Tag:   "bookmark-reminder",
	}
	if preview != nil {
		payload.Body = fmt.Sprintf("How about revisiting %q?", preview.Name)
	}

	subs, err := s.subs.ListByUser(store.DefaultUserID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		if err := s.sender.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.subs.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("scheduler: send reminder", "endpoint", sub.Endpoint, "error", err)
			}
			continue
		}
		sent++
	}

	date := occurrence.Format("2006-01-02")
	if err := s.settings.SetLastNotificationDate(store.DefaultUserID, date); err != nil {
		s.logger.Warn("scheduler: record last notification date", "error", err)
	}

	if s.hub != nil {
		extra := map[string]any{"occurrence": key, "sent": sent}
		if preview != nil {
			extra["bookmark"] = preview
		}
		s.hub.Broadcast(websocket.NewMessage("notification", "sent", "", extra))
	}

	s.logger.Info("scheduler: reminder delivered", "occurrence", key, "devices", sent)
	return nil
}
