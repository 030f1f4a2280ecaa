// Package bookmarks serves the mirrored bookmark corpus: paged listing,
// random draws for the flashcard flow, and the notification preview pick.
// The full corpus sits behind a short TTL memo; when the upstream source is
// down the most recent snapshot keeps being served.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rswinton/marginalia/internal/model"
	"github.com/rswinton/marginalia/internal/notion"
)

const (
	// DefaultPageSize applies when the caller asks for nothing.
	DefaultPageSize = 10
	// MaxPageSize is the clamp ceiling for a single page.
	MaxPageSize = 100

	defaultCacheTTL = 5 * time.Minute
	featuredCount   = 3
)

// ErrUnavailable means the source is down and no snapshot exists to fall
// back on.
var ErrUnavailable = errors.New("bookmark source unavailable")

// Source is the remote bookmark database.
type Source interface {
	Query(ctx context.Context, params notion.QueryParams) (notion.Page, error)
	QueryAll(ctx context.Context) ([]model.Bookmark, error)
}

// ListPage is one page of the bookmark list.
type ListPage struct {
	Bookmarks  []model.Bookmark
	HasMore    bool
	NextCursor string
}

// Service wraps the source with caching and selection logic.
type Service struct {
	source Source
	ttl    time.Duration

	mu        sync.RWMutex
	snapshot  []model.Bookmark
	hasSnap   bool
	lastFetch time.Time
}

// NewService creates a bookmark service. ttl <= 0 selects the default
// five-minute snapshot lifetime.
func NewService(source Source, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{source: source, ttl: ttl}
}

// ClampPageSize maps a requested page size into [1, MaxPageSize], with
// DefaultPageSize for zero or negative requests.
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// List returns one page of bookmarks. The live source is tried first; on
// failure the snapshot, when present, serves a degraded cursor-less page.
func (s *Service) List(ctx context.Context, pageSize int, cursor, search string) (ListPage, error) {
	pageSize = ClampPageSize(pageSize)

	page, err := s.source.Query(ctx, notion.QueryParams{
		PageSize:    pageSize,
		StartCursor: cursor,
		Search:      search,
	})
	if err == nil {
		return ListPage{Bookmarks: page.Bookmarks, HasMore: page.HasMore, NextCursor: page.NextCursor}, nil
	}

	snap, ok := s.cached()
	if !ok {
		return ListPage{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return snapshotPage(snap, pageSize, search), nil
}

func snapshotPage(snap []model.Bookmark, pageSize int, search string) ListPage {
	var matched []model.Bookmark
	needle := strings.ToLower(search)
	for _, b := range snap {
		if needle != "" && !strings.Contains(strings.ToLower(b.Name), needle) {
			continue
		}
		matched = append(matched, b)
	}

	page := ListPage{Bookmarks: matched}
	if len(matched) > pageSize {
		page.Bookmarks = matched[:pageSize]
		page.HasMore = true
	}
	return page
}

// All returns the full corpus, refreshed at most once per TTL. A stale
// snapshot is served when the refresh fails; ErrUnavailable only when there
// has never been a successful fetch.
func (s *Service) All(ctx context.Context) ([]model.Bookmark, error) {
	s.mu.RLock()
	if s.hasSnap && time.Since(s.lastFetch) < s.ttl {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if s.hasSnap && time.Since(s.lastFetch) < s.ttl {
		return s.snapshot, nil
	}

	all, err := s.source.QueryAll(ctx)
	if err != nil {
		if s.hasSnap {
			return s.snapshot, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.snapshot = all
	s.hasSnap = true
	s.lastFetch = time.Now()
	return all, nil
}

func (s *Service) cached() ([]model.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.hasSnap
}

// Random draws up to count bookmarks uniformly without replacement, skipping
// excludeIDs. remaining is how many eligible bookmarks were left undrawn.
func (s *Service) Random(ctx context.Context, count int, excludeIDs []string) (picks []model.Bookmark, remaining int, err error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, 0, err
	}

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	var candidates []model.Bookmark
	for _, b := range all {
		if _, skip := exclude[b.ID]; skip {
			continue
		}
		candidates = append(candidates, b)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if count > len(candidates) {
		count = len(candidates)
	}
	return candidates[:count], len(candidates) - count, nil
}

// Featured returns up to three distinct random picks for the landing page.
func (s *Service) Featured(ctx context.Context) ([]model.Bookmark, error) {
	picks, _, err := s.Random(ctx, featuredCount, nil)
	return picks, err
}

// Preview returns one random bookmark for a notification body, or nil when
// the corpus is empty.
func (s *Service) Preview(ctx context.Context) (*model.Bookmark, error) {
	picks, _, err := s.Random(ctx, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, nil
	}
	return &picks[0], nil
}
