package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"storyfeed/internal/domain"
)

const (
	OpLoad   = "load"
	OpDelete = "delete"

	LoadFailedMessage = "Failed to load stories. Please try again later."
)

// StoriesView is what the feed page renders.
type StoriesView struct {
	Page
	Loaded    bool
	LoadError string
}

// Stories holds the full feed and derives the searched, paginated view from it.
type Stories struct {
	api      StoryAPI
	notifier Notifier
	announcer
	pageSize int
	logger   *slog.Logger

	mu        sync.Mutex
	all       []domain.Story
	query     string
	page      int
	view      Page
	loaded    bool
	loadError string
}

func NewStories(api StoryAPI, notifier Notifier, publisher Publisher, logger *slog.Logger, pageSize int) *Stories {
	logger = logger.With("component", "stories")

	s := &Stories{
		api:       api,
		notifier:  notifier,
		announcer: announcer{publisher: publisher, logger: logger},
		pageSize:  pageSize,
		logger:    logger,
		page:      1,
	}
	s.derive()
	return s
}

// Load replaces the feed with the backend's list. On failure the previous feed is kept.
func (s *Stories) Load(ctx context.Context) error {
	stories, err := s.api.List(ctx)
	if err != nil {
		s.logger.Error("failed to load stories", "error", err)

		s.mu.Lock()
		s.loadError = LoadFailedMessage
		s.mu.Unlock()

		return fmt.Errorf("load stories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.all = stories
	s.loaded = true
	s.loadError = ""
	s.page = 1
	s.derive()

	s.logger.Debug("loaded stories", "count", len(stories))
	return nil
}

// SetQuery replaces the search string and returns to the first page.
func (s *Stories) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = q
	s.page = 1
	s.derive()
}

// SetPage moves to p when it is within [1, TotalPages] and reports whether it did.
func (s *Stories) SetPage(p int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p < 1 || p > s.view.TotalPages {
		return false
	}

	s.page = p
	s.derive()
	return true
}

// Remove deletes a story remotely and drops it locally only once the backend confirms.
func (s *Stories) Remove(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete story", "id", id, "error", err)
		s.notifier.Error(OpDelete, "Failed to delete story")
		return fmt.Errorf("remove story: %w", err)
	}

	s.mu.Lock()
	var removed *domain.Story
	s.all, removed = withoutStory(s.all, id)
	s.page = 1
	s.derive()
	s.mu.Unlock()

	s.notifier.Success(OpDelete, "Story deleted")

	if removed != nil {
		s.announce(ctx, domain.ActionDelete, *removed)
	}
	return nil
}

func (s *Stories) View() StoriesView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoriesView{
		Page:      s.view,
		Loaded:    s.loaded,
		LoadError: s.loadError,
	}
}

// All returns a copy of the full feed.
func (s *Stories) All() []domain.Story {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Story, len(s.all))
	copy(out, s.all)
	return out
}

// derive must be called with mu held.
func (s *Stories) derive() {
	s.view = Derive(s.all, s.query, s.page, s.pageSize)
	s.page = s.view.Current
}
