package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"storyfeed/internal/domain"
)

// Home shows the newest stories on the landing page.
type Home struct {
	api      StoryAPI
	notifier Notifier
	announcer
	size   int
	logger *slog.Logger

	mu        sync.Mutex
	all       []domain.Story
	displayed []domain.Story
	loadError string
}

func NewHome(api StoryAPI, notifier Notifier, publisher Publisher, logger *slog.Logger, size int) *Home {
	logger = logger.With("component", "home")

	return &Home{
		api:       api,
		notifier:  notifier,
		announcer: announcer{publisher: publisher, logger: logger},
		size:      size,
		logger:    logger,
	}
}

func (h *Home) Load(ctx context.Context) error {
	stories, err := h.api.List(ctx)
	if err != nil {
		h.logger.Error("failed to load stories", "error", err)

		h.mu.Lock()
		h.loadError = LoadFailedMessage
		h.mu.Unlock()

		return fmt.Errorf("load home feed: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.all = stories
	h.displayed = Latest(stories, h.size)
	h.loadError = ""
	return nil
}

// Latest returns the n most recently created stories, newest first.
// Stories created at the same instant keep their backend order.
func Latest(stories []domain.Story, n int) []domain.Story {
	sorted := slices.Clone(stories)
	slices.SortStableFunc(sorted, func(a, b domain.Story) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return slices.Clip(sorted)
}

func (h *Home) Displayed() []domain.Story {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.displayed)
}

// HasMore reports whether the full feed holds stories beyond the displayed head.
func (h *Home) HasMore() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.all) > len(h.displayed)
}

func (h *Home) LoadError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadError
}

func (h *Home) Remove(ctx context.Context, id string) error {
	if err := h.api.Delete(ctx, id); err != nil {
		h.logger.Error("failed to delete story", "id", id, "error", err)
		h.notifier.Error(OpDelete, "Failed to delete story")
		return fmt.Errorf("remove story: %w", err)
	}

	h.mu.Lock()
	var removed *domain.Story
	h.all, removed = withoutStory(h.all, id)
	h.displayed, _ = withoutStory(h.displayed, id)
	h.mu.Unlock()

	h.notifier.Success(OpDelete, "Story deleted")

	if removed != nil {
		h.announce(ctx, domain.ActionDelete, *removed)
	}
	return nil
}
