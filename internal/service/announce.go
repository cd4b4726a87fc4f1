package service

import (
	"context"
	"log/slog"

	"storyfeed/internal/domain"
)

// announcer publishes story events when a publisher is configured.
// Publishing failures are logged and never fail the user action.
type announcer struct {
	publisher Publisher
	logger    *slog.Logger
}

func (a announcer) announce(ctx context.Context, action domain.EventAction, story domain.Story) {
	if a.publisher == nil {
		return
	}

	if err := a.publisher.Publish(ctx, domain.NewStoryEvent(action, story)); err != nil {
		a.logger.Warn("failed to publish story event",
			"action", action,
			"story_id", story.ID,
			"error", err,
		)
	}
}

// withoutStory returns a new slice without the story matching id.
func withoutStory(stories []domain.Story, id string) ([]domain.Story, *domain.Story) {
	var removed *domain.Story

	kept := make([]domain.Story, 0, len(stories))
	for i := range stories {
		if stories[i].ID == id && removed == nil {
			s := stories[i]
			removed = &s
			continue
		}
		kept = append(kept, stories[i])
	}
	return kept, removed
}
