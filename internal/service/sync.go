package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storyfeed/internal/domain"
)

// SyncService mirrors the remote feed into the local store and announces what changed.
type SyncService struct {
	sourceID  string
	source    StoryLister
	stories   StoryStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
}

func NewSyncService(
	sourceID string,
	source StoryLister,
	stories StoryStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		sourceID:  sourceID,
		source:    source,
		stories:   stories,
		syncState: syncState,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", sourceID),
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	s.logger.Info("starting mirror sync")

	remote, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stories: %w", err)
	}

	s.logger.Info("fetched stories from api", "count", len(remote))

	ids := make([]string, 0, len(remote))
	for _, story := range remote {
		if story.ID != "" {
			ids = append(ids, story.ID)
		}
	}

	existing, err := s.stories.GetExisting(ctx, s.sourceID, ids)
	if err != nil {
		return nil, fmt.Errorf("load mirrored stories: %w", err)
	}

	stats := &domain.SyncStats{
		SourceID: s.sourceID,
		Fetched:  len(remote),
	}

	for i := range remote {
		story := &remote[i]
		if story.ID == "" {
			stats.Skipped++
			continue
		}

		lastUpdated, exists := existing[story.ID]
		if exists && !story.UpdatedAt.After(lastUpdated) {
			stats.Skipped++
			continue
		}

		if err := s.saveStory(ctx, story); err != nil {
			s.logger.Error("failed to mirror story", "id", story.ID, "error", err)
			stats.Errors++
			continue
		}

		action := domain.ActionUpdate
		if exists {
			stats.Updated++
		} else {
			action = domain.ActionCreate
			stats.New++
		}

		s.publish(ctx, action, *story, stats)
	}

	removed, err := s.stories.DeleteMissing(ctx, s.sourceID, ids)
	if err != nil {
		return stats, fmt.Errorf("prune stories: %w", err)
	}
	for _, story := range removed {
		stats.Deleted++
		s.publish(ctx, domain.ActionDelete, story, stats)
	}

	if err := s.updateSyncState(ctx, stats); err != nil {
		return stats, fmt.Errorf("update sync state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("mirror sync completed",
		"new", stats.New,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) saveStory(ctx context.Context, story *domain.Story) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.stories.Upsert(txCtx, s.sourceID, story); err != nil {
			return fmt.Errorf("upsert story: %w", err)
		}
		return nil
	})
}

func (s *SyncService) publish(ctx context.Context, action domain.EventAction, story domain.Story, stats *domain.SyncStats) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, domain.NewStoryEvent(action, story)); err != nil {
		s.logger.Warn("failed to publish story event", "id", story.ID, "action", action, "error", err)
		stats.Errors++
		return
	}
	stats.Published++
}

func (s *SyncService) updateSyncState(ctx context.Context, stats *domain.SyncStats) error {
	state, err := s.syncState.Get(ctx, s.sourceID)
	if err != nil {
		return err
	}

	state.SourceID = s.sourceID
	state.LastSyncedAt = time.Now()
	state.TotalSynced += int64(stats.New + stats.Updated)

	return s.syncState.Update(ctx, state)
}
