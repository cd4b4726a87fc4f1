package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"storyfeed/internal/domain"
)

// StoryAPI is the remote CRUD service. Any failure is reported as an error; callers do not retry.
type StoryAPI interface {
	List(ctx context.Context) ([]domain.Story, error)
	Get(ctx context.Context, id string) (*domain.Story, error)
	Create(ctx context.Context, draft domain.Draft) (*domain.Story, error)
	Update(ctx context.Context, id string, draft domain.Draft) (*domain.Story, error)
	Delete(ctx context.Context, id string) error
}

type StoryLister interface {
	List(ctx context.Context) ([]domain.Story, error)
}

type MediaUploader interface {
	Upload(ctx context.Context, file domain.MediaFile) (*domain.MediaRef, error)
}

// Notifier raises user-facing notices keyed by operation.
type Notifier interface {
	Success(op, msg string)
	Error(op, msg string)
	Info(op, msg string)
	Loading(op, msg string) string
	Resolve(id string, level domain.NoticeLevel, msg string)
}

type Navigator interface {
	Navigate(path string)
}

type StoryStore interface {
	Upsert(ctx context.Context, sourceID string, story *domain.Story) (int64, error)
	GetExisting(ctx context.Context, sourceID string, ids []string) (map[string]time.Time, error)
	DeleteMissing(ctx context.Context, sourceID string, keep []string) ([]domain.Story, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.StoryEvent) error
	Close() error
}
