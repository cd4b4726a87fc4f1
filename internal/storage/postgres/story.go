package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"storyfeed/internal/domain"
)

// StoryStore keeps a local mirror of the remote feed, keyed by (source_id, remote_id).
type StoryStore struct {
	db *sqlx.DB
}

func NewStoryStore(db *sqlx.DB) *StoryStore {
	return &StoryStore{db: db}
}

type storyRow struct {
	RemoteID      string         `db:"remote_id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Title         string         `db:"title"`
	Body          string         `db:"body"`
	Badge         string         `db:"badge"`
	MediaPublicID sql.NullString `db:"media_public_id"`
	MediaURL      sql.NullString `db:"media_url"`
	MediaFileType sql.NullString `db:"media_file_type"`
	MediaFormat   sql.NullString `db:"media_format"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r storyRow) toDomain() domain.Story {
	story := domain.Story{
		ID:        r.RemoteID,
		Name:      r.Name,
		Email:     r.Email,
		Title:     r.Title,
		Body:      r.Body,
		Badge:     domain.Badge(r.Badge),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.MediaPublicID.Valid {
		story.Media = &domain.MediaRef{
			PublicID: r.MediaPublicID.String,
			URL:      r.MediaURL.String,
			FileType: r.MediaFileType.String,
			Format:   r.MediaFormat.String,
		}
	}
	return story
}

const storyColumns = `remote_id, name, email, title, body, badge,
	media_public_id, media_url, media_file_type, media_format, created_at, updated_at`

func nullString(s string, ok bool) sql.NullString {
	return sql.NullString{String: s, Valid: ok}
}

// Upsert writes the story unless the stored copy is at least as recent, and returns the row id.
func (s *StoryStore) Upsert(ctx context.Context, sourceID string, story *domain.Story) (int64, error) {
	query := `
		INSERT INTO stories (
			source_id, ` + storyColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (source_id, remote_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			badge = EXCLUDED.badge,
			media_public_id = EXCLUDED.media_public_id,
			media_url = EXCLUDED.media_url,
			media_file_type = EXCLUDED.media_file_type,
			media_format = EXCLUDED.media_format,
			updated_at = EXCLUDED.updated_at
		WHERE stories.updated_at < EXCLUDED.updated_at
		RETURNING id`

	media := story.Media
	hasMedia := media != nil
	if !hasMedia {
		media = &domain.MediaRef{}
	}

	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		sourceID,
		story.ID,
		story.Name,
		story.Email,
		story.Title,
		story.Body,
		string(story.Badge),
		nullString(media.PublicID, hasMedia),
		nullString(media.URL, hasMedia),
		nullString(media.FileType, hasMedia),
		nullString(media.Format, hasMedia),
		story.CreatedAt,
		story.UpdatedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		err = exec.QueryRowxContext(ctx,
			"SELECT id FROM stories WHERE source_id = $1 AND remote_id = $2",
			sourceID, story.ID,
		).Scan(&id)
	}

	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetExisting returns the stored updated_at of every id already mirrored for sourceID.
func (s *StoryStore) GetExisting(ctx context.Context, sourceID string, ids []string) (map[string]time.Time, error) {
	if len(ids) == 0 {
		return make(map[string]time.Time), nil
	}

	query := `SELECT remote_id, updated_at FROM stories WHERE source_id = $1 AND remote_id = ANY($2)`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, sourceID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var remoteID string
		var updatedAt time.Time
		if err := rows.Scan(&remoteID, &updatedAt); err != nil {
			return nil, err
		}
		result[remoteID] = updatedAt
	}

	return result, rows.Err()
}

// DeleteMissing removes mirrored stories whose ids are not in keep and returns them.
func (s *StoryStore) DeleteMissing(ctx context.Context, sourceID string, keep []string) ([]domain.Story, error) {
	query := `
		DELETE FROM stories
		WHERE source_id = $1 AND NOT (remote_id = ANY($2))
		RETURNING ` + storyColumns

	var rows []storyRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, sourceID, pq.Array(keep)); err != nil {
		return nil, err
	}

	removed := make([]domain.Story, 0, len(rows))
	for _, r := range rows {
		removed = append(removed, r.toDomain())
	}
	return removed, nil
}

// List returns the mirrored stories of sourceID, newest first.
func (s *StoryStore) List(ctx context.Context, sourceID string) ([]domain.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE source_id = $1 ORDER BY created_at DESC, id`

	var rows []storyRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, sourceID); err != nil {
		return nil, err
	}

	stories := make([]domain.Story, 0, len(rows))
	for _, r := range rows {
		stories = append(stories, r.toDomain())
	}
	return stories, nil
}
