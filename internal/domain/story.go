package domain

import "time"

type Badge string

const (
	BadgeArticle Badge = "Article"
	BadgePoems   Badge = "Poems"
	BadgeStories Badge = "Stories"
)

// Badges lists the categories a story may carry, in display order.
var Badges = []Badge{BadgeArticle, BadgePoems, BadgeStories}

func (b Badge) Valid() bool {
	switch b {
	case BadgeArticle, BadgePoems, BadgeStories:
		return true
	}
	return false
}

type Story struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Badge     Badge     `json:"badge"`
	Media     *MediaRef `json:"media,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MediaRef describes an asset held by the media host. Only the upload step produces one.
type MediaRef struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	FileType string `json:"fileType"` // "image", "video" or whatever the host reports
	Format   string `json:"format"`
}

func (m *MediaRef) IsImage() bool {
	return m != nil && m.FileType == "image"
}
