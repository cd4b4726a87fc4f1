package domain

import (
	"io"
	"regexp"
	"strings"
)

const (
	MaxTitleLength = 100
	MaxBodyLength  = 2000
	MaxNameLength  = 50
)

// displayText matches the characters accepted for author names and titles.
var displayText = regexp.MustCompile(`^[a-zA-Z0-9\s.,'"-]*$`)

// IsDisplayText reports whether s only uses letters, digits, whitespace and .,'"-
func IsDisplayText(s string) bool {
	return displayText.MatchString(s)
}

// Draft is the editable copy of a story held by the form.
type Draft struct {
	Name  string    `json:"name" validate:"required"`
	Email string    `json:"email" validate:"required,email"`
	Title string    `json:"title" validate:"required"`
	Body  string    `json:"body" validate:"required"`
	Badge Badge     `json:"badge" validate:"required,oneof=Article Poems Stories"`
	Media *MediaRef `json:"media"`
}

func DraftFromStory(s Story) Draft {
	d := Draft{
		Name:  s.Name,
		Email: s.Email,
		Title: s.Title,
		Body:  s.Body,
		Badge: s.Badge,
	}
	if s.Media != nil {
		m := *s.Media
		d.Media = &m
	}
	return d
}

// MediaFile is a local file picked for upload.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// IsImageOrVideo mirrors the image/*,video/* accept filter.
func (f MediaFile) IsImageOrVideo() bool {
	ct := strings.ToLower(f.ContentType)
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

// BaseName returns the file name up to its first dot.
func (f MediaFile) BaseName() string {
	name := f.Name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
