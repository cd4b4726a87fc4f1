package service

import (
	"strings"

	"storyfeed/internal/domain"
)

// Page is the derived view of a story collection for one query and page number.
type Page struct {
	Query      string
	Filtered   []domain.Story
	Items      []domain.Story
	Current    int
	PageSize   int
	TotalPages int
}

// Derive filters all by query and slices out the requested page. It never mutates all.
// The page is clamped to [1, max(1, TotalPages)].
func Derive(all []domain.Story, query string, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	filtered := Filter(all, query)

	totalPages := len(filtered) / pageSize
	if len(filtered)%pageSize != 0 {
		totalPages++
	}

	page = min(max(page, 1), max(totalPages, 1))

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(filtered))

	items := make([]domain.Story, end-start)
	copy(items, filtered[start:end])

	return Page{
		Query:      query,
		Filtered:   filtered,
		Items:      items,
		Current:    page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Filter keeps stories whose title or body contains query, ignoring case.
// Relative order is preserved and an empty query keeps everything.
func Filter(all []domain.Story, query string) []domain.Story {
	q := strings.ToLower(query)

	filtered := make([]domain.Story, 0, len(all))
	for _, s := range all {
		if q == "" ||
			strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Body), q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Total is the number of stories matching the query.
func (p Page) Total() int {
	return len(p.Filtered)
}

// RangeStart is the 1-based position of the first item shown, 0 when nothing is shown.
func (p Page) RangeStart() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Current-1)*p.PageSize + 1
}

func (p Page) RangeEnd() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Current-1)*p.PageSize + len(p.Items)
}

func (p Page) HasPrev() bool {
	return p.Current > 1
}

func (p Page) HasNext() bool {
	return p.Current < p.TotalPages
}
