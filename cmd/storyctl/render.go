package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"storyfeed/internal/domain"
	"storyfeed/internal/service"
)

const excerptLength = 80

func renderFeed(w io.Writer, view service.StoriesView) {
	if view.LoadError != "" {
		fmt.Fprintln(w, view.LoadError)
		return
	}
	if view.Total() == 0 {
		if view.Query != "" {
			fmt.Fprintf(w, "No stories match %q\n", view.Query)
		} else {
			fmt.Fprintln(w, "No stories yet")
		}
		return
	}

	renderTable(w, view.Items)

	fmt.Fprintf(w, "\nShowing %d-%d of %d stories, page %d/%d\n",
		view.RangeStart(), view.RangeEnd(), view.Total(), view.Current, view.TotalPages)
}

func renderHome(w io.Writer, stories []domain.Story, hasMore bool) {
	if len(stories) == 0 {
		fmt.Fprintln(w, "No stories yet")
		return
	}

	renderTable(w, stories)
	if hasMore {
		fmt.Fprintln(w, "\nView all stories: storyctl list")
	}
}

func renderTable(w io.Writer, stories []domain.Story) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBADGE\tTITLE\tAUTHOR\tCREATED\tEXCERPT")
	for _, s := range stories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Badge, s.Title, s.Name, s.CreatedAt.Format("2006-01-02"), excerpt(s.Body))
	}
	tw.Flush()
}

func renderStory(w io.Writer, s domain.Story) {
	fmt.Fprintf(w, "%s [%s]\n", s.Title, s.Badge)
	fmt.Fprintf(w, "by %s <%s>, %s\n", s.Name, s.Email, s.CreatedAt.Format("2006-01-02 15:04"))
	if s.Media != nil {
		kind := "video"
		if s.Media.IsImage() {
			kind = "image"
		}
		fmt.Fprintf(w, "%s: %s\n", kind, s.Media.URL)
	}
	fmt.Fprintf(w, "\n%s\n", s.Body)
}

func renderStats(w io.Writer, stats *domain.SyncStats) {
	fmt.Fprintf(w, "source %s: fetched %d, new %d, updated %d, deleted %d, skipped %d, errors %d, published %d in %s\n",
		stats.SourceID, stats.Fetched, stats.New, stats.Updated, stats.Deleted,
		stats.Skipped, stats.Errors, stats.Published, stats.Duration)
}

func excerpt(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= excerptLength {
		return body
	}
	return string([]rune(body)[:excerptLength]) + "..."
}
