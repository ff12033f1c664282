package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/mcp-plex/pkg/plex"
)

// FormatMovie renders a movie into the fixed multi-line block agents parse.
// Missing fields fall back to the declared defaults rather than empty text.
func FormatMovie(movie plex.Video) string {
	title := movie.Title
	if title == "" {
		title = "Unknown Title"
	}

	year := "Unknown Year"
	if movie.Year > 0 {
		year = fmt.Sprintf("%d", movie.Year)
	}

	summary := movie.Summary
	if summary == "" {
		summary = "No summary available"
	}

	rating := movie.ContentRating
	if rating == "" {
		rating = "Unrated"
	}

	studio := movie.Studio
	if studio == "" {
		studio = "Unknown Studio"
	}

	directors := tagNames(movie.Directors, 3)
	actors := tagNames(movie.Roles, 5)

	return fmt.Sprintf(
		"Title: %s (%s)\n"+
			"Rating: %s\n"+
			"Duration: %d minutes\n"+
			"Studio: %s\n"+
			"Directors: %s\n"+
			"Starring: %s\n"+
			"Summary: %s\n",
		title, year, rating, movie.Duration/60000, studio,
		joinOrUnknown(directors), joinOrUnknown(actors), summary,
	)
}

// FormatPlaylist renders a playlist summary block.
func FormatPlaylist(playlist plex.Playlist) string {
	updated := "Unknown"
	if playlist.UpdatedAt > 0 {
		updated = time.Unix(playlist.UpdatedAt, 0).UTC().Format("2006-01-02 15:04:05")
	}

	return fmt.Sprintf(
		"Playlist: %s\n"+
			"Items: %d\n"+
			"Duration: %d minutes\n"+
			"Last Updated: %s\n",
		playlist.Title, playlist.LeafCount, playlist.Duration/60000, updated,
	)
}

// tagNames extracts up to max tag names, preserving catalog order.
func tagNames(tags []plex.Tag, max int) []string {
	if len(tags) > max {
		tags = tags[:max]
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Tag)
	}
	return names
}

func joinOrUnknown(names []string) string {
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, ", ")
}
