package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/mcp-plex/pkg/plex"
)

func TestFormatMovie(t *testing.T) {
	movie := plex.Video{
		RatingKey:     101,
		Title:         "Inception",
		Year:          2010,
		Summary:       "A thief steals secrets through dreams.",
		Duration:      8880000,
		ContentRating: "PG-13",
		Studio:        "Warner Bros.",
		Directors:     []plex.Tag{{Tag: "Christopher Nolan"}},
		Roles: []plex.Tag{
			{Tag: "Leonardo DiCaprio"},
			{Tag: "Joseph Gordon-Levitt"},
			{Tag: "Elliot Page"},
		},
	}

	out := FormatMovie(movie)

	assert.Equal(t,
		"Title: Inception (2010)\n"+
			"Rating: PG-13\n"+
			"Duration: 148 minutes\n"+
			"Studio: Warner Bros.\n"+
			"Directors: Christopher Nolan\n"+
			"Starring: Leonardo DiCaprio, Joseph Gordon-Levitt, Elliot Page\n"+
			"Summary: A thief steals secrets through dreams.\n",
		out)
}

func TestFormatMovieDefaults(t *testing.T) {
	out := FormatMovie(plex.Video{})

	assert.Equal(t,
		"Title: Unknown Title (Unknown Year)\n"+
			"Rating: Unrated\n"+
			"Duration: 0 minutes\n"+
			"Studio: Unknown Studio\n"+
			"Directors: Unknown\n"+
			"Starring: Unknown\n"+
			"Summary: No summary available\n",
		out)
}

func TestFormatMovieCapsCredits(t *testing.T) {
	movie := plex.Video{Title: "Ensemble"}
	for _, name := range []string{"D1", "D2", "D3", "D4"} {
		movie.Directors = append(movie.Directors, plex.Tag{Tag: name})
	}
	for _, name := range []string{"A1", "A2", "A3", "A4", "A5", "A6"} {
		movie.Roles = append(movie.Roles, plex.Tag{Tag: name})
	}

	out := FormatMovie(movie)

	assert.Contains(t, out, "Directors: D1, D2, D3\n")
	assert.NotContains(t, out, "D4")
	assert.Contains(t, out, "Starring: A1, A2, A3, A4, A5\n")
	assert.NotContains(t, out, "A6")
}

func TestFormatPlaylist(t *testing.T) {
	out := FormatPlaylist(plex.Playlist{
		RatingKey: 10,
		Title:     "Favorites",
		LeafCount: 4,
		Duration:  28800000,
		UpdatedAt: 1700000000,
	})

	assert.Equal(t,
		"Playlist: Favorites\n"+
			"Items: 4\n"+
			"Duration: 480 minutes\n"+
			"Last Updated: 2023-11-14 22:13:20\n",
		out)
}

func TestFormatPlaylistUnknownUpdateTime(t *testing.T) {
	out := FormatPlaylist(plex.Playlist{Title: "Fresh"})

	assert.Contains(t, out, "Last Updated: Unknown\n")
}
