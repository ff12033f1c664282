package library

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mcp-plex/pkg/plex"
)

// fakeCatalog is a configurable in-memory Catalog.
type fakeCatalog struct {
	sections    []plex.Section
	sectionsErr error

	sectionItems map[string][]plex.Video
	sectionErr   map[string]error

	movies      []plex.Video
	moviesErr   error
	lastFilters map[string]string

	recent    map[string][]plex.Video
	recentErr error

	playlists     []plex.Playlist
	playlistsErr  error
	playlistItems map[int][]plex.Video
	itemsErr      error

	created     *plex.Playlist
	createErr   error
	createDelay time.Duration
	createCalls int

	deletedKeys []int
	deleteErr   error

	addedTo  []int
	addedOne []int
	addErr   error
}

func (f *fakeCatalog) Sections(ctx context.Context) ([]plex.Section, error) {
	return f.sections, f.sectionsErr
}

func (f *fakeCatalog) SearchSection(ctx context.Context, sectionKey string, filters map[string]string) ([]plex.Video, error) {
	if err := f.sectionErr[sectionKey]; err != nil {
		return nil, err
	}
	items := f.sectionItems[sectionKey]
	if want, ok := filters["ratingKey"]; ok {
		var matched []plex.Video
		for _, v := range items {
			if strconv.Itoa(v.RatingKey) == want {
				matched = append(matched, v)
			}
		}
		return matched, nil
	}
	return items, nil
}

func (f *fakeCatalog) SearchMovies(ctx context.Context, filters map[string]string) ([]plex.Video, error) {
	f.lastFilters = filters
	return f.movies, f.moviesErr
}

func (f *fakeCatalog) RecentlyAdded(ctx context.Context, sectionKey string, maxResults int) ([]plex.Video, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	items := f.recent[sectionKey]
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	return items, nil
}

func (f *fakeCatalog) Playlists(ctx context.Context) ([]plex.Playlist, error) {
	return f.playlists, f.playlistsErr
}

func (f *fakeCatalog) PlaylistItems(ctx context.Context, ratingKey int) ([]plex.Video, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.playlistItems[ratingKey], nil
}

func (f *fakeCatalog) CreatePlaylist(ctx context.Context, title string, movieKeys []int) (*plex.Playlist, error) {
	f.createCalls++
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &plex.Playlist{RatingKey: 900, Title: title, Type: "playlist", LeafCount: len(movieKeys)}, nil
}

func (f *fakeCatalog) DeletePlaylist(ctx context.Context, ratingKey int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedKeys = append(f.deletedKeys, ratingKey)
	return nil
}

func (f *fakeCatalog) AddPlaylistItems(ctx context.Context, playlistKey int, movieKeys []int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedTo = append(f.addedTo, playlistKey)
	f.addedOne = append(f.addedOne, movieKeys...)
	return nil
}

func movieFixture(key int, title string, year int) plex.Video {
	return plex.Video{
		RatingKey: key,
		Title:     title,
		Type:      "movie",
		Year:      year,
		Summary:   "A test movie",
		Duration:  7200000,
		Studio:    "Test Studio",
	}
}

func singleSectionCatalog(movies ...plex.Video) *fakeCatalog {
	return &fakeCatalog{
		sections:     []plex.Section{{Key: "1", Type: "movie", Title: "Movies"}},
		sectionItems: map[string][]plex.Video{"1": movies},
		movies:       movies,
	}
}

func TestSearchMoviesReturnsFormattedResults(t *testing.T) {
	cat := singleSectionCatalog(
		movieFixture(101, "Inception", 2010),
		movieFixture(102, "Interstellar", 2014),
	)
	svc := NewService(cat)

	out := svc.SearchMovies(context.Background(), SearchCriteria{Title: "In"}, 0)

	assert.Contains(t, out, "Result #1:\nKey: 101\n")
	assert.Contains(t, out, "Result #2:\nKey: 102\n")
	assert.Contains(t, out, "Title: Inception (2010)")
	assert.Contains(t, out, "\n---\n")
	assert.NotContains(t, out, "more results")
	assert.Equal(t, "In", cat.lastFilters["title"])
	assert.Equal(t, "movie", cat.lastFilters["libtype"])
}

func TestSearchMoviesTruncatesAndCountsOverflow(t *testing.T) {
	var movies []plex.Video
	for i := 1; i <= 7; i++ {
		movies = append(movies, movieFixture(100+i, fmt.Sprintf("Movie %d", i), 2000+i))
	}
	svc := NewService(singleSectionCatalog(movies...))

	out := svc.SearchMovies(context.Background(), SearchCriteria{}, 5)

	assert.Contains(t, out, "Result #5:")
	assert.NotContains(t, out, "Result #6:")
	assert.Contains(t, out, "... and 2 more results.")
}

func TestSearchMoviesNoMatches(t *testing.T) {
	year := 1899
	svc := NewService(&fakeCatalog{})

	out := svc.SearchMovies(context.Background(), SearchCriteria{Title: "Nothing", Year: &year}, 0)

	assert.Equal(t, "No movies found matching filters libtype=movie, title=Nothing, year=1899.", out)
}

func TestSearchMoviesConnectionError(t *testing.T) {
	svc := NewService(&fakeCatalog{
		moviesErr: fmt.Errorf("%w: dial tcp: connection refused", plex.ErrConnection),
	})

	out := svc.SearchMovies(context.Background(), SearchCriteria{}, 0)

	assert.Contains(t, out, "ERROR: Could not connect to Plex server.")
}

func TestMovieDetails(t *testing.T) {
	svc := NewService(singleSectionCatalog(movieFixture(101, "Inception", 2010)))

	out := svc.MovieDetails(context.Background(), "101")

	assert.Contains(t, out, "Title: Inception (2010)")
	assert.Contains(t, out, "Duration: 120 minutes")
	assert.Contains(t, out, "Studio: Test Studio")
}

func TestMovieDetailsInvalidKey(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.MovieDetails(context.Background(), "abc")

	assert.Equal(t, "ERROR: Invalid movie key 'abc'. Please provide a valid number.", out)
}

func TestMovieDetailsNotFound(t *testing.T) {
	svc := NewService(singleSectionCatalog(movieFixture(101, "Inception", 2010)))

	out := svc.MovieDetails(context.Background(), "555")

	assert.Equal(t, "No movie found with key 555.", out)
}

func TestListPlaylists(t *testing.T) {
	svc := NewService(&fakeCatalog{
		playlists: []plex.Playlist{
			{RatingKey: 10, Title: "Favorites", Type: "playlist", LeafCount: 3, Duration: 21600000, UpdatedAt: 1700000000},
			{RatingKey: 11, Title: "Watch Later", Type: "playlist", LeafCount: 1},
		},
	})

	out := svc.ListPlaylists(context.Background())

	assert.Contains(t, out, "Playlist #1:\nKey: 10\n")
	assert.Contains(t, out, "Playlist: Favorites")
	assert.Contains(t, out, "Items: 3")
	assert.Contains(t, out, "Duration: 360 minutes")
	assert.Contains(t, out, "Playlist #2:\nKey: 11\n")
	assert.Contains(t, out, "Last Updated: Unknown")
}

func TestListPlaylistsEmpty(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.ListPlaylists(context.Background())

	assert.Equal(t, "No playlists found in your Plex server.", out)
}

func TestPlaylistItems(t *testing.T) {
	svc := NewService(&fakeCatalog{
		playlists: []plex.Playlist{{RatingKey: 10, Title: "Favorites", Type: "playlist"}},
		playlistItems: map[int][]plex.Video{
			10: {
				{RatingKey: 101, Title: "Inception", Type: "movie", Year: 2010},
				{RatingKey: 102, Title: "Interstellar", Type: "movie", Year: 2014},
			},
		},
	})

	out := svc.PlaylistItems(context.Background(), "10")

	assert.Equal(t, "1. Inception (2010) - Movie\n2. Interstellar (2014) - Movie", out)
}

func TestPlaylistItemsEmptyPlaylist(t *testing.T) {
	svc := NewService(&fakeCatalog{
		playlists: []plex.Playlist{{RatingKey: 10, Title: "Empty", Type: "playlist"}},
	})

	out := svc.PlaylistItems(context.Background(), "10")

	assert.Equal(t, "No items found in this playlist.", out)
}

func TestPlaylistItemsUnknownKey(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.PlaylistItems(context.Background(), "42")

	assert.Equal(t, "No playlist found with key 42.", out)
}

func TestCreatePlaylist(t *testing.T) {
	cat := singleSectionCatalog(
		movieFixture(101, "Inception", 2010),
		movieFixture(102, "Interstellar", 2014),
	)
	cat.created = &plex.Playlist{RatingKey: 900, Title: "Nolan Night", Type: "playlist"}
	svc := NewService(cat)

	out := svc.CreatePlaylist(context.Background(), "Nolan Night", "101, 102")

	assert.Equal(t, "Successfully created playlist 'Nolan Night' with 2 movie(s).\nPlaylist Key: 900", out)
	assert.Equal(t, 1, cat.createCalls)
}

func TestCreatePlaylistMissingKeysAbortsCreation(t *testing.T) {
	cat := singleSectionCatalog(movieFixture(101, "Inception", 2010))
	svc := NewService(cat)

	out := svc.CreatePlaylist(context.Background(), "Broken", "101,999")

	assert.Equal(t, "ERROR: Some movie keys were not found: 999", out)
	assert.Zero(t, cat.createCalls)
}

func TestCreatePlaylistInvalidKeys(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.CreatePlaylist(context.Background(), "Bad", "101,abc")

	assert.Equal(t, "ERROR: Invalid input format. Please check movie keys are valid numbers.", out)
}

func TestCreatePlaylistNoKeys(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.CreatePlaylist(context.Background(), "Empty", " , ,")

	assert.Equal(t, "ERROR: No valid movie keys provided.", out)
}

func TestCreatePlaylistTimesOutAsPending(t *testing.T) {
	cat := singleSectionCatalog(movieFixture(101, "Inception", 2010))
	cat.createDelay = 200 * time.Millisecond
	svc := NewService(cat)
	svc.createTimeout = 50 * time.Millisecond

	out := svc.CreatePlaylist(context.Background(), "Slow", "101")

	assert.Contains(t, out, "PENDING: Playlist creation is taking longer than expected.")
	assert.Contains(t, out, "might still complete in the background")
}

func TestDeletePlaylist(t *testing.T) {
	cat := &fakeCatalog{
		playlists: []plex.Playlist{{RatingKey: 10, Title: "Favorites", Type: "playlist"}},
	}
	svc := NewService(cat)

	out := svc.DeletePlaylist(context.Background(), "10")

	assert.Equal(t, "Successfully deleted playlist 'Favorites' with key 10.", out)
	assert.Equal(t, []int{10}, cat.deletedKeys)
}

func TestDeletePlaylistUnknownKeyIssuesNoDelete(t *testing.T) {
	cat := &fakeCatalog{
		playlists: []plex.Playlist{{RatingKey: 10, Title: "Favorites", Type: "playlist"}},
	}
	svc := NewService(cat)

	out := svc.DeletePlaylist(context.Background(), "77")

	assert.Equal(t, "No playlist found with key 77.", out)
	assert.Empty(t, cat.deletedKeys)
}

func TestAddToPlaylist(t *testing.T) {
	cat := singleSectionCatalog(movieFixture(101, "Inception", 2010))
	cat.playlists = []plex.Playlist{{RatingKey: 10, Title: "Favorites", Type: "playlist"}}
	svc := NewService(cat)

	out := svc.AddToPlaylist(context.Background(), "10", "101")

	assert.Equal(t, "Successfully added 'Inception' to playlist 'Favorites'.", out)
	assert.Equal(t, []int{10}, cat.addedTo)
	assert.Equal(t, []int{101}, cat.addedOne)
}

func TestAddToPlaylistInvalidKeys(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	out := svc.AddToPlaylist(context.Background(), "ten", "101")

	assert.Equal(t, "ERROR: Invalid playlist or movie key. Please provide valid numbers.", out)
}

func TestRecentMoviesMergesSectionsNewestFirst(t *testing.T) {
	cat := &fakeCatalog{
		sections: []plex.Section{
			{Key: "1", Type: "movie", Title: "Movies"},
			{Key: "2", Type: "movie", Title: "Documentaries"},
			{Key: "3", Type: "show", Title: "TV Shows"},
		},
		recent: map[string][]plex.Video{
			"1": {
				{RatingKey: 101, Title: "Newest", Type: "movie", AddedAt: 3000},
				{RatingKey: 102, Title: "Oldest", Type: "movie", AddedAt: 1000},
			},
			"2": {
				{RatingKey: 201, Title: "Middle", Type: "movie", AddedAt: 2000},
			},
		},
	}
	svc := NewService(cat)

	out := svc.RecentMovies(context.Background(), 3)

	first := "Recent Movie #1:\nKey: 101"
	second := "Recent Movie #2:\nKey: 201"
	third := "Recent Movie #3:\nKey: 102"
	require.Contains(t, out, first)
	require.Contains(t, out, second)
	require.Contains(t, out, third)
	assert.Less(t, strings.Index(out, first), strings.Index(out, second))
	assert.Less(t, strings.Index(out, second), strings.Index(out, third))
	assert.Contains(t, out, "Added: 1970-01-01")
}

func TestRecentMoviesRejectsNonPositiveCount(t *testing.T) {
	svc := NewService(&fakeCatalog{})

	assert.Equal(t, "ERROR: Count must be a positive integer.", svc.RecentMovies(context.Background(), 0))
	assert.Equal(t, "ERROR: Count must be a positive integer.", svc.RecentMovies(context.Background(), -3))
}

func TestRecentMoviesEmptyLibrary(t *testing.T) {
	svc := NewService(&fakeCatalog{
		sections: []plex.Section{{Key: "1", Type: "movie", Title: "Movies"}},
	})

	out := svc.RecentMovies(context.Background(), 5)

	assert.Equal(t, "No recent movies found in your Plex library.", out)
}

func TestMovieGenres(t *testing.T) {
	movie := movieFixture(101, "Inception", 2010)
	movie.Genres = []plex.Tag{{Tag: "Science Fiction"}, {Tag: "Thriller"}}
	svc := NewService(singleSectionCatalog(movie))

	out := svc.MovieGenres(context.Background(), "101")

	assert.Equal(t, "Genres for 'Inception':\nScience Fiction, Thriller", out)
}

func TestMovieGenresNoneTagged(t *testing.T) {
	svc := NewService(singleSectionCatalog(movieFixture(101, "Inception", 2010)))

	out := svc.MovieGenres(context.Background(), "101")

	assert.Equal(t, "No genres found for movie 'Inception'.", out)
}

func TestParseKeyList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "single", input: "123", want: []int{123}},
		{name: "multiple with spaces", input: "1, 2 ,3", want: []int{1, 2, 3}},
		{name: "trailing comma", input: "1,2,", want: []int{1, 2}},
		{name: "empty parts only", input: ", ,", want: nil},
		{name: "non numeric", input: "1,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
