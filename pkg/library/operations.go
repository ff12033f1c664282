package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/mcp-plex/pkg/plex"
)

// playlistCreateTimeout bounds how long CreatePlaylist waits for the remote
// call. The call itself is not cancelled on expiry; the server may finish the
// creation after the caller has been told it is pending.
const playlistCreateTimeout = 15 * time.Second

const defaultSearchLimit = 5

// Service implements the callable operations. Every method returns exactly
// one string, whether success, empty result, or error; no error ever crosses
// an operation's boundary.
type Service struct {
	catalog       Catalog
	createTimeout time.Duration
}

// NewService creates a Service on top of a catalog client.
func NewService(catalog Catalog) *Service {
	return &Service{
		catalog:       catalog,
		createTimeout: playlistCreateTimeout,
	}
}

// SearchMovies searches the library with the given criteria and renders up
// to limit (default 5) formatted results plus a count of any overflow.
func (s *Service) SearchMovies(ctx context.Context, criteria SearchCriteria, limit int) string {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filters := criteria.Filters()
	log.Info().Interface("filters", filters).Msg("Searching Plex library")

	movies, err := s.catalog.SearchMovies(ctx, filters)
	if err != nil {
		if errors.Is(err, plex.ErrConnection) {
			return connectionError(err)
		}
		return fmt.Sprintf("ERROR: Could not search Plex. %v", err)
	}

	if len(movies) == 0 {
		return fmt.Sprintf("No movies found matching filters %s.", describeFilters(filters))
	}

	shown := movies
	if len(shown) > limit {
		shown = shown[:limit]
	}

	results := make([]string, 0, len(shown)+1)
	for i, m := range shown {
		results = append(results, fmt.Sprintf("Result #%d:\nKey: %d\n%s", i+1, m.RatingKey, FormatMovie(m)))
	}
	if len(movies) > limit {
		results = append(results, fmt.Sprintf("\n... and %d more results.", len(movies)-limit))
	}

	return strings.Join(results, "\n---\n")
}

// MovieDetails looks up one movie by its rating key.
func (s *Service) MovieDetails(ctx context.Context, movieKey string) string {
	key, ok := parseKey(movieKey)
	if !ok {
		return invalidMovieKey(movieKey)
	}

	movie, err := resolveMovie(ctx, s.catalog, key)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No movie found with key %s.", movieKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to fetch movie details. %v", err)
	}

	return FormatMovie(*movie)
}

// ListPlaylists lists every playlist on the server, numbered.
func (s *Service) ListPlaylists(ctx context.Context) string {
	playlists, err := s.catalog.Playlists(ctx)
	if err != nil {
		if errors.Is(err, plex.ErrConnection) {
			return connectionError(err)
		}
		return fmt.Sprintf("ERROR: Failed to fetch playlists. %v", err)
	}

	if len(playlists) == 0 {
		return "No playlists found in your Plex server."
	}

	formatted := make([]string, 0, len(playlists))
	for i, p := range playlists {
		formatted = append(formatted, fmt.Sprintf("Playlist #%d:\nKey: %d\n%s", i+1, p.RatingKey, FormatPlaylist(p)))
	}
	return strings.Join(formatted, "\n---\n")
}

// PlaylistItems lists the items of one playlist as numbered one-liners.
func (s *Service) PlaylistItems(ctx context.Context, playlistKey string) string {
	key, ok := parseKey(playlistKey)
	if !ok {
		return invalidPlaylistKey(playlistKey)
	}

	playlist, err := resolvePlaylist(ctx, s.catalog, key)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No playlist found with key %s.", playlistKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to fetch playlist items. %v", err)
	}

	items, err := s.catalog.PlaylistItems(ctx, playlist.RatingKey)
	if err != nil {
		return fmt.Sprintf("ERROR: Failed to fetch playlist items. %v", err)
	}

	if len(items) == 0 {
		return "No items found in this playlist."
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		year := ""
		if item.Year > 0 {
			year = strconv.Itoa(item.Year)
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - %s", i+1, item.Title, year, capitalize(item.Type)))
	}
	return strings.Join(lines, "\n")
}

// CreatePlaylist creates a playlist from a comma-separated list of movie
// keys. Creation is all-or-nothing: if any key fails to resolve, no playlist
// is created and the missing keys are named. The remote create call is given
// a fixed timeout; on expiry the operation reports a pending outcome while
// the server-side creation may still complete.
func (s *Service) CreatePlaylist(ctx context.Context, name, movieKeys string) string {
	keys, err := parseKeyList(movieKeys)
	if err != nil {
		return "ERROR: Invalid input format. Please check movie keys are valid numbers."
	}
	if len(keys) == 0 {
		return "ERROR: No valid movie keys provided."
	}

	log.Info().Str("name", name).Ints("keys", keys).Msg("Creating playlist")

	resolved := make([]int, 0, len(keys))
	var missing []string
	for _, key := range keys {
		movie, err := resolveMovie(ctx, s.catalog, key)
		switch {
		case isNotFound(err):
			missing = append(missing, strconv.Itoa(key))
		case errors.Is(err, plex.ErrConnection):
			return connectionError(err)
		case err != nil:
			return fmt.Sprintf("ERROR: Failed to create playlist. %v", err)
		default:
			resolved = append(resolved, movie.RatingKey)
		}
	}

	if len(missing) > 0 {
		return fmt.Sprintf("ERROR: Some movie keys were not found: %s", strings.Join(missing, ", "))
	}

	type createResult struct {
		playlist *plex.Playlist
		err      error
	}
	done := make(chan createResult, 1)

	// Detach from the caller's deadline: expiry below only stops the wait,
	// it must not cancel the in-flight remote creation.
	createCtx := context.WithoutCancel(ctx)
	go func() {
		playlist, err := s.catalog.CreatePlaylist(createCtx, name, resolved)
		done <- createResult{playlist, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, plex.ErrConnection) {
				return connectionError(res.err)
			}
			return fmt.Sprintf("ERROR: Failed to create playlist. %v", res.err)
		}
		return fmt.Sprintf("Successfully created playlist '%s' with %d movie(s).\nPlaylist Key: %d",
			name, len(resolved), res.playlist.RatingKey)
	case <-time.After(s.createTimeout):
		log.Warn().Str("name", name).Msg("Playlist creation is taking longer than expected")
		return "PENDING: Playlist creation is taking longer than expected. " +
			"The operation might still complete in the background. " +
			"Please check your Plex server to confirm."
	}
}

// DeletePlaylist deletes one playlist by key. No delete call is issued when
// the key does not resolve.
func (s *Service) DeletePlaylist(ctx context.Context, playlistKey string) string {
	key, ok := parseKey(playlistKey)
	if !ok {
		return invalidPlaylistKey(playlistKey)
	}

	playlist, err := resolvePlaylist(ctx, s.catalog, key)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No playlist found with key %s.", playlistKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to delete playlist. %v", err)
	}

	if err := s.catalog.DeletePlaylist(ctx, playlist.RatingKey); err != nil {
		return fmt.Sprintf("ERROR: Failed to delete playlist. %v", err)
	}

	log.Info().Str("title", playlist.Title).Str("key", playlistKey).Msg("Playlist deleted")
	return fmt.Sprintf("Successfully deleted playlist '%s' with key %s.", playlist.Title, playlistKey)
}

// AddToPlaylist adds one movie to an existing playlist.
func (s *Service) AddToPlaylist(ctx context.Context, playlistKey, movieKey string) string {
	pKey, pOK := parseKey(playlistKey)
	mKey, mOK := parseKey(movieKey)
	if !pOK || !mOK {
		return "ERROR: Invalid playlist or movie key. Please provide valid numbers."
	}

	playlist, err := resolvePlaylist(ctx, s.catalog, pKey)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No playlist found with key %s.", playlistKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to add movie to playlist. %v", err)
	}

	movie, err := resolveMovie(ctx, s.catalog, mKey)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No movie found with key %s.", movieKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to add movie to playlist. %v", err)
	}

	if err := s.catalog.AddPlaylistItems(ctx, playlist.RatingKey, []int{movie.RatingKey}); err != nil {
		return fmt.Sprintf("ERROR: Failed to add movie to playlist. %v", err)
	}

	log.Info().Str("movie", movie.Title).Str("playlist", playlist.Title).Msg("Added movie to playlist")
	return fmt.Sprintf("Successfully added '%s' to playlist '%s'.", movie.Title, playlist.Title)
}

// RecentMovies returns the most recently added movies merged across every
// movie section. Each section reports its own recent items; the merged set is
// re-sorted by added time because no single section's ordering covers the
// whole library.
func (s *Service) RecentMovies(ctx context.Context, count int) string {
	if count <= 0 {
		return "ERROR: Count must be a positive integer."
	}

	sections, err := s.catalog.Sections(ctx)
	if err != nil {
		if errors.Is(err, plex.ErrConnection) {
			return connectionError(err)
		}
		return fmt.Sprintf("ERROR: Failed to fetch recent movies. %v", err)
	}

	var recent []plex.Video
	for _, section := range sections {
		if section.Type != "movie" {
			continue
		}
		items, err := s.catalog.RecentlyAdded(ctx, section.Key, count)
		if err != nil {
			return fmt.Sprintf("ERROR: Failed to fetch recent movies. %v", err)
		}
		recent = append(recent, items...)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].AddedAt > recent[j].AddedAt
	})
	if len(recent) > count {
		recent = recent[:count]
	}

	if len(recent) == 0 {
		return "No recent movies found in your Plex library."
	}

	formatted := make([]string, 0, len(recent))
	for i, movie := range recent {
		added := time.Unix(movie.AddedAt, 0).UTC().Format("2006-01-02")
		formatted = append(formatted, fmt.Sprintf("Recent Movie #%d:\nKey: %d\nAdded: %s\n%s",
			i+1, movie.RatingKey, added, FormatMovie(movie)))
	}
	return strings.Join(formatted, "\n---\n")
}

// MovieGenres returns the comma-joined genre tags of one movie.
func (s *Service) MovieGenres(ctx context.Context, movieKey string) string {
	key, ok := parseKey(movieKey)
	if !ok {
		return invalidMovieKey(movieKey)
	}

	movie, err := resolveMovie(ctx, s.catalog, key)
	switch {
	case isNotFound(err):
		return fmt.Sprintf("No movie found with key %s.", movieKey)
	case errors.Is(err, plex.ErrConnection):
		return connectionError(err)
	case err != nil:
		return fmt.Sprintf("ERROR: Failed to fetch movie genres. %v", err)
	}

	if len(movie.Genres) == 0 {
		return fmt.Sprintf("No genres found for movie '%s'.", movie.Title)
	}

	genres := make([]string, 0, len(movie.Genres))
	for _, g := range movie.Genres {
		genres = append(genres, g.Tag)
	}
	return fmt.Sprintf("Genres for '%s':\n%s", movie.Title, strings.Join(genres, ", "))
}

func connectionError(err error) string {
	return fmt.Sprintf("ERROR: Could not connect to Plex server. %v", err)
}

func invalidMovieKey(key string) string {
	return fmt.Sprintf("ERROR: Invalid movie key '%s'. Please provide a valid number.", key)
}

func invalidPlaylistKey(key string) string {
	return fmt.Sprintf("ERROR: Invalid playlist key '%s'. Please provide a valid number.", key)
}

func parseKey(s string) (int, bool) {
	key, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return key, true
}

// parseKeyList parses a comma-separated key list, skipping empty entries.
func parseKeyList(s string) ([]int, error) {
	var keys []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// describeFilters renders a filter map deterministically for messages.
func describeFilters(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, filters[k]))
	}
	return strings.Join(pairs, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
