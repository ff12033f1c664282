package library

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/yourusername/mcp-plex/pkg/plex"
)

// Catalog is the slice of the Plex client the operations consume.
// *plex.Client satisfies it; tests use a fake.
type Catalog interface {
	Sections(ctx context.Context) ([]plex.Section, error)
	SearchSection(ctx context.Context, sectionKey string, filters map[string]string) ([]plex.Video, error)
	SearchMovies(ctx context.Context, filters map[string]string) ([]plex.Video, error)
	RecentlyAdded(ctx context.Context, sectionKey string, maxResults int) ([]plex.Video, error)
	Playlists(ctx context.Context) ([]plex.Playlist, error)
	PlaylistItems(ctx context.Context, ratingKey int) ([]plex.Video, error)
	CreatePlaylist(ctx context.Context, title string, movieKeys []int) (*plex.Playlist, error)
	DeletePlaylist(ctx context.Context, ratingKey int) error
	AddPlaylistItems(ctx context.Context, playlistKey int, movieKeys []int) error
}

// resolveMovie locates a movie by rating key using a two-stage strategy.
// Stage 1 runs a key-scoped search inside every movie section; a section
// whose search fails is logged and skipped, since not every server supports
// key filtering uniformly. Stage 2 falls back to an unfiltered whole-library
// movie scan. Keys are unique, so the first match wins.
func resolveMovie(ctx context.Context, catalog Catalog, key int) (*plex.Video, error) {
	sections, err := catalog.Sections(ctx)
	if err != nil {
		return nil, err
	}

	for _, section := range sections {
		if section.Type != "movie" {
			continue
		}
		items, err := catalog.SearchSection(ctx, section.Key, map[string]string{
			"libtype":   "movie",
			"ratingKey": strconv.Itoa(key),
		})
		if err != nil {
			log.Warn().
				Err(err).
				Str("section", section.Title).
				Int("key", key).
				Msg("Section search failed, trying next section")
			continue
		}
		if len(items) > 0 {
			return &items[0], nil
		}
	}

	// Not every server honors key filtering; the full scan is the
	// correctness fallback.
	all, err := catalog.SearchMovies(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].RatingKey == key {
			return &all[i], nil
		}
	}

	return nil, fmt.Errorf("%w: movie %d", plex.ErrNotFound, key)
}

// resolvePlaylist locates a playlist by rating key. Playlists have no
// section-scoped search, so this is a single linear scan of the full list.
func resolvePlaylist(ctx context.Context, catalog Catalog, key int) (*plex.Playlist, error) {
	playlists, err := catalog.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if playlists[i].RatingKey == key {
			return &playlists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: playlist %d", plex.ErrNotFound, key)
}

func isNotFound(err error) bool {
	return errors.Is(err, plex.ErrNotFound)
}
