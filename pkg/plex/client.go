package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// libtype values accepted in filter maps, translated to Plex's numeric
// type discriminator on the wire.
var libtypeCodes = map[string]string{
	"movie":   "1",
	"show":    "2",
	"episode": "4",
}

// Client is an HTTP client for a Plex Media Server. A session is established
// lazily on first use and cached for the client's lifetime; a failed attempt
// leaves the client unconnected so the next call retries.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	inflight    *semaphore.Weighted

	mu        sync.Mutex
	machineID string
}

// NewClient creates a Plex client. maxInflight bounds concurrently in-flight
// remote calls so slow catalog responses cannot pile up unbounded.
func NewClient(baseURL, token string, timeout time.Duration, maxInflight int) *Client {
	if maxInflight <= 0 {
		maxInflight = 8
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		rateLimiter: rate.NewLimiter(rate.Every(10*time.Millisecond), 100),
		inflight:    semaphore.NewWeighted(int64(maxInflight)),
	}
}

// Connect validates the session eagerly. Every API method calls it
// implicitly, so using it directly is only needed for readiness probes.
func (c *Client) Connect(ctx context.Context) error {
	return c.ensure(ctx)
}

// ensure establishes the session once: fetch the server identity (needed for
// playlist item URIs) and confirm the library answers a section listing.
func (c *Client) ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machineID != "" {
		return nil
	}

	log.Info().Str("url", c.baseURL).Msg("Initializing Plex session")

	var identity container
	if err := c.get(ctx, c.baseURL+"/identity", &identity); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if identity.MediaContainer.MachineIdentifier == "" {
		return fmt.Errorf("%w: server identity has no machine identifier", ErrConnection)
	}

	var sections container
	if err := c.get(ctx, c.baseURL+"/library/sections", &sections); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	c.machineID = identity.MediaContainer.MachineIdentifier
	log.Info().Str("machine_id", c.machineID).Msg("Plex session validated")
	return nil
}

// Sections lists all library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	var result container
	if err := c.get(ctx, c.baseURL+"/library/sections", &result); err != nil {
		return nil, err
	}
	return result.MediaContainer.Directory, nil
}

// SearchSection runs a filtered search scoped to one section. Filter keys
// follow the library convention ("libtype" is translated to Plex's numeric
// type parameter, everything else passes through).
func (c *Client) SearchSection(ctx context.Context, sectionKey string, filters map[string]string) ([]Video, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/library/sections/%s/all", c.baseURL, url.PathEscape(sectionKey))
	return c.searchVideos(ctx, endpoint, filters)
}

// SearchMovies runs a whole-library search across all sections, constrained
// to movies plus any additional filters.
func (c *Client) SearchMovies(ctx context.Context, filters map[string]string) ([]Video, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	merged := map[string]string{"libtype": "movie"}
	for k, v := range filters {
		merged[k] = v
	}
	return c.searchVideos(ctx, c.baseURL+"/library/all", merged)
}

func (c *Client) searchVideos(ctx context.Context, endpoint string, filters map[string]string) ([]Video, error) {
	query := url.Values{}
	for k, v := range filters {
		if k == "libtype" {
			if code, ok := libtypeCodes[v]; ok {
				query.Set("type", code)
			}
			continue
		}
		query.Set(k, v)
	}

	fullURL := endpoint
	if len(query) > 0 {
		fullURL = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	var result container
	if err := c.get(ctx, fullURL, &result); err != nil {
		return nil, err
	}
	return result.MediaContainer.Metadata, nil
}

// RecentlyAdded returns up to maxResults most recently added items of one
// section, in the server's native recency order.
func (c *Client) RecentlyAdded(ctx context.Context, sectionKey string, maxResults int) ([]Video, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("X-Plex-Container-Start", "0")
	query.Set("X-Plex-Container-Size", strconv.Itoa(maxResults))

	endpoint := fmt.Sprintf("%s/library/sections/%s/recentlyAdded?%s",
		c.baseURL, url.PathEscape(sectionKey), query.Encode())

	var result container
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.MediaContainer.Metadata, nil
}

// Playlists lists all playlists on the server.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	var result playlistContainer
	if err := c.get(ctx, c.baseURL+"/playlists", &result); err != nil {
		return nil, err
	}
	return result.MediaContainer.Metadata, nil
}

// PlaylistItems returns the items of one playlist in playlist order.
func (c *Client) PlaylistItems(ctx context.Context, ratingKey int) ([]Video, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/playlists/%d/items", c.baseURL, ratingKey)

	var result container
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.MediaContainer.Metadata, nil
}

// CreatePlaylist creates a video playlist from the given movie rating keys.
func (c *Client) CreatePlaylist(ctx context.Context, title string, movieKeys []int) (*Playlist, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("type", "video")
	query.Set("smart", "0")
	query.Set("title", title)
	query.Set("uri", c.metadataURI(movieKeys))

	endpoint := fmt.Sprintf("%s/playlists?%s", c.baseURL, query.Encode())

	var result playlistContainer
	if err := c.request(ctx, http.MethodPost, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: create playlist returned no metadata", ErrRemote)
	}
	return &result.MediaContainer.Metadata[0], nil
}

// DeletePlaylist removes a playlist. The contained items are untouched.
func (c *Client) DeletePlaylist(ctx context.Context, ratingKey int) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/playlists/%d", c.baseURL, ratingKey)
	return c.request(ctx, http.MethodDelete, endpoint, nil)
}

// AddPlaylistItems appends the given movies to an existing playlist.
func (c *Client) AddPlaylistItems(ctx context.Context, playlistKey int, movieKeys []int) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("uri", c.metadataURI(movieKeys))

	endpoint := fmt.Sprintf("%s/playlists/%d/items?%s", c.baseURL, playlistKey, query.Encode())
	return c.request(ctx, http.MethodPut, endpoint, nil)
}

// metadataURI builds the server-scoped item URI Plex expects for playlist
// mutations.
func (c *Client) metadataURI(ratingKeys []int) string {
	keys := make([]string, len(ratingKeys))
	for i, k := range ratingKeys {
		keys[i] = strconv.Itoa(k)
	}
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		c.machineID, strings.Join(keys, ","))
}

func (c *Client) get(ctx context.Context, url string, result interface{}) error {
	return c.request(ctx, http.MethodGet, url, result)
}

func (c *Client) request(ctx context.Context, method, url string, result interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// Bound concurrently in-flight calls; blocking here keeps the dispatch
	// path free while slow catalog responses drain.
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer c.inflight.Release(1)

	log.Debug().Str("method", method).Str("url", url).Msg("Calling Plex API")

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Msg("Received Plex API response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: server rejected token (status %d)", ErrConnection, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode >= 400:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status=%d body=%s", ErrRemote, resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", ErrRemote, err)
		}
	}

	return nil
}
