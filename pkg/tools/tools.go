package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/patrickmn/go-cache"
	"github.com/yourusername/mcp-plex/pkg/library"
)

// RegisterTools registers all tools with the MCP server
func RegisterTools(s *server.MCPServer, svc *library.Service, cacheStore *cache.Cache) {
	// Search tools
	registerSearchMovies(s, svc, cacheStore)
	registerGetMovieDetails(s, svc)
	registerGetMovieGenres(s, svc)
	registerRecentMovies(s, svc, cacheStore)

	// Playlist tools
	registerListPlaylists(s, svc)
	registerGetPlaylistItems(s, svc)
	registerCreatePlaylist(s, svc)
	registerDeletePlaylist(s, svc)
	registerAddToPlaylist(s, svc)
}

// decodeArgs unmarshals the request arguments into params
func decodeArgs(request mcp.CallToolRequest, params interface{}) error {
	argBytes, ok := request.Params.Arguments.([]byte)
	if !ok {
		argBytes, _ = json.Marshal(request.Params.Arguments)
	}
	if err := json.Unmarshal(argBytes, params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// searchMovies tool
func registerSearchMovies(s *server.MCPServer, svc *library.Service, cacheStore *cache.Cache) {
	tool := mcp.Tool{
		Name:        "search_movies",
		Description: "Search for movies in the Plex library by various filters. All filters are optional and combine with AND semantics.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title":        map[string]interface{}{"type": "string", "description": "Movie title, partial match"},
				"year":         map[string]interface{}{"type": "integer", "description": "Release year"},
				"director":     map[string]interface{}{"type": "string", "description": "Director name"},
				"studio":       map[string]interface{}{"type": "string", "description": "Studio name"},
				"genre":        map[string]interface{}{"type": "string", "description": "Genre name"},
				"actor":        map[string]interface{}{"type": "string", "description": "Actor name"},
				"rating":       map[string]interface{}{"type": "string", "description": "Content rating, e.g. PG-13"},
				"country":      map[string]interface{}{"type": "string", "description": "Country of origin"},
				"language":     map[string]interface{}{"type": "string", "description": "Audio language"},
				"watched":      map[string]interface{}{"type": "boolean", "description": "true for watched movies only, false for unwatched only"},
				"min_duration": map[string]interface{}{"type": "integer", "description": "Minimum duration in minutes"},
				"max_duration": map[string]interface{}{"type": "integer", "description": "Maximum duration in minutes"},
				"limit":        map[string]interface{}{"type": "integer", "description": "Maximum number of results", "minimum": 1, "default": 5},
			},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			library.SearchCriteria
			Limit int `json:"limit"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		cacheKey := fmt.Sprintf("search_movies:%v", request.Params.Arguments)
		if cached, found := cacheStore.Get(cacheKey); found {
			return mcp.NewToolResultText(cached.(string)), nil
		}

		result := svc.SearchMovies(ctx, params.SearchCriteria, params.Limit)

		cacheStore.Set(cacheKey, result, cache.DefaultExpiration)

		return mcp.NewToolResultText(result), nil
	}

	s.AddTool(tool, handler)
}

// getMovieDetails tool
func registerGetMovieDetails(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "get_movie_details",
		Description: "Get detailed information about a specific movie by its key",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"movie_key": map[string]interface{}{"type": "string", "description": "The key of the movie, as returned by search_movies"},
			},
			Required: []string{"movie_key"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			MovieKey string `json:"movie_key"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.MovieDetails(ctx, params.MovieKey)), nil
	}

	s.AddTool(tool, handler)
}

// getMovieGenres tool
func registerGetMovieGenres(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "get_movie_genres",
		Description: "Get the genres of a specific movie by its key",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"movie_key": map[string]interface{}{"type": "string", "description": "The key of the movie"},
			},
			Required: []string{"movie_key"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			MovieKey string `json:"movie_key"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.MovieGenres(ctx, params.MovieKey)), nil
	}

	s.AddTool(tool, handler)
}

// recentMovies tool
func registerRecentMovies(s *server.MCPServer, svc *library.Service, cacheStore *cache.Cache) {
	tool := mcp.Tool{
		Name:        "recent_movies",
		Description: "Get movies recently added to the library, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"count": map[string]interface{}{"type": "integer", "description": "Maximum number of movies to return", "minimum": 1, "default": 5},
			},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			Count int `json:"count"`
		}
		params.Count = 5

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		cacheKey := fmt.Sprintf("recent_movies:%d", params.Count)
		if cached, found := cacheStore.Get(cacheKey); found {
			return mcp.NewToolResultText(cached.(string)), nil
		}

		result := svc.RecentMovies(ctx, params.Count)

		cacheStore.Set(cacheKey, result, cache.DefaultExpiration)

		return mcp.NewToolResultText(result), nil
	}

	s.AddTool(tool, handler)
}

// listPlaylists tool
func registerListPlaylists(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "list_playlists",
		Description: "List all playlists on the Plex server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(svc.ListPlaylists(ctx)), nil
	}

	s.AddTool(tool, handler)
}

// getPlaylistItems tool
func registerGetPlaylistItems(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "get_playlist_items",
		Description: "List the items in a specific playlist",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"playlist_key": map[string]interface{}{"type": "string", "description": "The key of the playlist, as returned by list_playlists"},
			},
			Required: []string{"playlist_key"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			PlaylistKey string `json:"playlist_key"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.PlaylistItems(ctx, params.PlaylistKey)), nil
	}

	s.AddTool(tool, handler)
}

// createPlaylist tool
func registerCreatePlaylist(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "create_playlist",
		Description: "Create a new playlist from one or more movie keys",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name":       map[string]interface{}{"type": "string", "description": "Name for the new playlist"},
				"movie_keys": map[string]interface{}{"type": "string", "description": "Comma-separated movie keys, e.g. '123' or '123,456,789'"},
			},
			Required: []string{"name", "movie_keys"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			Name      string `json:"name"`
			MovieKeys string `json:"movie_keys"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.CreatePlaylist(ctx, params.Name, params.MovieKeys)), nil
	}

	s.AddTool(tool, handler)
}

// deletePlaylist tool
func registerDeletePlaylist(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "delete_playlist",
		Description: "Delete a playlist by its key",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"playlist_key": map[string]interface{}{"type": "string", "description": "The key of the playlist to delete"},
			},
			Required: []string{"playlist_key"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			PlaylistKey string `json:"playlist_key"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.DeletePlaylist(ctx, params.PlaylistKey)), nil
	}

	s.AddTool(tool, handler)
}

// addToPlaylist tool
func registerAddToPlaylist(s *server.MCPServer, svc *library.Service) {
	tool := mcp.Tool{
		Name:        "add_to_playlist",
		Description: "Add a movie to an existing playlist",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"playlist_key": map[string]interface{}{"type": "string", "description": "The key of the playlist"},
				"movie_key":    map[string]interface{}{"type": "string", "description": "The key of the movie to add"},
			},
			Required: []string{"playlist_key", "movie_key"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var params struct {
			PlaylistKey string `json:"playlist_key"`
			MovieKey    string `json:"movie_key"`
		}

		if err := decodeArgs(request, &params); err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(svc.AddToPlaylist(ctx, params.PlaylistKey, params.MovieKey)), nil
	}

	s.AddTool(tool, handler)
}
