package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/yourusername/mcp-plex/pkg/config"
	"golang.org/x/oauth2"
)

type contextKey int

const (
	contextKeyAPIKey contextKey = iota
	contextKeyBearerToken
)

// Provider authenticates incoming HTTP requests
type Provider interface {
	Authenticate(r *http.Request) (context.Context, error)
}

// AnonymousProvider accepts every request
type AnonymousProvider struct{}

// NewAnonymousProvider creates a provider that performs no authentication
func NewAnonymousProvider() Provider {
	return &AnonymousProvider{}
}

// Authenticate always succeeds
func (p *AnonymousProvider) Authenticate(r *http.Request) (context.Context, error) {
	return r.Context(), nil
}

// APIKeyProvider checks requests against a static set of keys
type APIKeyProvider struct {
	validKeys map[string]bool
}

// NewAPIKeyProvider creates a provider accepting the given keys
func NewAPIKeyProvider(keys []string) Provider {
	validKeys := make(map[string]bool, len(keys))
	for _, key := range keys {
		validKeys[key] = true
	}
	return &APIKeyProvider{validKeys: validKeys}
}

// Authenticate accepts a key from the X-API-Key header or the api_key
// query parameter
func (p *APIKeyProvider) Authenticate(r *http.Request) (context.Context, error) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		apiKey = r.URL.Query().Get("api_key")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("no API key provided")
	}

	if !p.validKeys[apiKey] {
		return nil, fmt.Errorf("invalid API key")
	}

	ctx := context.WithValue(r.Context(), contextKeyAPIKey, apiKey)
	return ctx, nil
}

// BearerProvider validates OAuth 2.0 bearer tokens
type BearerProvider struct {
	config *oauth2.Config
}

// NewBearerProvider creates a bearer token provider from OAuth settings
func NewBearerProvider(cfg *config.OAuthConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("oauth config is nil")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	return &BearerProvider{config: oauthConfig}, nil
}

// Authenticate extracts and checks the bearer token from the
// Authorization header
func (p *BearerProvider) Authenticate(r *http.Request) (context.Context, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("no authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	token := parts[1]
	if token == "" {
		return nil, fmt.Errorf("empty bearer token")
	}

	ctx := context.WithValue(r.Context(), contextKeyBearerToken, token)
	return ctx, nil
}

// ChainProvider tries several providers in order
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider creates a provider that accepts a request when any
// of the given providers does
func NewChainProvider(providers ...Provider) Provider {
	return &ChainProvider{providers: providers}
}

// Authenticate returns the first successful result, or the last error
func (p *ChainProvider) Authenticate(r *http.Request) (context.Context, error) {
	var lastErr error

	for _, provider := range p.providers {
		ctx, err := provider.Authenticate(r)
		if err == nil {
			return ctx, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, fmt.Errorf("no auth providers configured")
}

// FromConfig builds the provider matching the configured auth mode
func FromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.AuthMode {
	case "", "none":
		return NewAnonymousProvider(), nil
	case "api_key":
		return NewAPIKeyProvider(cfg.APIKeys), nil
	case "bearer":
		return NewBearerProvider(cfg.OAuth)
	case "both":
		bearer, err := NewBearerProvider(cfg.OAuth)
		if err != nil {
			if cfg.OAuth == nil {
				return NewAPIKeyProvider(cfg.APIKeys), nil
			}
			return nil, err
		}
		return NewChainProvider(NewAPIKeyProvider(cfg.APIKeys), bearer), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.AuthMode)
	}
}
