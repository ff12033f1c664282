package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ListenAddr    string `mapstructure:"listen_addr"`
	TransportMode string `mapstructure:"transport_mode"` // "stdio" or "http"

	// Plex connection
	PlexURL   string `mapstructure:"plex_url"`
	PlexToken string `mapstructure:"plex_token"`

	// Authentication (HTTP transport only)
	AuthMode string       `mapstructure:"auth_mode"` // "none", "api_key", "bearer", "both"
	APIKeys  []string     `mapstructure:"api_keys"`
	OAuth    *OAuthConfig `mapstructure:"oauth"`

	// Cache settings
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Rate limiting
	RateLimitPerSecond int `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst"`

	// Timeouts and concurrency
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	PlexTimeout           time.Duration `mapstructure:"plex_timeout"`
	MaxConcurrentRequests int           `mapstructure:"max_concurrent_requests"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// OAuthConfig holds settings for bearer-token validation
type OAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Load loads configuration from file and environment
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			// Config file is optional
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("MCP")
	v.AutomaticEnv()

	// Conventional Plex variable names take effect without the MCP_ prefix.
	_ = v.BindEnv("plex_url", "MCP_PLEX_URL", "PLEX_SERVER_URL")
	_ = v.BindEnv("plex_token", "MCP_PLEX_TOKEN", "PLEX_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDerivedDefaults(&cfg, v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("transport_mode", "stdio")

	v.SetDefault("auth_mode", "none")
	v.SetDefault("api_keys", []string{})

	v.SetDefault("cache_ttl", 5*time.Minute)

	v.SetDefault("rate_limit_per_second", 100)
	v.SetDefault("rate_limit_burst", 200)

	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("plex_timeout", 30*time.Second)
	v.SetDefault("max_concurrent_requests", 8)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

func applyDerivedDefaults(cfg *Config, v *viper.Viper) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if cfg.TransportMode == "" {
		cfg.TransportMode = v.GetString("transport_mode")
		if cfg.TransportMode == "" {
			cfg.TransportMode = "stdio"
		}
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 100
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 200
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	if cfg.PlexTimeout <= 0 {
		cfg.PlexTimeout = 30 * time.Second
	}

	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 8
	}

	if cfg.AuthMode == "" {
		cfg.AuthMode = "none"
	}
}

// Validate validates the configuration. A missing Plex URL or token is fatal:
// nothing can proceed without them.
func (c *Config) Validate() error {
	if c.PlexURL == "" {
		return fmt.Errorf("plex_url is required: set plex_url or PLEX_SERVER_URL")
	}

	if c.PlexToken == "" {
		return fmt.Errorf("plex_token is required: set plex_token or PLEX_TOKEN")
	}

	validTransportModes := map[string]bool{
		"stdio": true,
		"http":  true,
	}
	if !validTransportModes[c.TransportMode] {
		return fmt.Errorf("invalid transport_mode: %s", c.TransportMode)
	}

	validAuthModes := map[string]bool{
		"none":    true,
		"api_key": true,
		"bearer":  true,
		"both":    true,
	}
	if !validAuthModes[c.AuthMode] {
		return fmt.Errorf("invalid auth_mode: %s", c.AuthMode)
	}

	if (c.AuthMode == "api_key" || c.AuthMode == "both") && len(c.APIKeys) == 0 {
		return fmt.Errorf("api_keys required when auth_mode is %s", c.AuthMode)
	}

	if c.AuthMode == "bearer" && c.OAuth == nil {
		return fmt.Errorf("oauth configuration required when auth_mode is %s", c.AuthMode)
	}

	return nil
}
