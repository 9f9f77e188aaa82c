// Package config loads application configuration from environment variables,
// with .env file support for local use.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Session SessionConfig
	API     APIConfig
	Cache   CacheConfig
	Log     LogConfig
}

// SessionConfig holds authentication settings. Cookie is always required;
// the remaining fields, when all set, skip the page scrape entirely.
type SessionConfig struct {
	Cookie      string `envconfig:"ROBLOX_COOKIE" default:""`
	UserID      string `envconfig:"ROBLOX_USER_ID" default:""`
	Username    string `envconfig:"ROBLOX_USERNAME" default:""`
	DisplayName string `envconfig:"ROBLOX_DISPLAY_NAME" default:""`
	CSRFToken   string `envconfig:"ROBLOX_CSRF_TOKEN" default:""`
	PageURL     string `envconfig:"ROBLOX_PAGE_URL" default:"https://www.roblox.com/home"`
}

// APIConfig holds platform endpoint settings.
type APIConfig struct {
	GamesBaseURL string `envconfig:"ROBLOX_GAMES_BASE_URL" default:"https://games.roblox.com"`
	APIsBaseURL  string `envconfig:"ROBLOX_APIS_BASE_URL" default:"https://apis.roblox.com"`
}

// CacheConfig holds the optional universe cache settings. An empty address
// disables the cache.
type CacheConfig struct {
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"true"`
}

// HasStaticSession reports whether enough fields are set to build the
// session without scraping a page.
func (s *SessionConfig) HasStaticSession() bool {
	return s.UserID != "" && s.CSRFToken != ""
}

// Enabled reports whether the universe cache is configured.
func (c *CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}
