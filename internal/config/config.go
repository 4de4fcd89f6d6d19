package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig   `mapstructure:"server"`
	Database      DatabaseConfig `mapstructure:"database"`
	Logging       LoggingConfig  `mapstructure:"logging"`
	Auth          AuthConfig     `mapstructure:"auth"`
	Metadata      MetadataConfig `mapstructure:"metadata"`
	Lists         ListsConfig    `mapstructure:"lists"`
	Session       SessionConfig  `mapstructure:"session"`
	Media         MediaConfig    `mapstructure:"media"`
	DeveloperMode bool           `mapstructure:"developer_mode"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	TokenTTLHours int      `mapstructure:"token_ttl_hours"`
	AdminEmails   []string `mapstructure:"admin_emails"` // accounts allowed on /system and /scheduler
}

// TokenTTL returns the token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// MetadataConfig holds catalog provider configuration.
type MetadataConfig struct {
	TMDB            TMDBConfig `mapstructure:"tmdb"`
	CacheTTLMinutes int        `mapstructure:"cache_ttl_minutes"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// ListsConfig holds movie list behavior settings.
type ListsConfig struct {
	MinLoadingMS         int `mapstructure:"min_loading_ms"`
	FavoritesConcurrency int `mapstructure:"favorites_concurrency"`
}

// MinLoading returns the minimum displayed loading duration. Zero means the
// one second default and a negative value turns the floor off, which is
// returned as -1.
func (c ListsConfig) MinLoading() time.Duration {
	switch {
	case c.MinLoadingMS == 0:
		return time.Second
	case c.MinLoadingMS < 0:
		return -1
	}
	return time.Duration(c.MinLoadingMS) * time.Millisecond
}

// SessionConfig holds per-user session retention settings.
type SessionConfig struct {
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes"`
}

// IdleTimeout returns how long an unused session is retained.
func (c SessionConfig) IdleTimeout() time.Duration {
	if c.IdleTimeoutMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// MediaConfig holds uploaded media storage settings.
type MediaConfig struct {
	Dir       string `mapstructure:"dir"`
	PublicURL string `mapstructure:"public_url"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/popcorn.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Metadata: MetadataConfig{
			TMDB: TMDBConfig{
				APIKey:       EmbeddedTMDBKey,
				BaseURL:      "https://api.themoviedb.org/3",
				ImageBaseURL: "https://image.tmdb.org/t/p",
				Timeout:      15,
			},
			CacheTTLMinutes: 15,
		},
		Lists: ListsConfig{
			MinLoadingMS:         1000,
			FavoritesConcurrency: 4,
		},
		Session: SessionConfig{
			IdleTimeoutMinutes: 120,
		},
		Media: MediaConfig{
			Dir:       "./data/media",
			PublicURL: "http://localhost:8080/media",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// .env is optional; values already present in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.popcorn")
	}

	v.SetEnvPrefix("POPCORN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Metadata.TMDB.BaseURL == "" {
		return errors.New("metadata.tmdb.base_url is required")
	}
	return nil
}

// setDefaults sets default values in viper. Every key is registered so that
// AutomaticEnv overrides are honored by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", d.Auth.TokenTTLHours)
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("metadata.tmdb.api_key", d.Metadata.TMDB.APIKey)
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.cache_ttl_minutes", d.Metadata.CacheTTLMinutes)

	v.SetDefault("lists.min_loading_ms", d.Lists.MinLoadingMS)
	v.SetDefault("lists.favorites_concurrency", d.Lists.FavoritesConcurrency)

	v.SetDefault("session.idle_timeout_minutes", d.Session.IdleTimeoutMinutes)

	v.SetDefault("media.dir", d.Media.Dir)
	v.SetDefault("media.public_url", d.Media.PublicURL)

	v.SetDefault("developer_mode", false)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
