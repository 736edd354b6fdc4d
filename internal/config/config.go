// Package config loads runtime configuration from defaults, an optional
// TOML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Storage backends
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// DBConfig holds the PostgreSQL pool settings
type DBConfig struct {
	MaxOpenConns       int `toml:"max_open_conns"`
	MaxIdleConns       int `toml:"max_idle_conns"`
	ConnMaxLifetimeSec int `toml:"conn_max_lifetime_sec"`
	ConnMaxIdleSec     int `toml:"conn_max_idle_sec"`
}

// ConnMaxLifetime returns the lifetime as a duration
func (c DBConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeSec) * time.Second
}

// ConnMaxIdleTime returns the idle time as a duration
func (c DBConfig) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.ConnMaxIdleSec) * time.Second
}

// Config is the complete runtime configuration
type Config struct {
	Storage     string   `toml:"storage"`
	DataDir     string   `toml:"data_dir"`
	UploadDir   string   `toml:"upload_dir"`
	DatabaseURL string   `toml:"database_url"`
	DB          DBConfig `toml:"db"`

	RedisURL    string `toml:"redis_url"`
	CacheTTLSec int    `toml:"cache_ttl_sec"`

	Port      int    `toml:"port"`
	JWTSecret string `toml:"jwt_secret"`

	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`

	EmbedWorkers int `toml:"embed_workers"`

	KB domain.KBSettings `toml:"kb"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Storage:   StorageSQLite,
		DataDir:   "data/kb",
		UploadDir: "data/kb/uploads",
		DB: DBConfig{
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
			ConnMaxIdleSec:     60,
		},
		CacheTTLSec:  300,
		Port:         8080,
		LogFormat:    "text",
		LogLevel:     "info",
		EmbedWorkers: 4,
		KB:           domain.DefaultKBSettings(),
	}
}

// CacheTTL returns the search cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// AuthEnabled reports whether API tokens are required
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load builds the configuration. A .env file in the working directory is
// loaded first if present; the TOML file is path, or KB_CONFIG_FILE when
// path is empty. Environment variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("KB_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Storage = getEnv("KB_STORAGE", c.Storage)
	c.DataDir = getEnv("KB_DATA_DIR", c.DataDir)
	c.UploadDir = getEnv("KB_UPLOAD_DIR", c.UploadDir)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.DB.MaxIdleConns)
	c.DB.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.DB.ConnMaxLifetimeSec)
	c.DB.ConnMaxIdleSec = getEnvInt("DB_CONN_MAX_IDLE_SEC", c.DB.ConnMaxIdleSec)

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.CacheTTLSec = getEnvInt("KB_CACHE_TTL_SEC", c.CacheTTLSec)

	c.Port = getEnvInt("PORT", c.Port)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	c.LogFormat = getEnv("KB_LOG_FORMAT", c.LogFormat)
	c.LogLevel = getEnv("KB_LOG_LEVEL", c.LogLevel)
	c.EmbedWorkers = getEnvInt("KB_EMBED_WORKERS", c.EmbedWorkers)

	c.KB.PolicyProfile = getEnv("KB_POLICY_PROFILE", c.KB.PolicyProfile)
	c.KB.AllowedSourceTypes = getEnvList("KB_ALLOWED_SOURCE_TYPES", c.KB.AllowedSourceTypes)
	c.KB.BlockedSourceKeywords = getEnvList("KB_BLOCKED_SOURCE_KEYWORDS", c.KB.BlockedSourceKeywords)
	c.KB.PreferredSourceTypes = getEnvList("KB_PREFERRED_SOURCE_TYPES", c.KB.PreferredSourceTypes)
	c.KB.RecencyHalfLifeDays = getEnvInt("KB_RECENCY_HALF_LIFE_DAYS", c.KB.RecencyHalfLifeDays)
	c.KB.EmbeddingDimensions = getEnvInt("KB_EMBEDDING_DIM", c.KB.EmbeddingDimensions)
	c.KB.SnippetMaxChars = getEnvInt("KB_SNIPPET_MAX_CHARS", c.KB.SnippetMaxChars)
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for postgres storage", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q (use sqlite or postgres)", domain.ErrInvalidInput, c.Storage)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidInput, c.Port)
	}
	if c.KB.EmbeddingDimensions < 1 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}
	if c.KB.SnippetMaxChars < 1 {
		return fmt.Errorf("%w: snippet length must be positive", domain.ErrInvalidInput)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log format %q (use text or json)", domain.ErrInvalidInput, c.LogFormat)
	}
	return nil
}

// ParseLevel converts a level name into a slog.Level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", domain.ErrInvalidInput, level)
	}
	return l, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable. A variable set to an
// empty list ("" is unset, "," is empty) yields an empty slice.
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
