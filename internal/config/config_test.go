package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// chdirTemp runs the test inside an empty directory so no .env is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("KB_CONFIG_FILE", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, domain.DefaultKBSettings(), cfg.KB)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, 300, int(cfg.CacheTTL().Seconds()))
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "kb.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage = "postgres"
database_url = "postgres://file"
port = 9000

[db]
max_open_conns = 7

[kb]
policy_profile = "strict"
blocked_source_keywords = ["draft"]
recency_half_life_days = 30
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("KB_ALLOWED_SOURCE_TYPES", "json, txt ,")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "postgres://file", cfg.DatabaseURL)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 7, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5, cfg.DB.MaxIdleConns)
	assert.Equal(t, domain.PolicyStrict, cfg.KB.PolicyProfile)
	assert.Equal(t, []string{"draft"}, cfg.KB.BlockedSourceKeywords)
	assert.Equal(t, []string{"json", "txt"}, cfg.KB.AllowedSourceTypes)
	assert.Equal(t, 30, cfg.KB.RecencyHalfLifeDays)
	assert.Equal(t, 256, cfg.KB.EmbeddingDimensions)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KB_POLICY_PROFILE=recall\n"), 0o600))
	t.Setenv("KB_CONFIG_FILE", "")
	// Registers cleanup; godotenv never overrides variables already set.
	t.Setenv("KB_POLICY_PROFILE", "")
	os.Unsetenv("KB_POLICY_PROFILE")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyRecall, cfg.KB.PolicyProfile)
}

func TestLoad_MissingFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_BadTOML(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = = 1"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage = "mongo" }},
		{"postgres without url", func(c *Config) { c.Storage = StoragePostgres }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"zero dimensions", func(c *Config) { c.KB.EmbeddingDimensions = 0 }},
		{"zero snippet", func(c *Config) { c.KB.SnippetMaxChars = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestGetEnvList_ExplicitEmpty(t *testing.T) {
	t.Setenv("KB_TEST_LIST", ",")
	assert.Equal(t, []string{}, getEnvList("KB_TEST_LIST", []string{"a"}))

	t.Setenv("KB_TEST_LIST", "")
	assert.Equal(t, []string{"a"}, getEnvList("KB_TEST_LIST", []string{"a"}))
}
