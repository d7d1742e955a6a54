package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"

	"github.com/bilgisen/newshub/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "POLL_INTERVAL", "HTTP_TIMEOUT", "MAX_CONCURRENCY", "DISPLAY_TZ", "REDIS_URL", "ARCHIVE_BACKEND", "LOG_LEVEL", "APP_ENV", "LOG_PRETTY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "Asia/Seoul", cfg.DisplayTZ)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "none", cfg.ArchiveBackend)
	assert.True(t, cfg.LogPretty)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoadOverridesAndInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POLL_INTERVAL", "2m")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")
	t.Setenv("DEDUPE_ACROSS_CATEGORIES", "true")
	t.Setenv("ARCHIVE_BACKEND", "FS")
	t.Setenv("ARCHIVE_PATH", "/tmp/newshub")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.DedupeAcrossCategories)
	assert.Equal(t, "fs", cfg.ArchiveBackend)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("DISPLAY_TZ", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DISPLAY_TZ", "UTC")
	t.Setenv("ARCHIVE_BACKEND", "tape")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("ARCHIVE_BACKEND", "s3")
	t.Setenv("R2_BUCKET", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestDefaultCategoriesAreValid(t *testing.T) {
	cats := DefaultCategories()
	require.NoError(t, ValidateCategories(cats))
	require.Len(t, cats, 4)
	assert.Equal(t, time.Hour, cats[0].Window.Std())
	assert.Equal(t, 6*time.Hour, cats[2].Window.Std())
	assert.Equal(t, 24*time.Hour, cats[3].Window.Std())
	assert.Contains(t, cats[3].Keywords, "nvidia")
}

func TestLoadCategoriesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Chips", "kind": "search", "query": "TSMC", "window": "90m"},
		{"name": "Wire", "kind": "api", "api_category": "general", "keywords": ["  NVIDIA "]},
		{"name": "Blogs", "kind": "feeds", "feeds": ["https://example.com/rss"], "window": 7200}
	]`), 0644))

	cats, err := LoadCategories(path)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, 90*time.Minute, cats[0].Window.Std())
	assert.Equal(t, 24*time.Hour, cats[1].Window.Std())
	assert.Equal(t, []string{"nvidia"}, cats[1].Keywords)
	assert.Equal(t, 2*time.Hour, cats[2].Window.Std())
}

func TestValidateCategoriesErrors(t *testing.T) {
	tests := []struct {
		name string
		cats []models.Category
	}{
		{"empty", nil},
		{"search without query", []models.Category{{Name: "A", Kind: models.KindSearch}}},
		{"feeds with bad url", []models.Category{{Name: "A", Kind: models.KindFeeds, Feeds: []string{"not a url"}}}},
		{"api without category", []models.Category{{Name: "A", Kind: models.KindAPI}}},
		{"unknown kind", []models.Category{{Name: "A", Kind: "ftp"}}},
		{"duplicate names", []models.Category{
			{Name: "A", Kind: models.KindSearch, Query: "x"},
			{Name: "A", Kind: models.KindSearch, Query: "y"},
		}},
		{"negative window", []models.Category{{Name: "A", Kind: models.KindSearch, Query: "x", Window: models.Duration(-time.Minute)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateCategories(tt.cats))
		})
	}
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
