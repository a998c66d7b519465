package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petr-muller/atlassian-search/internal/querylang"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), *settings)
	assert.Equal(t, querylang.JQL, settings.Dialect())
	assert.Equal(t, "ORDER BY lastmodified DESC", settings.OrderBy(querylang.CQL))
}

func TestLoadSettingsFromFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
default_dialect: cql
page_size: 50
cache_ttl: 30s
jql_order_by: ORDER BY created DESC
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("ATLASSIAN_SEARCH_PAGE_SIZE", "10")
	t.Setenv("ATLASSIAN_SEARCH_CONFLUENCE_ENDPOINT", "https://wiki.example.com")

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, querylang.CQL, settings.Dialect())
	assert.Equal(t, 10, settings.PageSize, "environment overrides the file")
	assert.Equal(t, 30*time.Second, settings.CacheTTL)
	assert.Equal(t, "ORDER BY created DESC", settings.OrderBy(querylang.JQL))
	assert.Equal(t, "https://wiki.example.com", settings.ConfluenceEndpoint)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Settings)
		expectError bool
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "unknown dialect", mutate: func(s *Settings) { s.DefaultDialect = "sql" }, expectError: true},
		{name: "zero page size", mutate: func(s *Settings) { s.PageSize = 0 }, expectError: true},
		{name: "huge page size", mutate: func(s *Settings) { s.PageSize = 1000 }, expectError: true},
		{name: "negative ttl", mutate: func(s *Settings) { s.CacheTTL = -time.Second }, expectError: true},
		{name: "disabled cache", mutate: func(s *Settings) { s.CacheTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(&settings)
			err := settings.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCacheDirHonorsXDGDataHome(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	dir, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "atlassian-search", "cache"), dir)
}
