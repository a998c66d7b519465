package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/petr-muller/atlassian-search/internal/querylang"
)

const (
	settingsFileName = "settings.yaml"

	maxPageSize = 100
)

// Settings holds the tunables of atlassian-search. Values come from defaults, then
// settings.yaml in the config directory, then ATLASSIAN_SEARCH_* environment variables.
type Settings struct {
	DefaultDialect string        `envconfig:"ATLASSIAN_SEARCH_DIALECT" yaml:"default_dialect"`
	PageSize       int           `envconfig:"ATLASSIAN_SEARCH_PAGE_SIZE" yaml:"page_size"`
	CacheTTL       time.Duration `envconfig:"ATLASSIAN_SEARCH_CACHE_TTL" yaml:"cache_ttl"`

	// Default orderings used when neither the input nor the active filter has one
	JQLOrderBy string `envconfig:"ATLASSIAN_SEARCH_JQL_ORDER_BY" yaml:"jql_order_by"`
	CQLOrderBy string `envconfig:"ATLASSIAN_SEARCH_CQL_ORDER_BY" yaml:"cql_order_by"`

	ConfluenceEndpoint string `envconfig:"ATLASSIAN_SEARCH_CONFLUENCE_ENDPOINT" yaml:"confluence_endpoint"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		DefaultDialect: "jql",
		PageSize:       25,
		CacheTTL:       5 * time.Minute,
		JQLOrderBy:     "ORDER BY updated DESC",
		CQLOrderBy:     "ORDER BY lastmodified DESC",
	}
}

// SettingsPath returns the default location of settings.yaml
func SettingsPath() string {
	return filepath.Join(MustConfigDir(), settingsFileName)
}

// LoadSettings loads settings from the file at path (skipped when it does not exist) and the environment
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return nil, fmt.Errorf("failed to parse settings file: %w", err)
			}
		}
	}

	if err := envconfig.Process("", &settings); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &settings, nil
}

// Validate checks the settings for values the search service cannot work with
func (s *Settings) Validate() error {
	if _, err := querylang.ParseDialect(s.DefaultDialect); err != nil {
		return err
	}
	if s.PageSize < 1 || s.PageSize > maxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", maxPageSize, s.PageSize)
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", s.CacheTTL)
	}
	return nil
}

// Dialect returns the parsed default dialect
func (s *Settings) Dialect() querylang.Dialect {
	dialect, err := querylang.ParseDialect(s.DefaultDialect)
	if err != nil {
		return querylang.JQL
	}
	return dialect
}

// OrderBy returns the default ORDER BY clause for the dialect
func (s *Settings) OrderBy(dialect querylang.Dialect) string {
	if dialect == querylang.CQL {
		return s.CQLOrderBy
	}
	return s.JQLOrderBy
}
