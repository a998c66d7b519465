package storage

import (
	"time"
)

// Result is a single search hit from Jira or Confluence, reduced to the fields we display
type Result struct {
	Key         string    `yaml:"key"`
	Title       string    `yaml:"title"`
	Kind        string    `yaml:"kind"`
	Container   string    `yaml:"container,omitempty"`
	Status      string    `yaml:"status,omitempty"`
	Owner       string    `yaml:"owner,omitempty"`
	URL         string    `yaml:"url,omitempty"`
	LastUpdated time.Time `yaml:"last_updated"`
	Labels      []string  `yaml:"labels,omitempty"`
}

// Page selects a window of results
type Page struct {
	Start int `yaml:"start"`
	Limit int `yaml:"limit"`
}

// CachedQuery is a page of results stored for a composed query
type CachedQuery struct {
	Dialect     string    `yaml:"dialect"`
	Query       string    `yaml:"query"`
	Page        Page      `yaml:"page"`
	Total       int       `yaml:"total"`
	LastFetched time.Time `yaml:"last_fetched"`
	Results     []Result  `yaml:"results"`
}

// CachedQueryItem describes a cache entry without its results
type CachedQueryItem struct {
	Name        string
	Dialect     string
	Query       string
	LastFetched time.Time
	ResultCount int
}

// ResultChange represents a change in a result field between two fetches
type ResultChange struct {
	Field    string `yaml:"field"`
	OldValue string `yaml:"old_value"`
	NewValue string `yaml:"new_value"`
}

// SearchResult is a fetched page together with what changed since the previous fetch of the same query
type SearchResult struct {
	Query          CachedQuery               `yaml:"query"`
	FromCache      bool                      `yaml:"from_cache"`
	NewResults     []Result                  `yaml:"new_results"`
	RemovedResults []Result                  `yaml:"removed_results"`
	ChangedResults map[string][]ResultChange `yaml:"changed_results"`
}
