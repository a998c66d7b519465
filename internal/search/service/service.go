package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petr-muller/atlassian-search/internal/config"
	"github.com/petr-muller/atlassian-search/internal/filters"
	"github.com/petr-muller/atlassian-search/internal/querylang"
	"github.com/petr-muller/atlassian-search/internal/search/compare"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

// Searcher runs a composed query against one Atlassian product
type Searcher interface {
	Search(ctx context.Context, query string, page storage.Page) ([]storage.Result, int, error)
}

// ErrNoSearcher is returned when no client is configured for the requested dialect
var ErrNoSearcher = errors.New("no search client configured")

// ValidationError is returned by Search when structured input is malformed
type ValidationError struct {
	Dialect querylang.Dialect
	Input   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s query: %s (see %s)", e.Dialect, e.Reason, e.DocsURL())
}

// DocsURL points at the syntax reference of the dialect the input was written in
func (e *ValidationError) DocsURL() string {
	return e.Dialect.DocsURL()
}

// Options configures a Service
type Options struct {
	Settings  config.Settings
	Store     *storage.Store
	Filters   []*filters.Set
	Searchers map[querylang.Dialect]Searcher
}

// Service orchestrates composing, validating, running and caching searches
type Service struct {
	settings  config.Settings
	store     *storage.Store
	filters   map[querylang.Dialect]*filters.Set
	searchers map[querylang.Dialect]Searcher

	now func() time.Time
}

// NewService creates a new service instance. Dialects without a filter set use the builtin filters.
func NewService(opts Options) *Service {
	s := &Service{
		settings: opts.Settings,
		store:    opts.Store,
		filters: map[querylang.Dialect]*filters.Set{
			querylang.JQL: filters.Builtin(querylang.JQL),
			querylang.CQL: filters.Builtin(querylang.CQL),
		},
		searchers: map[querylang.Dialect]Searcher{},
		now:       time.Now,
	}
	for _, set := range opts.Filters {
		s.filters[set.Dialect()] = set
	}
	for dialect, searcher := range opts.Searchers {
		s.searchers[dialect] = searcher
	}
	return s
}

// Request describes a single search from the palette or the CLI
type Request struct {
	Dialect  querylang.Dialect
	Input    string
	FilterID string
	// Page is 1-based; zero means the first page
	Page    int
	Refresh bool
}

// Preview is what the palette shows while the user is typing
type Preview struct {
	Dialect    querylang.Dialect
	Filter     *querylang.Filter
	Structured bool
	Validation querylang.ValidationResult
	Elements   querylang.Elements
	// Query is empty when there is nothing to search yet
	Query string
}

// Response is the outcome of Search. Result is nil when there was nothing to search.
type Response struct {
	Dialect querylang.Dialect
	Query   string
	Result  *storage.SearchResult
	// PreviousFetch is when the same page was fetched before, zero when it never was
	PreviousFetch time.Time
}

// Filters returns the filter set used for the dialect
func (s *Service) Filters(dialect querylang.Dialect) *filters.Set {
	if set, ok := s.filters[dialect]; ok {
		return set
	}
	return filters.Builtin(dialect)
}

// Store returns the result cache
func (s *Service) Store() *storage.Store {
	return s.store
}

// Preview composes the request without touching the network or the cache
func (s *Service) Preview(req Request) (*Preview, error) {
	filter, err := s.Filters(req.Dialect).Get(req.FilterID)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Dialect:    req.Dialect,
		Filter:     filter,
		Structured: querylang.Classify(req.Input, req.Dialect),
		Validation: querylang.Validate(req.Input, req.Dialect),
	}
	if preview.Structured {
		preview.Elements = querylang.Extract(req.Input)
	}
	if preview.Validation.Valid {
		preview.Query = querylang.Final(req.Input, filter, nil, req.Dialect, s.settings.OrderBy(req.Dialect))
	}
	return preview, nil
}

// Search validates and composes the request, then serves the page from the cache when it is
// fresh or from the product's search API otherwise
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	preview, err := s.Preview(req)
	if err != nil {
		return nil, err
	}
	if !preview.Validation.Valid {
		return nil, &ValidationError{Dialect: req.Dialect, Input: req.Input, Reason: preview.Validation.Error}
	}

	response := &Response{Dialect: req.Dialect, Query: preview.Query}
	if preview.Query == "" {
		return response, nil
	}

	searcher, ok := s.searchers[req.Dialect]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoSearcher, req.Dialect)
	}

	page := s.page(req.Page)
	logger := logrus.WithFields(logrus.Fields{
		"dialect": req.Dialect,
		"query":   preview.Query,
		"start":   page.Start,
	})

	cached, err := s.store.Load(req.Dialect.String(), preview.Query, page)
	if err != nil {
		logger.WithError(err).Warn("Ignoring unreadable cache entry")
		cached = nil
	}

	now := s.now()
	if cached != nil {
		response.PreviousFetch = cached.LastFetched
	}
	if !req.Refresh && cached.Fresh(now, s.settings.CacheTTL) {
		logger.Debug("Serving results from cache")
		response.Result = &storage.SearchResult{Query: *cached, FromCache: true}
		return response, nil
	}

	logger.Debug("Fetching results")
	results, total, err := searcher.Search(ctx, preview.Query, page)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	// Without a previous fetch there is nothing to highlight
	result := storage.SearchResult{}
	if cached != nil {
		result = compare.CompareResults(results, cached.Results)
	}

	entry := storage.CachedQuery{
		Dialect:     req.Dialect.String(),
		Query:       preview.Query,
		Page:        page,
		Total:       total,
		LastFetched: now,
		Results:     results,
	}
	if err := s.store.Save(entry); err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}

	result.Query = entry
	response.Result = &result
	return response, nil
}

func (s *Service) page(number int) storage.Page {
	if number < 1 {
		number = 1
	}
	return storage.Page{Start: (number - 1) * s.settings.PageSize, Limit: s.settings.PageSize}
}
