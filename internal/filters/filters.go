package filters

import (
	"errors"
	"fmt"

	"github.com/petr-muller/atlassian-search/internal/querylang"
)

// ErrUnknownFilter is returned when a filter id is not part of a set
var ErrUnknownFilter = errors.New("unknown filter")

// Set is an ordered, read-only collection of filters for one dialect
type Set struct {
	dialect querylang.Dialect
	filters []*querylang.Filter
	byID    map[string]*querylang.Filter
}

// NewSet creates a filter set, rejecting empty and duplicate ids
func NewSet(dialect querylang.Dialect, filters ...*querylang.Filter) (*Set, error) {
	s := &Set{
		dialect: dialect,
		byID:    make(map[string]*querylang.Filter, len(filters)),
	}
	for _, filter := range filters {
		if filter.ID == "" {
			return nil, fmt.Errorf("%s filter %q has no id", dialect, filter.Label)
		}
		if _, exists := s.byID[filter.ID]; exists {
			return nil, fmt.Errorf("duplicate %s filter id %q", dialect, filter.ID)
		}
		s.byID[filter.ID] = filter
		s.filters = append(s.filters, filter)
	}
	return s, nil
}

// Dialect returns the dialect the filters are written in
func (s *Set) Dialect() querylang.Dialect {
	return s.dialect
}

// Get returns the filter with the given id. An empty id means no filter and returns nil.
func (s *Set) Get(id string) (*querylang.Filter, error) {
	if id == "" {
		return nil, nil
	}
	filter, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s filter %q", ErrUnknownFilter, s.dialect, id)
	}
	return filter, nil
}

// List returns the filters in display order
func (s *Set) List() []*querylang.Filter {
	return append([]*querylang.Filter{}, s.filters...)
}

// AutoQuery returns the first filter that runs on empty input, or nil
func (s *Set) AutoQuery() *querylang.Filter {
	for _, filter := range s.filters {
		if filter.AutoQuery {
			return filter
		}
	}
	return nil
}

// Next returns the filter following current in display order. The cycle passes through nil
// (no filter) after the last filter.
func (s *Set) Next(current *querylang.Filter) *querylang.Filter {
	if len(s.filters) == 0 {
		return nil
	}
	if current == nil {
		return s.filters[0]
	}
	for i, filter := range s.filters {
		if filter.ID == current.ID && i+1 < len(s.filters) {
			return s.filters[i+1]
		}
	}
	return nil
}

// Builtin returns the filters shipped for the dialect
func Builtin(dialect querylang.Dialect) *Set {
	var filters []*querylang.Filter
	switch dialect {
	case querylang.CQL:
		filters = builtinCQL()
	default:
		filters = builtinJQL()
	}
	s, err := NewSet(dialect, filters...)
	if err != nil {
		panic(fmt.Errorf("invalid builtin filters: %w", err))
	}
	return s
}

func builtinJQL() []*querylang.Filter {
	return []*querylang.Filter{
		{
			ID:    "assigned-to-me",
			Label: "Assigned to Me",
			Icon:  "person",
			Query: "assignee = currentUser()",
		},
		{
			ID:    "reported-by-me",
			Label: "Reported by Me",
			Icon:  "megaphone",
			Query: "reporter = currentUser()",
		},
		{
			ID:      "open",
			Label:   "Open Issues",
			Icon:    "circle",
			Query:   "statusCategory != Done",
			OrderBy: "ORDER BY updated DESC",
		},
		{
			ID:    "watching",
			Label: "Watching",
			Icon:  "eye",
			Query: "watcher = currentUser()",
		},
		{
			ID:        "recently-updated",
			Label:     "Recently Updated",
			Icon:      "clock",
			Query:     "updated >= -7d",
			OrderBy:   "ORDER BY updated DESC",
			AutoQuery: true,
		},
		{
			ID:      "my-worklogs",
			Label:   "My Worklogs",
			Icon:    "stopwatch",
			Query:   "worklogAuthor = currentUser()",
			OrderBy: "ORDER BY updated DESC",
		},
	}
}

func builtinCQL() []*querylang.Filter {
	return []*querylang.Filter{
		{
			ID:    "pages",
			Label: "Pages",
			Icon:  "document",
			Query: "type = page",
		},
		{
			ID:    "blogposts",
			Label: "Blog Posts",
			Icon:  "pencil",
			Query: "type = blogpost",
		},
		{
			ID:        "title-only",
			Label:     "Title Only",
			Icon:      "text",
			Transform: titleOnly,
		},
		{
			ID:      "created-by-me",
			Label:   "Created by Me",
			Icon:    "person",
			Query:   "creator = currentUser()",
			OrderBy: "ORDER BY created DESC",
		},
		{
			ID:      "contributed",
			Label:   "Contributed to",
			Icon:    "pencil",
			Query:   "contributor = currentUser()",
			OrderBy: "ORDER BY lastmodified DESC",
		},
		{
			ID:    "spaces",
			Label: "Spaces",
			Icon:  "folder",
			Query: "type = space",
		},
		{
			ID:    "people",
			Label: "People",
			Icon:  "people",
			Query: "type = user",
		},
		{
			ID:        "global-spaces",
			Label:     "Global Spaces Only",
			Icon:      "globe",
			Transform: globalSpacesOnly,
		},
		{
			ID:        "recently-viewed",
			Label:     "Recently Viewed",
			Icon:      "clock",
			Query:     "id in recentlyViewedContent(20)",
			AutoQuery: true,
		},
	}
}
