package compare

import (
	"reflect"
	"strings"
	"time"

	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

// CompareResults compares freshly fetched results with the previously cached ones
func CompareResults(current, previous []storage.Result) storage.SearchResult {
	previousMap := make(map[string]storage.Result, len(previous))
	for _, result := range previous {
		previousMap[result.Key] = result
	}
	currentMap := make(map[string]storage.Result, len(current))
	for _, result := range current {
		currentMap[result.Key] = result
	}

	var newResults []storage.Result
	var removedResults []storage.Result
	changedResults := make(map[string][]storage.ResultChange)

	// Walk the slices rather than the maps to keep the search order
	for _, result := range current {
		previousResult, exists := previousMap[result.Key]
		if !exists {
			newResults = append(newResults, result)
			continue
		}
		if changes := compareResults(result, previousResult); len(changes) > 0 {
			changedResults[result.Key] = changes
		}
	}

	for _, result := range previous {
		if _, exists := currentMap[result.Key]; !exists {
			removedResults = append(removedResults, result)
		}
	}

	return storage.SearchResult{
		NewResults:     newResults,
		RemovedResults: removedResults,
		ChangedResults: changedResults,
	}
}

// compareResults compares two results and returns a list of changes
func compareResults(current, previous storage.Result) []storage.ResultChange {
	var changes []storage.ResultChange

	fields := []struct {
		name          string
		current, prev string
	}{
		{"title", current.Title, previous.Title},
		{"container", current.Container, previous.Container},
		{"status", current.Status, previous.Status},
		{"owner", current.Owner, previous.Owner},
	}
	for _, field := range fields {
		if field.current != field.prev {
			changes = append(changes, storage.ResultChange{
				Field:    field.name,
				OldValue: field.prev,
				NewValue: field.current,
			})
		}
	}

	if !current.LastUpdated.Equal(previous.LastUpdated) {
		changes = append(changes, storage.ResultChange{
			Field:    "last_updated",
			OldValue: previous.LastUpdated.Format(time.RFC3339),
			NewValue: current.LastUpdated.Format(time.RFC3339),
		})
	}

	if !reflect.DeepEqual(current.Labels, previous.Labels) && (len(current.Labels) > 0 || len(previous.Labels) > 0) {
		changes = append(changes, storage.ResultChange{
			Field:    "labels",
			OldValue: strings.Join(previous.Labels, ", "),
			NewValue: strings.Join(current.Labels, ", "),
		})
	}

	return changes
}

// HasChanges returns true if there are any changes in the search result
func HasChanges(result storage.SearchResult) bool {
	return len(result.NewResults) > 0 || len(result.RemovedResults) > 0 || len(result.ChangedResults) > 0
}

// IsNew reports whether the result with the given key appeared since the previous fetch
func IsNew(result storage.SearchResult, key string) bool {
	for _, r := range result.NewResults {
		if r.Key == key {
			return true
		}
	}
	return false
}
