package compare

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

func TestCompareResults(t *testing.T) {
	updated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	previous := []storage.Result{
		{Key: "A-1", Title: "First", Status: "New", LastUpdated: updated},
		{Key: "A-2", Title: "Second", Status: "New", LastUpdated: updated, Labels: []string{"x"}},
		{Key: "A-3", Title: "Third", LastUpdated: updated},
	}
	current := []storage.Result{
		{Key: "A-4", Title: "Fourth", LastUpdated: updated},
		{Key: "A-1", Title: "First", Status: "New", LastUpdated: updated},
		{Key: "A-2", Title: "Second, renamed", Status: "Done", LastUpdated: updated.Add(time.Hour), Labels: []string{"x", "y"}},
	}

	result := CompareResults(current, previous)

	expectedNew := []storage.Result{current[0]}
	if diff := cmp.Diff(expectedNew, result.NewResults); diff != "" {
		t.Errorf("unexpected new results (-want +got):\n%s", diff)
	}

	expectedRemoved := []storage.Result{previous[2]}
	if diff := cmp.Diff(expectedRemoved, result.RemovedResults); diff != "" {
		t.Errorf("unexpected removed results (-want +got):\n%s", diff)
	}

	expectedChanged := map[string][]storage.ResultChange{
		"A-2": {
			{Field: "title", OldValue: "Second", NewValue: "Second, renamed"},
			{Field: "status", OldValue: "New", NewValue: "Done"},
			{Field: "last_updated", OldValue: "2026-10-01T12:00:00Z", NewValue: "2026-10-01T13:00:00Z"},
			{Field: "labels", OldValue: "x", NewValue: "x, y"},
		},
	}
	if diff := cmp.Diff(expectedChanged, result.ChangedResults); diff != "" {
		t.Errorf("unexpected changed results (-want +got):\n%s", diff)
	}

	if !HasChanges(result) {
		t.Errorf("expected changes to be reported")
	}
	if !IsNew(result, "A-4") || IsNew(result, "A-1") {
		t.Errorf("expected only A-4 to be new")
	}
}

func TestCompareResultsWithoutPrevious(t *testing.T) {
	current := []storage.Result{{Key: "A-1"}}

	result := CompareResults(current, nil)
	if len(result.NewResults) != 1 {
		t.Errorf("expected every result to be new, got %d", len(result.NewResults))
	}

	unchanged := CompareResults(current, current)
	if HasChanges(unchanged) {
		t.Errorf("expected no changes, got %+v", unchanged)
	}
}

func TestCompareIgnoresNilVersusEmptyLabels(t *testing.T) {
	result := CompareResults(
		[]storage.Result{{Key: "A-1", Labels: []string{}}},
		[]storage.Result{{Key: "A-1"}},
	)
	if HasChanges(result) {
		t.Errorf("expected nil and empty labels to compare equal, got %+v", result.ChangedResults)
	}
}
