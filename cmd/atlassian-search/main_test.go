package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/petr-muller/atlassian-search/internal/config"
	"github.com/petr-muller/atlassian-search/internal/filters"
	"github.com/petr-muller/atlassian-search/internal/querylang"
	"github.com/petr-muller/atlassian-search/internal/search/service"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

// isolate points the config and data directories at temporary ones
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "free text in JQL",
			args:     []string{"compose", "--dialect", "jql", "crash"},
			expected: `summary ~ "crash" ORDER BY updated DESC`,
		},
		{
			name:     "issue key in JQL",
			args:     []string{"compose", "--dialect", "jql", "OCPBUGS-123"},
			expected: `key = "OCPBUGS-123" ORDER BY updated DESC`,
		},
		{
			name:     "free text with a CQL filter",
			args:     []string{"compose", "--dialect", "cql", "-f", "pages", "bug", "report"},
			expected: `text ~ "bug report" AND type = page ORDER BY lastmodified DESC`,
		},
		{
			name:     "structured input is kept",
			args:     []string{"compose", "--dialect", "jql", "-f", "assigned-to-me", "project = OCPBUGS ORDER BY priority DESC"},
			expected: "project = OCPBUGS ORDER BY priority DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", out)
		})
	}
}

func TestComposeUsesDialectFromSettings(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(config.MustConfigDir(), 0755))
	require.NoError(t, os.WriteFile(config.SettingsPath(), []byte("default_dialect: cql\ncql_order_by: ORDER BY created DESC\n"), 0644))

	out, err := run(t, "compose", "roadmap")
	require.NoError(t, err)
	assert.Equal(t, "text ~ \"roadmap\" ORDER BY created DESC\n", out)
}

func TestComposeErrors(t *testing.T) {
	isolate(t)

	_, err := run(t, "compose", "--dialect", "jql", "project = A AND (status = Open")
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, querylang.ErrUnmatchedParentheses, validationErr.Reason)

	_, err = run(t, "compose", "--dialect", "jql")
	assert.Error(t, err, "empty input without an auto query filter")

	_, err = run(t, "compose", "--dialect", "sql", "x")
	assert.ErrorIs(t, err, querylang.ErrUnknownDialect)

	_, err = run(t, "compose", "--dialect", "jql", "-f", "nope", "x")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "compose", "x")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	isolate(t)

	out, err := run(t, "inspect", "--dialect", "jql", `project = OCPBUGS AND status = "In Progress"`)
	require.NoError(t, err)

	var got inspection
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.True(t, got.Structured)
	assert.True(t, got.Valid)
	require.NotNil(t, got.Elements)
	assert.Equal(t, []string{"project", "status"}, got.Elements.Fields)
	assert.Equal(t, []string{"=", "="}, got.Elements.Operators)
	assert.Equal(t, []string{"OCPBUGS", "In Progress"}, got.Elements.Values)

	out, err = run(t, "inspect", "--dialect", "jql", "project = A AND (status = Open")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.False(t, got.Valid)
	assert.Equal(t, querylang.ErrUnmatchedParentheses, got.Error)
	assert.Equal(t, querylang.JQL.DocsURL(), got.Docs)
}

func TestInspectVocabulary(t *testing.T) {
	isolate(t)

	out, err := run(t, "inspect", "--dialect", "cql", "--vocabulary", "type = page")
	require.NoError(t, err)

	var got inspection
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Vocabulary)
	assert.Contains(t, got.Vocabulary.Fields, "space")
	assert.Contains(t, got.Vocabulary.Functions, "recentlyViewedContent")
	assert.Nil(t, got.Remote)

	out, err = run(t, "inspect", "--dialect", "cql", "type = page")
	require.NoError(t, err)
	assert.NotContains(t, out, "vocabulary")
}

func TestInspectRemoteNeedsJQL(t *testing.T) {
	isolate(t)

	_, err := run(t, "inspect", "--dialect", "cql", "--remote", "type = page")
	assert.ErrorContains(t, err, "only supported for JQL")
}

type fakeValidator struct {
	queries []string
	err     error
}

func (f *fakeValidator) ValidateJQL(_ context.Context, jql string) error {
	f.queries = append(f.queries, jql)
	return f.err
}

func TestCheckRemote(t *testing.T) {
	valid := &service.Preview{Validation: querylang.ValidationResult{Valid: true}, Query: "project = OCPBUGS"}

	validator := &fakeValidator{}
	assert.Equal(t, &remoteCheck{Valid: true}, checkRemote(context.Background(), validator, valid))
	assert.Equal(t, []string{"project = OCPBUGS"}, validator.queries)

	validator = &fakeValidator{err: errors.New("invalid JQL query: field 'projct' does not exist")}
	assert.Equal(t, &remoteCheck{Error: "invalid JQL query: field 'projct' does not exist"}, checkRemote(context.Background(), validator, valid))

	validator = &fakeValidator{}
	invalid := &service.Preview{Validation: querylang.ValidationResult{Error: querylang.ErrUnmatchedParentheses}, Query: "a = (b"}
	assert.Nil(t, checkRemote(context.Background(), validator, invalid))
	assert.Nil(t, checkRemote(context.Background(), validator, &service.Preview{Validation: querylang.ValidationResult{Valid: true}}))
	assert.Empty(t, validator.queries, "locally rejected or empty queries are not sent")
}

func TestPaletteFilter(t *testing.T) {
	set := filters.Builtin(querylang.JQL)

	filter, err := paletteFilter(set, "")
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.Equal(t, "recently-updated", filter.ID)

	filter, err = paletteFilter(set, "watching")
	require.NoError(t, err)
	assert.Equal(t, "watching", filter.ID)

	_, err = paletteFilter(set, "nope")
	assert.ErrorIs(t, err, filters.ErrUnknownFilter)

	empty, err := filters.NewSet(querylang.CQL)
	require.NoError(t, err)
	filter, err = paletteFilter(empty, "")
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestFilters(t *testing.T) {
	isolate(t)

	out, err := run(t, "filters", "--dialect", "cql")
	require.NoError(t, err)
	assert.Contains(t, out, "recently-viewed")
	assert.Contains(t, out, "title-only")
	assert.NotContains(t, out, "assigned-to-me")
}

func TestCache(t *testing.T) {
	isolate(t)

	dataDir, err := config.CacheDir()
	require.NoError(t, err)

	out, err := run(t, "cache", "list")
	require.NoError(t, err)
	assert.Equal(t, "No cached searches found in "+dataDir+"\n", out)

	require.NoError(t, storage.NewStore(dataDir).Save(storage.CachedQuery{
		Dialect:     "JQL",
		Query:       "project = OCPBUGS",
		Page:        storage.Page{Limit: 25},
		LastFetched: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Results:     []storage.Result{{Key: "OCPBUGS-1"}},
	}))

	out, err = run(t, "cache", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Cached searches in "+dataDir+"\n"))
	assert.Contains(t, out, "project = OCPBUGS")

	out, err = run(t, "cache", "purge")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 cached searches\n", out)
}

func TestInputText(t *testing.T) {
	assert.Equal(t, "", inputText(nil))
	assert.Equal(t, "bug report", inputText([]string{"bug", "report"}))
}

func TestRenderResponse(t *testing.T) {
	response := &service.Response{
		Query: "project = OCPBUGS ORDER BY updated DESC",
		Result: &storage.SearchResult{
			Query: storage.CachedQuery{
				Page:  storage.Page{Start: 25, Limit: 25},
				Total: 30,
				Results: []storage.Result{
					{Key: "OCPBUGS-1", Title: "Cluster upgrade stuck", URL: "https://issues.example.com/browse/OCPBUGS-1"},
				},
			},
			NewResults: []storage.Result{{Key: "OCPBUGS-1"}},
		},
		PreviousFetch: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}

	out := renderResponse(response)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "project = OCPBUGS ORDER BY updated DESC", lines[0])
	assert.Equal(t, "Results 26-26 of 30 (1 new, 0 changed, 0 gone since 2026-10-01 12:00)", lines[1])
	assert.Contains(t, out, "+OCPBUGS-1")
	assert.Contains(t, out, "https://issues.example.com/browse/OCPBUGS-1")

	response.Result.Query.Results = nil
	assert.Contains(t, renderResponse(response), "No results")
}

func TestDefaultPathsFollowConfigDir(t *testing.T) {
	isolate(t)
	cmd := newRootCmd()

	settings := cmd.PersistentFlags().Lookup("settings")
	require.NotNil(t, settings)
	assert.Equal(t, filepath.Join(config.MustConfigDir(), "settings.yaml"), settings.DefValue)
}
