package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/petr-muller/atlassian-search/internal/filters"
	"github.com/petr-muller/atlassian-search/internal/querylang"
	"github.com/petr-muller/atlassian-search/internal/search/service"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
	"github.com/petr-muller/atlassian-search/internal/search/ui"
)

// inspection is what the inspect command prints
type inspection struct {
	Input      string       `yaml:"input"`
	Dialect    string       `yaml:"dialect"`
	Structured bool         `yaml:"structured"`
	Valid      bool         `yaml:"valid"`
	Error      string       `yaml:"error,omitempty"`
	Docs       string       `yaml:"docs,omitempty"`
	Elements   *elements    `yaml:"elements,omitempty"`
	Query      string       `yaml:"query,omitempty"`
	Remote     *remoteCheck `yaml:"remote,omitempty"`
	Vocabulary *vocabulary  `yaml:"vocabulary,omitempty"`
}

type elements struct {
	Fields    []string `yaml:"fields"`
	Operators []string `yaml:"operators"`
	Values    []string `yaml:"values"`
}

// remoteCheck is the server's verdict on a query that passed local validation
type remoteCheck struct {
	Valid bool   `yaml:"valid"`
	Error string `yaml:"error,omitempty"`
}

// vocabulary lists the names the classifier treats as query syntax
type vocabulary struct {
	Fields    []string `yaml:"fields"`
	Functions []string `yaml:"functions"`
}

func newInspection(input string, preview *service.Preview) inspection {
	out := inspection{
		Input:      input,
		Dialect:    preview.Dialect.String(),
		Structured: preview.Structured,
		Valid:      preview.Validation.Valid,
		Error:      preview.Validation.Error,
		Query:      preview.Query,
	}
	if !preview.Validation.Valid {
		out.Docs = preview.Dialect.DocsURL()
	}
	if preview.Structured {
		out.Elements = &elements{
			Fields:    preview.Elements.Fields,
			Operators: preview.Elements.Operators,
			Values:    preview.Elements.Values,
		}
	}
	return out
}

func dialectVocabulary(dialect querylang.Dialect) *vocabulary {
	return &vocabulary{Fields: dialect.Fields(), Functions: dialect.Functions()}
}

func renderInspection(out inspection) (string, error) {
	data, err := yaml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal inspection: %w", err)
	}
	return string(data), nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
}

func renderFilters(set *filters.Set) string {
	t := newTable("ID", "Label", "Query", "Operator", "Order by", "Auto")
	for _, filter := range set.List() {
		query := filter.Query
		if filter.Transform != nil {
			query = strings.TrimSpace(query + " (transformed)")
		}
		auto := ""
		if filter.AutoQuery {
			auto = "yes"
		}
		t.Row(filter.ID, filter.Label, query, string(filter.Operator()), filter.OrderBy, auto)
	}
	return t.String()
}

func renderResponse(response *service.Response) string {
	var s strings.Builder
	result := response.Result

	fmt.Fprintf(&s, "%s\n", response.Query)
	if len(result.Query.Results) == 0 {
		s.WriteString("No results\n")
		return s.String()
	}

	page := result.Query.Page
	fmt.Fprintf(&s, "Results %d-%d of %d", page.Start+1, page.Start+len(result.Query.Results), result.Query.Total)
	switch {
	case result.FromCache:
		fmt.Fprintf(&s, " (cached at %s)", result.Query.LastFetched.Format("2006-01-02 15:04"))
	case !response.PreviousFetch.IsZero():
		fmt.Fprintf(&s, " (%d new, %d changed, %d gone since %s)",
			len(result.NewResults), len(result.ChangedResults), len(result.RemovedResults),
			response.PreviousFetch.Format("2006-01-02 15:04"))
	}
	s.WriteString("\n")

	t := newTable("Key", "Type", "Container", "Status", "Owner", "Updated", "Title", "URL")
	for i, row := range ui.Rows(*result) {
		t.Row(append(row, result.Query.Results[i].URL)...)
	}
	s.WriteString(t.String())
	return s.String()
}

func renderCacheItems(items []storage.CachedQueryItem) string {
	t := newTable("Name", "Dialect", "Query", "Results", "Last fetched")
	for _, item := range items {
		t.Row(item.Name, item.Dialect, item.Query, fmt.Sprintf("%d", item.ResultCount), item.LastFetched.Format("2006-01-02 15:04"))
	}
	return t.String()
}
