package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petr-muller/atlassian-search/internal/filters"
	"github.com/petr-muller/atlassian-search/internal/querylang"
	"github.com/petr-muller/atlassian-search/internal/search/compare"
	"github.com/petr-muller/atlassian-search/internal/search/service"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
)

const maxTableRows = 15

// Backend is the part of the search service the palette needs
type Backend interface {
	Preview(service.Request) (*service.Preview, error)
	Search(context.Context, service.Request) (*service.Response, error)
	Filters(querylang.Dialect) *filters.Set
}

type searchDoneMsg struct {
	request  service.Request
	response *service.Response
	err      error
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	filterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	queryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	newStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	changedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("240")).Bold(true)
)

// Model is the interactive search palette
type Model struct {
	backend Backend
	ctx     context.Context

	dialect querylang.Dialect
	filter  *querylang.Filter
	page    int

	input   textinput.Model
	spinner spinner.Model
	table   table.Model

	preview  *service.Preview
	response *service.Response
	err      error
	loading  bool

	width  int
	height int
}

// NewModel creates the palette for the given dialect with an optional preselected filter.
// A preselected auto-query filter searches right away.
func NewModel(ctx context.Context, backend Backend, dialect querylang.Dialect, filter *querylang.Filter) Model {
	input := textinput.New()
	input.Placeholder = "Search or type a query"
	input.Prompt = "> "
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Points

	t := table.New(
		table.WithColumns(columns(0)),
		table.WithHeight(2),
	)
	styles := table.DefaultStyles()
	styles.Selected = selectedStyle
	t.SetStyles(styles)

	m := Model{
		backend: backend,
		ctx:     ctx,
		dialect: dialect,
		filter:  filter,
		page:    1,
		input:   input,
		spinner: s,
		table:   t,
	}
	m.updatePreview()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.preview != nil && m.preview.Query != "" {
		return m.startSearch(false)
	}
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		return m, nil
	case searchDoneMsg:
		if !m.matches(msg.request) {
			// the user moved to another dialect, filter or page meanwhile
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.response = msg.response
			m.updateTable()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.page = 1
			cmd = m.startSearch(false)
			return m, cmd
		case "ctrl+r":
			cmd = m.startSearch(true)
			return m, cmd
		case "tab":
			m.filter = m.backend.Filters(m.dialect).Next(m.filter)
			m.loading = false
			m.updatePreview()
			return m, nil
		case "ctrl+t":
			m.toggleDialect()
			return m, nil
		case "ctrl+n":
			if m.hasNextPage() {
				m.page++
				cmd = m.startSearch(false)
			}
			return m, cmd
		case "ctrl+p":
			if m.page > 1 {
				m.page--
				cmd = m.startSearch(false)
			}
			return m, cmd
		case "up", "down", "pgup", "pgdown":
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.updatePreview()
	}
	return m, cmd
}

func (m *Model) toggleDialect() {
	if m.dialect == querylang.JQL {
		m.dialect = querylang.CQL
	} else {
		m.dialect = querylang.JQL
	}
	m.filter = nil
	m.response = nil
	m.err = nil
	m.loading = false
	m.page = 1
	m.updateTable()
	m.updatePreview()
}

func (m *Model) updatePreview() {
	filterID := ""
	if m.filter != nil {
		filterID = m.filter.ID
	}
	preview, err := m.backend.Preview(m.request(false))
	if err != nil {
		m.preview = nil
		m.err = fmt.Errorf("filter %s: %w", filterID, err)
		return
	}
	m.preview = preview
	m.err = nil
}

func (m Model) request(refresh bool) service.Request {
	req := service.Request{
		Dialect: m.dialect,
		Input:   m.input.Value(),
		Page:    m.page,
		Refresh: refresh,
	}
	if m.filter != nil {
		req.FilterID = m.filter.ID
	}
	return req
}

func (m *Model) startSearch(refresh bool) tea.Cmd {
	if m.preview == nil || !m.preview.Validation.Valid || m.preview.Query == "" {
		return nil
	}
	m.loading = true
	m.err = nil

	backend, ctx, req := m.backend, m.ctx, m.request(refresh)
	search := func() tea.Msg {
		response, err := backend.Search(ctx, req)
		return searchDoneMsg{request: req, response: response, err: err}
	}
	return tea.Batch(m.spinner.Tick, search)
}

// matches reports whether a search for req still belongs to what the palette shows
func (m Model) matches(req service.Request) bool {
	current := m.request(false)
	return req.Dialect == current.Dialect && req.FilterID == current.FilterID && req.Page == current.Page
}

func (m Model) hasNextPage() bool {
	if m.response == nil || m.response.Result == nil {
		return false
	}
	page := m.response.Result.Query.Page
	return page.Start+page.Limit < m.response.Result.Query.Total
}

// View renders the model
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(fmt.Sprintf("%s search", m.dialect)))
	if m.filter != nil {
		s.WriteString("  ")
		s.WriteString(filterStyle.Render(m.filter.String()))
	}
	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")

	if m.preview != nil {
		switch {
		case !m.preview.Validation.Valid:
			s.WriteString(errorStyle.Render(m.preview.Validation.Error))
			s.WriteString("\n")
			s.WriteString(infoStyle.Render(fmt.Sprintf("%s syntax reference: %s", m.dialect, m.dialect.DocsURL())))
			s.WriteString("\n")
		case m.preview.Query != "":
			s.WriteString(queryStyle.Render(m.preview.Query))
			s.WriteString("\n")
		}
	}

	if m.err != nil {
		var validationErr *service.ValidationError
		if errors.As(m.err, &validationErr) {
			s.WriteString(errorStyle.Render(validationErr.Reason))
		} else {
			s.WriteString(errorStyle.Render(m.err.Error()))
		}
		s.WriteString("\n")
	}

	if m.loading {
		s.WriteString(fmt.Sprintf("%s Searching...\n", m.spinner.View()))
	} else if m.response != nil && m.response.Result != nil {
		s.WriteString(m.resultsView())
	}

	s.WriteString(helpStyle.Render("enter: search • tab: next filter • ctrl+t: switch JQL/CQL • ctrl+n/ctrl+p: page • ctrl+r: refresh • esc: quit"))
	return s.String()
}

func (m Model) resultsView() string {
	var s strings.Builder
	result := m.response.Result

	if len(result.Query.Results) == 0 {
		s.WriteString(infoStyle.Render("No results"))
		s.WriteString("\n")
		return s.String()
	}

	page := result.Query.Page
	summary := fmt.Sprintf("Results %d-%d of %d", page.Start+1, page.Start+len(result.Query.Results), result.Query.Total)
	if result.FromCache {
		summary += fmt.Sprintf(" (cached %s ago)", formatDuration(time.Since(result.Query.LastFetched)))
	} else if !m.response.PreviousFetch.IsZero() {
		summary += fmt.Sprintf(" (%d new since %s)", len(result.NewResults), m.response.PreviousFetch.Format("2006-01-02 15:04"))
	}
	s.WriteString(infoStyle.Render(summary))
	s.WriteString("\n")
	s.WriteString(m.table.View())
	s.WriteString("\n")

	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(result.Query.Results) {
		selected := result.Query.Results[cursor]
		switch {
		case compare.IsNew(*result, selected.Key):
			s.WriteString(newStyle.Render("NEW"))
			s.WriteString(" ")
		case len(result.ChangedResults[selected.Key]) > 0:
			s.WriteString(changedStyle.Render("CHANGED"))
			s.WriteString(" ")
		}
		s.WriteString(queryStyle.Render(selected.Title))
		s.WriteString("\n")
		if selected.URL != "" {
			s.WriteString(infoStyle.Render(selected.URL))
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m *Model) updateTable() {
	var results []storage.Result
	var result storage.SearchResult
	if m.response != nil && m.response.Result != nil {
		result = *m.response.Result
		results = result.Query.Results
	}

	m.table.SetRows(Rows(result))
	m.table.SetHeight(min(len(results), maxTableRows) + 1)
	m.table.SetCursor(0)
	if len(results) > 0 {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

// Rows converts a page of results into table rows, marking results new since the previous fetch
func Rows(result storage.SearchResult) []table.Row {
	rows := make([]table.Row, 0, len(result.Query.Results))
	for _, r := range result.Query.Results {
		key := r.Key
		if compare.IsNew(result, r.Key) {
			key = "+" + key
		} else if len(result.ChangedResults[r.Key]) > 0 {
			key = "~" + key
		}
		updated := ""
		if !r.LastUpdated.IsZero() {
			updated = r.LastUpdated.Format("2006-01-02")
		}
		rows = append(rows, table.Row{key, r.Kind, r.Container, r.Status, r.Owner, updated, r.Title})
	}
	return rows
}

func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Key", Width: 14},
		{Title: "Type", Width: 10},
		{Title: "Container", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Owner", Width: 16},
		{Title: "Updated", Width: 10},
		{Title: "Title", Width: 40},
	}
	if width <= 0 {
		return cols
	}

	// Title takes whatever the fixed columns leave
	used := 0
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 2
	}
	if remaining := width - used - 2; remaining > 20 {
		cols[len(cols)-1].Width = remaining
	}
	return cols
}

// formatDuration formats a duration into a human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	} else {
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd", days)
	}
}
