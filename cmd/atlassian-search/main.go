package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petr-muller/atlassian-search/internal/config"
	"github.com/petr-muller/atlassian-search/internal/filters"
	"github.com/petr-muller/atlassian-search/internal/flagutil"
	"github.com/petr-muller/atlassian-search/internal/querylang"
	"github.com/petr-muller/atlassian-search/internal/search/confluence"
	"github.com/petr-muller/atlassian-search/internal/search/jira"
	"github.com/petr-muller/atlassian-search/internal/search/service"
	"github.com/petr-muller/atlassian-search/internal/search/storage"
	"github.com/petr-muller/atlassian-search/internal/search/ui"
)

type options struct {
	jira       flagutil.JiraOptions
	confluence flagutil.ConfluenceOptions

	logLevel     string
	settingsPath string
	filtersPath  string

	dialect  string
	filterID string
	page     int
	refresh  bool

	remote     bool
	vocabulary bool
}

// jqlValidator asks a Jira server whether it accepts a query
type jqlValidator interface {
	ValidateJQL(ctx context.Context, jql string) error
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:   "atlassian-search",
		Short: "Search Jira and Confluence from the terminal",
		Long: `Atlassian Search turns what you type into JQL or CQL queries and runs them.

Free text is searched with the active filter applied. Input that already looks like a
query is validated and used as typed, so you can switch between quick searches and
hand-written queries without changing modes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(o.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	o.jira.AddPFlags(flags)
	o.confluence.AddPFlags(flags)
	flags.StringVar(&o.logLevel, "log-level", "info", "Logging level (trace, debug, info, warn, error)")
	flags.StringVar(&o.settingsPath, "settings", config.SettingsPath(), "Path to the settings file")
	flags.StringVar(&o.filtersPath, "filters", filters.DefaultPath(), "Path to the file with custom filters")
	flags.StringVar(&o.dialect, "dialect", "", "Query language to use: jql or cql (defaults to default_dialect from settings)")

	rootCmd.AddCommand(
		newComposeCmd(o),
		newInspectCmd(o),
		newFiltersCmd(o),
		newSearchCmd(o),
		newPaletteCmd(o),
		newCacheCmd(o),
	)

	return rootCmd
}

func newComposeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose [text...]",
		Short: "Print the query that would be run for the given input",
		Long: `Print the final JQL or CQL query for the given input and filter without running it.
The output can be pasted into the Jira or Confluence search directly.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, o, inputText(args))
		},
	}
	cmd.Flags().StringVarP(&o.filterID, "filter", "f", "", "Filter to apply to free text")
	return cmd
}

func newInspectCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [text...]",
		Short: "Show how the input is classified, validated and composed",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, o, inputText(args))
		},
	}
	cmd.Flags().BoolVar(&o.remote, "remote", false, "Also let the Jira server validate the composed JQL query")
	cmd.Flags().BoolVar(&o.vocabulary, "vocabulary", false, "Also list the field and function names recognized as query syntax")
	return cmd
}

func newFiltersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List available filters",
		Long:  `List the builtin filters together with the custom ones from the filters file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilters(cmd, o)
		},
	}
}

func newSearchCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Run a search and print the results",
		Long: `Run a search and print one page of results.
Results are cached; repeated searches within the cache TTL are served from the cache
unless --refresh is given. Results that appeared since the previous fetch are marked with +,
changed ones with ~.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, o, inputText(args))
		},
	}
	cmd.Flags().StringVarP(&o.filterID, "filter", "f", "", "Filter to apply to free text")
	cmd.Flags().IntVarP(&o.page, "page", "p", 1, "Page of results to show")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "Ignore cached results")
	return cmd
}

func newPaletteCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Search interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.filterID, "filter", "f", "", "Filter to start with (defaults to the first filter that runs without input)")
	return cmd
}

func newCacheCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached search results",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached searches",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := createStore()
				if err != nil {
					return err
				}
				items, err := store.List()
				if err != nil {
					return fmt.Errorf("cannot list cache: %w", err)
				}
				if len(items) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No cached searches found in %s\n", store.GetDataDir())
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cached searches in %s\n", store.GetDataDir())
				fmt.Fprintln(cmd.OutOrStdout(), renderCacheItems(items))
				return nil
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Remove all cached searches",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := createStore()
				if err != nil {
					return err
				}
				removed, err := store.Purge()
				if err != nil {
					return fmt.Errorf("cannot purge cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached searches\n", removed)
				return nil
			},
		},
	)
	return cmd
}

// inputText joins positional arguments so that unquoted multi-word input works
func inputText(args []string) string {
	return strings.Join(args, " ")
}

func (o *options) settings() (*config.Settings, error) {
	settings, err := config.LoadSettings(o.settingsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}
	return settings, nil
}

func (o *options) resolveDialect(settings *config.Settings) (querylang.Dialect, error) {
	if o.dialect == "" {
		return settings.Dialect(), nil
	}
	return querylang.ParseDialect(o.dialect)
}

func (o *options) filterSets() ([]*filters.Set, error) {
	var sets []*filters.Set
	for _, dialect := range []querylang.Dialect{querylang.JQL, querylang.CQL} {
		set, err := filters.Load(o.filtersPath, dialect)
		if err != nil {
			return nil, fmt.Errorf("cannot load filters: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func createStore() (*storage.Store, error) {
	dataDir, err := config.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return storage.NewStore(dataDir), nil
}

// createService builds the search service with the given clients; dialects without one can
// still compose and preview queries
func createService(o *options, settings *config.Settings, searchers map[querylang.Dialect]service.Searcher) (*service.Service, error) {
	sets, err := o.filterSets()
	if err != nil {
		return nil, err
	}
	store, err := createStore()
	if err != nil {
		return nil, err
	}

	return service.NewService(service.Options{
		Settings:  *settings,
		Store:     store,
		Filters:   sets,
		Searchers: searchers,
	}), nil
}

func (o *options) searcher(dialect querylang.Dialect, settings *config.Settings) (service.Searcher, error) {
	switch dialect {
	case querylang.CQL:
		if o.confluence.Endpoint == "" {
			o.confluence.Endpoint = settings.ConfluenceEndpoint
		}
		client, err := confluence.NewClient(o.confluence)
		if err != nil {
			return nil, fmt.Errorf("cannot create Confluence client: %w", err)
		}
		return client, nil
	default:
		if err := o.jira.Validate(); err != nil {
			return nil, fmt.Errorf("invalid JIRA options: %w", err)
		}
		client, err := jira.NewClient(o.jira)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func runCompose(cmd *cobra.Command, o *options, text string) error {
	settings, err := o.settings()
	if err != nil {
		return err
	}
	dialect, err := o.resolveDialect(settings)
	if err != nil {
		return err
	}
	svc, err := createService(o, settings, nil)
	if err != nil {
		return err
	}

	preview, err := svc.Preview(service.Request{Dialect: dialect, Input: text, FilterID: o.filterID})
	if err != nil {
		return err
	}
	if !preview.Validation.Valid {
		return &service.ValidationError{Dialect: dialect, Input: text, Reason: preview.Validation.Error}
	}
	if preview.Query == "" {
		return errors.New("nothing to search: input is empty and the filter does not run on its own")
	}

	fmt.Fprintln(cmd.OutOrStdout(), preview.Query)
	return nil
}

func runInspect(cmd *cobra.Command, o *options, text string) error {
	settings, err := o.settings()
	if err != nil {
		return err
	}
	dialect, err := o.resolveDialect(settings)
	if err != nil {
		return err
	}
	svc, err := createService(o, settings, nil)
	if err != nil {
		return err
	}

	preview, err := svc.Preview(service.Request{Dialect: dialect, Input: text})
	if err != nil {
		return err
	}

	result := newInspection(text, preview)
	if o.vocabulary {
		result.Vocabulary = dialectVocabulary(dialect)
	}
	if o.remote {
		if dialect != querylang.JQL {
			return fmt.Errorf("remote validation is only supported for %s", querylang.JQL)
		}
		if err := o.jira.Validate(); err != nil {
			return fmt.Errorf("invalid JIRA options: %w", err)
		}
		client, err := jira.NewClient(o.jira)
		if err != nil {
			return err
		}
		result.Remote = checkRemote(cmd.Context(), client, preview)
	}

	out, err := renderInspection(result)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// checkRemote validates the composed query on the server. Queries that failed local
// validation or compose to nothing are not sent.
func checkRemote(ctx context.Context, validator jqlValidator, preview *service.Preview) *remoteCheck {
	if !preview.Validation.Valid || preview.Query == "" {
		return nil
	}
	if err := validator.ValidateJQL(ctx, preview.Query); err != nil {
		return &remoteCheck{Error: err.Error()}
	}
	return &remoteCheck{Valid: true}
}

func runFilters(cmd *cobra.Command, o *options) error {
	settings, err := o.settings()
	if err != nil {
		return err
	}
	dialect, err := o.resolveDialect(settings)
	if err != nil {
		return err
	}
	set, err := filters.Load(o.filtersPath, dialect)
	if err != nil {
		return fmt.Errorf("cannot load filters: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderFilters(set))
	return nil
}

func runSearch(cmd *cobra.Command, o *options, text string) error {
	settings, err := o.settings()
	if err != nil {
		return err
	}
	dialect, err := o.resolveDialect(settings)
	if err != nil {
		return err
	}
	searcher, err := o.searcher(dialect, settings)
	if err != nil {
		return err
	}
	svc, err := createService(o, settings, map[querylang.Dialect]service.Searcher{dialect: searcher})
	if err != nil {
		return err
	}

	response, err := svc.Search(cmd.Context(), service.Request{
		Dialect:  dialect,
		Input:    text,
		FilterID: o.filterID,
		Page:     o.page,
		Refresh:  o.refresh,
	})
	if err != nil {
		return err
	}
	if response.Result == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to search")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderResponse(response))
	return nil
}

func runPalette(cmd *cobra.Command, o *options) error {
	settings, err := o.settings()
	if err != nil {
		return err
	}
	dialect, err := o.resolveDialect(settings)
	if err != nil {
		return err
	}

	// The palette can switch dialects, so connect to whatever is configured
	searchers := map[querylang.Dialect]service.Searcher{}
	for _, candidate := range []querylang.Dialect{querylang.JQL, querylang.CQL} {
		searcher, err := o.searcher(candidate, settings)
		if err != nil {
			logrus.WithError(err).WithField("dialect", candidate).Warn("Searching is disabled for dialect")
			continue
		}
		searchers[candidate] = searcher
	}

	svc, err := createService(o, settings, searchers)
	if err != nil {
		return err
	}
	filter, err := paletteFilter(svc.Filters(dialect), o.filterID)
	if err != nil {
		return err
	}

	// The palette owns the terminal from here on
	logrus.SetOutput(io.Discard)

	model := ui.NewModel(cmd.Context(), svc, dialect, filter)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("cannot run TUI: %w", err)
	}

	return nil
}

// paletteFilter returns the filter the palette starts with: the requested one, or the first
// filter that runs without input so that the palette opens with results
func paletteFilter(set *filters.Set, id string) (*querylang.Filter, error) {
	if id == "" {
		return set.AutoQuery(), nil
	}
	return set.Get(id)
}
