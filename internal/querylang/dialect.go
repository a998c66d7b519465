package querylang

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Dialect is the query language a composition targets
type Dialect string

const (
	JQL Dialect = "JQL"
	CQL Dialect = "CQL"
)

// ErrUnknownDialect is returned by ParseDialect for anything other than jql or cql
var ErrUnknownDialect = errors.New("unknown query dialect")

// ParseDialect converts a user-supplied dialect name (case-insensitive) into a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case string(JQL):
		return JQL, nil
	case string(CQL):
		return CQL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

func (d Dialect) String() string {
	return string(d)
}

// DocsURL returns the public reference for the dialect, shown next to validation errors
func (d Dialect) DocsURL() string {
	return d.config().docsURL
}

// TextClause translates free text into a clause of the dialect
func (d Dialect) TextClause(text string) string {
	return d.config().textClause(text)
}

// Fields returns the allow-listed field names recognized by the classifier, sorted
func (d Dialect) Fields() []string {
	return sets.List(d.config().fields)
}

// Functions returns the built-in function names recognized by the classifier, sorted
func (d Dialect) Functions() []string {
	return sets.List(d.config().functions)
}

// dialectConfig is the per-dialect strategy table used by every part of the engine
type dialectConfig struct {
	dialect Dialect

	// patterns are evaluated as a disjunction by Classify
	patterns []*regexp.Regexp

	fields    sets.Set[string]
	functions sets.Set[string]

	// checkQuotes enables the quote balance check of Validate
	checkQuotes bool

	docsURL    string
	textClause ClauseBuilder
}

const (
	// basicOperator matches = != ~ !~ < > <= >=
	basicOperator = `(?:!=|!~|<=|>=|=|~|<|>)`
	// fieldName matches plain, dotted, bracketed (cf[10010]) and quoted field names
	fieldName = `(?:[\w.\[\]-]+|"[^"]+")`
)

var (
	logicalKeyword  = regexp.MustCompile(`\b(AND|OR|NOT)\b`)
	orderByClause   = regexp.MustCompile(`(?i)\border\s+by\b`)
	orderByField    = regexp.MustCompile(`(?i)\border\s+by\s+[\w."]+`)
	danglingOrderBy = regexp.MustCompile(`(?i)\s*\border\s+by\s*$`)
	issueKey        = regexp.MustCompile(`^[A-Z][A-Z0-9_]+-\d+$`)
)

var jqlFields = sets.New(
	"affectedVersion", "approvals", "assignee", "attachments", "category", "comment",
	"component", "created", "createdDate", "creator", "description", "due", "duedate",
	"environment", "epic", "filter", "fixVersion", "issue", "issuekey", "issuetype",
	"key", "labels", "lastViewed", "level", "parent", "priority", "project", "reporter",
	"resolution", "resolutiondate", "resolved", "sprint", "status", "statusCategory",
	"summary", "text", "type", "updated", "updatedDate", "voter", "votes", "watcher",
	"watchers", "worklogAuthor", "worklogComment", "worklogDate",
)

var jqlFunctions = sets.New(
	"approved", "approver", "cascadeOption", "closedSprints", "componentsLeadByUser",
	"currentLogin", "currentUser", "earliestUnreleasedVersion", "endOfDay", "endOfMonth",
	"endOfWeek", "endOfYear", "futureSprints", "issueHistory", "issuesWithRemoteLinksByGlobalId",
	"lastLogin", "latestReleasedVersion", "linkedIssues", "membersOf", "myApproval",
	"myPending", "now", "openSprints", "pending", "pendingBy", "projectsLeadByUser",
	"projectsWhereUserHasPermission", "projectsWhereUserHasRole", "releasedVersions",
	"standardIssueTypes", "startOfDay", "startOfMonth", "startOfWeek", "startOfYear",
	"subtaskIssueTypes", "unreleasedVersions", "updatedBy", "votedIssues", "watchedIssues",
)

var cqlFields = sets.New(
	"ancestor", "container", "content", "created", "creator", "contributor", "favourite",
	"favorite", "id", "label", "lastmodified", "macro", "mention", "parent", "space",
	"space.category", "space.desc", "space.key", "space.title", "space.type", "text",
	"title", "type", "user", "user.accountid", "user.fullname", "watcher",
)

var cqlFunctions = sets.New(
	"currentUser", "endOfDay", "endOfMonth", "endOfWeek", "endOfYear", "favouriteSpaces",
	"favoriteSpaces", "now", "recentlyViewedContent", "recentlyViewedSpaces",
	"startOfDay", "startOfMonth", "startOfWeek", "startOfYear",
)

// alternation builds a regexp alternation of the given words in reverse lexical order, which
// puts every name before its own prefixes (startOfDay before start)
func alternation(words sets.Set[string]) string {
	list := sets.List(words)
	quoted := make([]string, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		quoted = append(quoted, regexp.QuoteMeta(list[i]))
	}
	return strings.Join(quoted, "|")
}

func newJQLConfig() dialectConfig {
	fields := alternation(jqlFields)
	return dialectConfig{
		dialect: JQL,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^` + fieldName + `\s*` + basicOperator + `\s*`),
			regexp.MustCompile(`(?i)^` + fieldName + `\s+(?:not\s+in|in)\s*\(`),
			regexp.MustCompile(`(?i)^` + fieldName + `\s+is(?:\s+not)?\s+(?:empty|null)\b`),
			regexp.MustCompile(`(?i)\b(?:` + fields + `)\s+(?:was(?:\s+not)?(?:\s+in)?|changed)\b`),
			logicalKeyword,
			regexp.MustCompile(`(?i)\b(?:` + alternation(jqlFunctions) + `)\s*\(`),
			regexp.MustCompile(`(?i)\b(?:` + fields + `)\s*(?:` + basicOperator + `|\s+(?:not\s+)?in\s*\()`),
			orderByField,
		},
		fields:      jqlFields,
		functions:   jqlFunctions,
		checkQuotes: true,
		docsURL:     "https://support.atlassian.com/jira-service-management-cloud/docs/use-advanced-search-with-jira-query-language-jql/",
		textClause:  jqlTextClause,
	}
}

func newCQLConfig() dialectConfig {
	fields := alternation(cqlFields)
	return dialectConfig{
		dialect: CQL,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^` + fieldName + `\s*` + basicOperator + `\s*`),
			logicalKeyword,
			regexp.MustCompile(`(?i)\b(?:` + alternation(cqlFunctions) + `)\s*\(`),
			regexp.MustCompile(`(?i)\b(?:` + fields + `)\s*(?:` + basicOperator + `|\s+(?:not\s+)?in\s*\()`),
			orderByField,
		},
		fields:      cqlFields,
		functions:   cqlFunctions,
		checkQuotes: false,
		docsURL:     "https://developer.atlassian.com/cloud/confluence/advanced-searching-using-cql/",
		textClause:  cqlTextClause,
	}
}

var dialects = map[Dialect]dialectConfig{
	JQL: newJQLConfig(),
	CQL: newCQLConfig(),
}

// config returns the strategy table of the dialect; unknown dialects fall back to JQL
func (d Dialect) config() dialectConfig {
	if c, ok := dialects[d]; ok {
		return c
	}
	return dialects[JQL]
}

func (c dialectConfig) name() string {
	return string(c.dialect)
}

// quote renders text as a double-quoted query literal
func quote(text string) string {
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

func jqlTextClause(text string) string {
	text = strings.TrimSpace(text)
	if issueKey.MatchString(text) {
		return "key = " + quote(text)
	}
	return "summary ~ " + quote(text)
}

func cqlTextClause(text string) string {
	return "text ~ " + quote(strings.TrimSpace(text))
}
