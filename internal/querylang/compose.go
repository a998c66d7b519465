package querylang

import (
	"strings"
)

// ClauseSet is the unjoined intermediate form of a composed query
type ClauseSet struct {
	// Clauses may contain empty strings standing for a filter without its own clause;
	// Build drops them before joining
	Clauses       []string
	LogicOperator LogicOperator
	// OrderBy is empty when the caller's default ordering should be used
	OrderBy string

	// Filter and UserInput record where the set came from so that Build can run the
	// filter's transform
	Filter    *Filter
	UserInput string
}

// Composition is the result of Compose. Exactly one of the following holds:
// the composition is empty (nothing to search yet), Query holds a complete query that
// must not be extended, or Clauses holds a set that still needs Build.
type Composition struct {
	Query   string
	Clauses *ClauseSet
}

// IsEmpty reports whether there is no query to run
func (c Composition) IsEmpty() bool {
	return c.Clauses == nil && c.Query == ""
}

// IsComplete reports whether Query is final and must be used verbatim
func (c Composition) IsComplete() bool {
	return c.Clauses == nil && c.Query != ""
}

// Compose decides how user input and the active filter combine into a query.
//
// Structured input always wins over the filter; structured input with its own ORDER BY is
// returned whitespace-normalized as a complete query. Free text is turned into a clause by textClause (the dialect's
// default when nil) and joined with the filter's clause under the filter's operator.
func Compose(input string, filter *Filter, textClause ClauseBuilder, dialect Dialect) Composition {
	trimmed := strings.TrimSpace(input)

	if trimmed == "" {
		if filter == nil || !filter.AutoQuery {
			return Composition{}
		}
		return Composition{Clauses: &ClauseSet{
			Clauses:       []string{filter.Query},
			LogicOperator: filter.Operator(),
			OrderBy:       filter.OrderBy,
			Filter:        filter,
			UserInput:     trimmed,
		}}
	}

	if Classify(trimmed, dialect) {
		// the filter is discarded: structured input is assumed to carry every constraint
		if hasOrderBy(trimmed) {
			return Composition{Query: collapseWhitespace(trimmed)}
		}
		// a bare trailing ORDER BY is dropped so the default ordering applies
		if trimmed = strings.TrimSpace(danglingOrderBy.ReplaceAllString(trimmed, "")); trimmed == "" {
			return Composition{}
		}
		return Composition{Clauses: &ClauseSet{
			Clauses:       []string{trimmed},
			LogicOperator: And,
			UserInput:     trimmed,
		}}
	}

	if textClause == nil {
		textClause = dialect.TextClause
	}

	set := &ClauseSet{
		Clauses:       []string{textClause(trimmed)},
		LogicOperator: And,
		UserInput:     trimmed,
	}
	if filter != nil {
		set.Clauses = append(set.Clauses, filter.Query)
		set.LogicOperator = filter.Operator()
		set.OrderBy = filter.OrderBy
		set.Filter = filter
	}
	return Composition{Clauses: set}
}

// Final composes and builds in one step, returning the query to hand to a search client.
// An empty string means there is nothing to search.
func Final(input string, filter *Filter, textClause ClauseBuilder, dialect Dialect, defaultOrderBy string) string {
	composition := Compose(input, filter, textClause, dialect)
	switch {
	case composition.IsEmpty():
		return ""
	case composition.IsComplete():
		return composition.Query
	default:
		return Build(*composition.Clauses, defaultOrderBy, dialect)
	}
}
