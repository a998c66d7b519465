package querylang

import (
	"fmt"
	"strings"
)

// LogicOperator joins the clauses of a composed query
type LogicOperator string

const (
	And LogicOperator = "AND"
	Or  LogicOperator = "OR"
	Not LogicOperator = "NOT"
)

// ParseLogicOperator accepts and/or/not in any case; an empty string means AND
func ParseLogicOperator(op string) (LogicOperator, error) {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "", string(And):
		return And, nil
	case string(Or):
		return Or, nil
	case string(Not):
		return Not, nil
	}
	return "", fmt.Errorf("unknown logic operator %q", op)
}

// TransformContext is passed to a filter transform together with the composed query
type TransformContext struct {
	UserInput string
	Filter    *Filter
}

// TransformFunc rewrites a composed query. Transforms must be pure and idempotent because the
// same query may be transformed more than once.
type TransformFunc func(composed string, ctx TransformContext) string

// ClauseBuilder turns free text into a clause of the target dialect
type ClauseBuilder func(text string) string

// Filter is a named, reusable query fragment offered as a quick-select option
type Filter struct {
	ID    string
	Label string
	Icon  string

	// Query is the filter's own clause and may be empty, in which case the filter only
	// contributes its operator, ordering and transform
	Query         string
	LogicOperator LogicOperator
	// OrderBy is an ORDER BY clause; the keyword itself is optional
	OrderBy string
	// AutoQuery filters produce a query even when the user has not typed anything
	AutoQuery bool
	Transform TransformFunc
}

// Operator returns the logic operator of the filter, defaulting to AND
func (f *Filter) Operator() LogicOperator {
	if f == nil || f.LogicOperator == "" {
		return And
	}
	return f.LogicOperator
}

func (f *Filter) String() string {
	if f == nil {
		return "<no filter>"
	}
	return f.ID
}
