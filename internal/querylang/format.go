package querylang

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var whitespace = regexp.MustCompile(`\s+`)

// Build joins a clause set into the final query string: empty clauses are dropped, the rest
// are joined with the set's operator, the set's (or the default) ORDER BY is appended once,
// the originating filter's transform runs and the result is normalized.
func Build(set ClauseSet, defaultOrderBy string, dialect Dialect) string {
	var clauses []string
	for _, clause := range set.Clauses {
		if clause = strings.TrimSpace(clause); clause != "" {
			clauses = append(clauses, clause)
		}
	}

	operator := set.LogicOperator
	if operator == "" {
		operator = And
	}
	query := strings.Join(clauses, " "+string(operator)+" ")

	orderBy := set.OrderBy
	if strings.TrimSpace(orderBy) == "" {
		orderBy = defaultOrderBy
	}
	query = appendOrderBy(query, orderBy)

	if set.Filter != nil && set.Filter.Transform != nil {
		query = set.Filter.Transform(query, TransformContext{UserInput: set.UserInput, Filter: set.Filter})
	}

	return normalize(query, dialect)
}

// appendOrderBy adds the ORDER BY clause unless the query already has one. The ORDER BY
// keyword is added when orderBy is only a field list.
func appendOrderBy(query, orderBy string) string {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" || hasOrderBy(query) {
		return query
	}
	if !strings.HasPrefix(strings.ToUpper(orderBy), "ORDER BY") && !hasOrderBy(orderBy) {
		orderBy = "ORDER BY " + orderBy
	}
	return strings.TrimSpace(query + " " + orderBy)
}

// Normalize applies the string-level cleanup of Build to an already composed query
func Normalize(query string) string {
	return normalize(query, "")
}

// normalize collapses whitespace and doubled parentheses, pads logical keywords and, when
// there are more '(' than ')', appends the missing ')'. The parenthesis handling is textual:
// it does not look at nesting or quoting, and surplus ')' are left untouched.
func normalize(query string, dialect Dialect) string {
	query = collapseWhitespace(query)

	for strings.Contains(query, "((") || strings.Contains(query, "))") {
		query = strings.ReplaceAll(query, "((", "(")
		query = strings.ReplaceAll(query, "))", ")")
	}

	query = collapseWhitespace(logicalKeyword.ReplaceAllString(query, " $1 "))

	opens, closes := strings.Count(query, "("), strings.Count(query, ")")
	if missing := opens - closes; missing > 0 {
		logrus.WithFields(logrus.Fields{
			"dialect": dialect,
			"query":   query,
			"missing": missing,
		}).Warn("Query has unbalanced parentheses, appending missing closing parentheses")
		query += strings.Repeat(")", missing)
	}

	return query
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
