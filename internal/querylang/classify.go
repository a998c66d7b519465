package querylang

import (
	"strings"
	"unicode/utf8"
)

// minStructuredLength is the shortest trimmed input that can be a structured query
const minStructuredLength = 2

// Classify reports whether text already reads as a structured query in the given dialect
// rather than free text. It is a pure heuristic over the dialect's pattern table: any
// matching pattern makes the text structured.
func Classify(text string, dialect Dialect) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minStructuredLength {
		return false
	}

	for _, pattern := range dialect.config().patterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// hasOrderBy reports whether the query carries an ORDER BY clause with at least one field
func hasOrderBy(query string) bool {
	return orderByField.MatchString(query)
}
