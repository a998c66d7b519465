package querylang

import (
	"regexp"
	"strings"
)

// Elements holds index-aligned (field, operator, value) triples found in a query, in order
// of appearance
type Elements struct {
	Fields    []string `json:"fields" yaml:"fields"`
	Operators []string `json:"operators" yaml:"operators"`
	Values    []string `json:"values" yaml:"values"`
}

// Len returns the number of extracted triples
func (e Elements) Len() int {
	return len(e.Fields)
}

var elementTriple = regexp.MustCompile(`(?i)^\(*\s*(` + fieldName + `)\s*(not\s+in\b|in\b|is\s+not\b|is\b|was\s+not\s+in\b|was\s+not\b|was\s+in\b|was\b|changed\b|!=|!~|<=|>=|=|~|<|>)\s*(.*?)\s*$`)

// Extract decomposes a structured query into field/operator/value triples. It is a best-effort
// heuristic for introspection only: the query is cut at logical keywords and at ORDER BY, and
// each piece is matched on its own, so keywords inside quoted values or nested expressions are
// not understood.
func Extract(text string) Elements {
	elements := Elements{
		Fields:    []string{},
		Operators: []string{},
		Values:    []string{},
	}

	query := strings.TrimSpace(text)
	if loc := orderByClause.FindStringIndex(query); loc != nil {
		query = query[:loc[0]]
	}

	for _, segment := range logicalKeyword.Split(query, -1) {
		match := elementTriple.FindStringSubmatch(strings.TrimSpace(segment))
		if match == nil {
			continue
		}
		value := trimUnmatchedCloses(strings.TrimSpace(match[3]))
		elements.Fields = append(elements.Fields, unquote(match[1]))
		elements.Operators = append(elements.Operators, strings.Join(strings.Fields(match[2]), " "))
		elements.Values = append(elements.Values, unquote(value))
	}

	return elements
}

// trimUnmatchedCloses drops trailing ')' that close a group opened before the value
func trimUnmatchedCloses(value string) string {
	for strings.HasSuffix(value, ")") && strings.Count(value, ")") > strings.Count(value, "(") {
		value = strings.TrimSpace(strings.TrimSuffix(value, ")"))
	}
	return value
}

// unquote strips one pair of surrounding single or double quotes
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}
