package querylang

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ErrUnmatchedParentheses   = "Unmatched parentheses"
	ErrUnmatchedSingleQuotes  = "Unmatched single quotes"
	ErrUnmatchedDoubleQuotes  = "Unmatched double quotes"
	ErrInvalidLogicalOperator = "Invalid logical operator usage"
)

// ValidationResult is the outcome of a well-formedness check. Error holds a human-readable
// reason when Valid is false.
type ValidationResult struct {
	Valid bool   `json:"valid" yaml:"valid"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Validate checks structured text for gross malformation. Free text is always valid because it
// is wrapped into a clause instead of being sent verbatim. Validate never panics: anything that
// goes wrong inside the checks is reported as a generic syntax error of the dialect.
func Validate(text string, dialect Dialect) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("dialect", dialect).Warnf("recovered from panic while validating query: %v", r)
			result = ValidationResult{Valid: false, Error: syntaxError(dialect)}
		}
	}()

	if !Classify(text, dialect) {
		return ValidationResult{Valid: true}
	}

	trimmed := strings.TrimSpace(text)
	checks := []func(string) string{checkParentheses}
	if dialect.config().checkQuotes {
		checks = append(checks, checkQuotes)
	}
	checks = append(checks, checkLogicalOperators)

	for _, check := range checks {
		if reason := check(trimmed); reason != "" {
			return ValidationResult{Valid: false, Error: reason}
		}
	}
	return ValidationResult{Valid: true}
}

func syntaxError(dialect Dialect) string {
	return fmt.Sprintf("%s syntax error", dialect.config().name())
}

func checkParentheses(text string) string {
	if strings.Count(text, "(") != strings.Count(text, ")") {
		return ErrUnmatchedParentheses
	}
	return ""
}

func checkQuotes(text string) string {
	if strings.Count(text, "'")%2 != 0 {
		return ErrUnmatchedSingleQuotes
	}
	if strings.Count(text, `"`)%2 != 0 {
		return ErrUnmatchedDoubleQuotes
	}
	return ""
}

// checkLogicalOperators requires an operand on both sides of the first logical keyword.
// NOT is unary, so it only needs an operand on its right.
func checkLogicalOperators(text string) string {
	loc := logicalKeyword.FindStringSubmatchIndex(text)
	if loc == nil {
		return ""
	}

	keyword := text[loc[2]:loc[3]]
	left := strings.TrimSpace(strings.TrimRight(text[:loc[0]], "( "))
	right := strings.TrimSpace(strings.TrimLeft(text[loc[1]:], ") "))

	if right == "" {
		return ErrInvalidLogicalOperator
	}
	if left == "" && keyword != "NOT" {
		return ErrInvalidLogicalOperator
	}
	return ""
}
