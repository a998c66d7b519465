package querylang

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Elements
	}{
		{
			name: "two clauses with ordering",
			text: "project = 'TEST' AND status in (Open, Closed) ORDER BY created DESC",
			expected: Elements{
				Fields:    []string{"project", "status"},
				Operators: []string{"=", "in"},
				Values:    []string{"TEST", "(Open, Closed)"},
			},
		},
		{
			name: "grouped function calls",
			text: "(assignee = currentUser() OR reporter = currentUser())",
			expected: Elements{
				Fields:    []string{"assignee", "reporter"},
				Operators: []string{"=", "="},
				Values:    []string{"currentUser()", "currentUser()"},
			},
		},
		{
			name: "double quoted value",
			text: `text ~ "release notes"`,
			expected: Elements{
				Fields:    []string{"text"},
				Operators: []string{"~"},
				Values:    []string{"release notes"},
			},
		},
		{
			name: "multi word operator",
			text: "status was not in (Open)",
			expected: Elements{
				Fields:    []string{"status"},
				Operators: []string{"was not in"},
				Values:    []string{"(Open)"},
			},
		},
		{
			name: "quoted field name",
			text: `"Epic Link" = ABC-1`,
			expected: Elements{
				Fields:    []string{"Epic Link"},
				Operators: []string{"="},
				Values:    []string{"ABC-1"},
			},
		},
		{
			name: "comparison operators",
			text: "created >= -7d AND updated < startOfDay()",
			expected: Elements{
				Fields:    []string{"created", "updated"},
				Operators: []string{">=", "<"},
				Values:    []string{"-7d", "startOfDay()"},
			},
		},
		{
			name: "free text yields nothing",
			text: "just some prose",
			expected: Elements{
				Fields:    []string{},
				Operators: []string{},
				Values:    []string{},
			},
		},
		{
			// upper case NOT IN is cut at the NOT keyword, so the clause is lost
			name: "upper case not in is a known limitation",
			text: "status NOT IN (Done)",
			expected: Elements{
				Fields:    []string{},
				Operators: []string{},
				Values:    []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.text)
			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("unexpected elements (-want +got):\n%s", diff)
			}
			if result.Len() != len(result.Operators) || result.Len() != len(result.Values) {
				t.Errorf("expected aligned slices, got %d fields, %d operators, %d values",
					len(result.Fields), len(result.Operators), len(result.Values))
			}
		})
	}
}
