package filters

import (
	"regexp"
	"strings"

	"github.com/petr-muller/atlassian-search/internal/querylang"
)

// freeTextClause matches the clause produced by the default CQL free-text builder
var freeTextClause = regexp.MustCompile(`\btext ~ "`)

var orderBy = regexp.MustCompile(`(?i)\border\s+by\b`)

// titleOnly restricts the free-text clause to page titles
func titleOnly(composed string, _ querylang.TransformContext) string {
	return freeTextClause.ReplaceAllString(composed, `title ~ "`)
}

const globalSpacesClause = "space.type = global"

// globalSpacesOnly excludes personal spaces by appending a space type clause, once. The clause
// goes before any ORDER BY.
func globalSpacesOnly(composed string, _ querylang.TransformContext) string {
	if composed == "" || strings.Contains(composed, globalSpacesClause) {
		return composed
	}
	if loc := orderBy.FindStringIndex(composed); loc != nil {
		if head := strings.TrimSpace(composed[:loc[0]]); head != "" {
			return head + " AND " + globalSpacesClause + " " + composed[loc[0]:]
		}
		return globalSpacesClause + " " + composed[loc[0]:]
	}
	return composed + " AND " + globalSpacesClause
}

// transforms are the named transforms that filter configuration files may reference
var transforms = map[string]querylang.TransformFunc{
	"title-only":         titleOnly,
	"global-spaces-only": globalSpacesOnly,
}

// Transform returns the named transform
func Transform(name string) (querylang.TransformFunc, bool) {
	transform, ok := transforms[name]
	return transform, ok
}
