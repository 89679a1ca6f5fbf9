// Package sqlxrepos provides the Postgres repositories, built on sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/romangrishanov/ditado/core"
)

// orderBy renders an ORDER BY clause from the requested orderings,
// falling back to a default clause. Field names are sanitized since they
// come from query params.
func orderBy(orderings []core.DBOrdering, def string) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if !isSafeIdent(ord.Field) {
			continue
		}
		clauses = append(clauses, ord.String())
	}
	if len(clauses) == 0 {
		if def == "" {
			return ""
		}
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
