package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/lead-engine/internal/engine"
)

// buildPredicateSQL renders an engine predicate as a WHERE fragment. Every
// clause becomes a server-side equality or containment condition; nothing
// is ever filtered client-side after the query returns.
//
// columns maps engine field names onto the collection's columns; a clause
// over an unmapped field renders FALSE so a malformed predicate can never
// widen visibility.
func buildPredicateSQL(pred engine.Predicate, columns map[string]string, args *[]any) string {
	if pred.MatchAll {
		return "TRUE"
	}
	if len(pred.AnyOf) == 0 {
		return "FALSE"
	}

	groups := make([]string, 0, len(pred.AnyOf))
	for _, group := range pred.AnyOf {
		clauses := make([]string, 0, len(group))
		for _, clause := range group {
			clauses = append(clauses, buildClauseSQL(clause, columns, args))
		}
		groups = append(groups, "("+strings.Join(clauses, " AND ")+")")
	}
	return "(" + strings.Join(groups, " OR ") + ")"
}

func buildClauseSQL(clause engine.Clause, columns map[string]string, args *[]any) string {
	column, ok := columns[clause.Field]
	if !ok {
		return "FALSE"
	}
	switch clause.Op {
	case engine.OpEqual:
		if len(clause.Values) != 1 {
			return "FALSE"
		}
		*args = append(*args, clause.Values[0])
		return fmt.Sprintf("%s = $%d", column, len(*args))
	case engine.OpIn:
		if len(clause.Values) == 0 {
			return "FALSE"
		}
		*args = append(*args, clause.Values)
		return fmt.Sprintf("%s = ANY($%d)", column, len(*args))
	case engine.OpIsSet:
		return fmt.Sprintf("%s IS NOT NULL", column)
	case engine.OpOverlaps:
		if len(clause.Values) == 0 {
			return "FALSE"
		}
		*args = append(*args, clause.Values)
		return fmt.Sprintf("%s && $%d", column, len(*args))
	default:
		return "FALSE"
	}
}
