package alumni

import (
	"strconv"
	"strings"
)

// Column is a searchable column of the alumni table. Only the constants below
// can appear in generated SQL.
type Column string

const (
	ColFullName    Column = "full_name"
	ColRollNo      Column = "roll_no"
	ColPassingYear Column = "passing_year"
	ColBranch      Column = "branch"
)

type Operator int

const (
	OpEqual Operator = iota
	OpContains
)

type Predicate struct {
	Column   Column
	Operator Operator
	Value    string
}

// Filter is a conjunction of predicates.
type Filter []Predicate

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Add appends a predicate when value is non-blank after trimming.
func (f Filter) Add(column Column, op Operator, value string) Filter {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}
	return append(f, Predicate{Column: column, Operator: op, Value: value})
}

// Where renders the filter as a WHERE clause with $n placeholders starting at
// $1. It returns an empty clause for an empty filter.
func (f Filter) Where() (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for i, p := range f {
		placeholder := "$" + strconv.Itoa(i+1)
		switch p.Operator {
		case OpContains:
			conds = append(conds, string(p.Column)+" ILIKE "+placeholder)
			args = append(args, "%"+likeEscaper.Replace(p.Value)+"%")
		default:
			conds = append(conds, string(p.Column)+" = "+placeholder)
			args = append(args, p.Value)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
