package query

import (
	"errors"
	"sort"
	"strings"
)

// Assignment is a column/value pair for INSERT and UPDATE statements.
type Assignment struct {
	Column string
	Value  any
}

// AssignmentsFromMap orders map entries by column name.
func AssignmentsFromMap(values map[string]any) []Assignment {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	out := make([]Assignment, len(columns))
	for i, column := range columns {
		out[i] = Assignment{Column: column, Value: values[column]}
	}
	return out
}

// Insert renders an INSERT. When returning is non-empty and the dialect
// supports it, a RETURNING clause is appended.
func Insert(d Dialect, table string, values []Assignment, returning string) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	args := NewArgs(d)
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.Quote(table))
	if len(values) == 0 {
		sb.WriteString(" DEFAULT VALUES")
	} else {
		columns := make([]string, len(values))
		marks := make([]string, len(values))
		for i, a := range values {
			if err := checkIdent(a.Column); err != nil {
				return "", nil, err
			}
			columns[i] = d.Quote(a.Column)
			marks[i] = args.Add(a.Value)
		}
		sb.WriteString(" (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")")
	}
	if returning != "" && d.SupportsReturning() {
		if err := checkIdent(returning); err != nil {
			return "", nil, err
		}
		sb.WriteString(" RETURNING " + d.Quote(returning))
	}
	return sb.String(), args.Values(), nil
}

// Update renders an UPDATE of the builder's table restricted by its
// conditions. An unconditioned update is refused.
func Update(b *Builder, values []Assignment) (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, errors.New("query: update without assignments")
	}
	args := NewArgs(b.dialect)
	sets := make([]string, len(values))
	for i, a := range values {
		if err := checkIdent(a.Column); err != nil {
			return "", nil, err
		}
		sets[i] = b.dialect.Quote(a.Column) + " = " + args.Add(a.Value)
	}
	where := b.whereSQL(args)
	if where == "" {
		return "", nil, errors.New("query: update without conditions")
	}
	return "UPDATE " + b.dialect.Quote(b.table) + " SET " + strings.Join(sets, ", ") + " WHERE " + where, args.Values(), nil
}
