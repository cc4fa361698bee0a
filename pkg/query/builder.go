package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?([A-Za-z_][A-Za-z0-9_]*|\*)$`)

// ValidIdent reports whether s is a plain or table-qualified identifier.
func ValidIdent(s string) bool {
	return s == "*" || identPattern.MatchString(s)
}

func checkIdent(s string) error {
	if !ValidIdent(s) {
		return fmt.Errorf("query: invalid identifier %q", s)
	}
	return nil
}

var operators = map[string]string{
	"=": "=", "!=": "<>", "<>": "<>", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"like": "LIKE", "ilike": "ILIKE", "not like": "NOT LIKE",
}

func normalizeOperator(op string) (string, error) {
	if normalized, ok := operators[strings.ToLower(strings.TrimSpace(op))]; ok {
		return normalized, nil
	}
	return "", fmt.Errorf("query: unsupported operator %q", op)
}

const (
	boolAnd = "AND"
	boolOr  = "OR"
)

type condition struct {
	boolean string
	column  string
	op      string
	value   any
	values  []any
	kind    conditionKind
	group   []condition
}

type conditionKind int

const (
	condCompare conditionKind = iota
	condIn
	condNotNull
	condGroup
)

// Group collects conditions rendered inside parentheses.
type Group struct {
	conds []condition
	err   error
}

func (g *Group) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *Group) add(c condition) {
	if c.kind != condGroup {
		if err := checkIdent(c.column); err != nil {
			g.fail(err)
			return
		}
	}
	if c.kind == condCompare {
		op, err := normalizeOperator(c.op)
		if err != nil {
			g.fail(err)
			return
		}
		c.op = op
	}
	g.conds = append(g.conds, c)
}

// Where adds an AND comparison.
func (g *Group) Where(column, op string, value any) *Group {
	g.add(condition{boolean: boolAnd, column: column, op: op, value: value})
	return g
}

// OrWhere adds an OR comparison.
func (g *Group) OrWhere(column, op string, value any) *Group {
	g.add(condition{boolean: boolOr, column: column, op: op, value: value})
	return g
}

// WhereIn adds an AND membership test. An empty list matches nothing.
func (g *Group) WhereIn(column string, values []any) *Group {
	g.add(condition{boolean: boolAnd, column: column, values: append([]any(nil), values...), kind: condIn})
	return g
}

// Len returns the number of conditions in the group.
func (g *Group) Len() int { return len(g.conds) }

// Builder is a SELECT/DELETE builder over one table.
type Builder struct {
	dialect Dialect
	table   string
	columns []string
	joins   []join
	where   Group
	orders  []order
	limit   int
	limited bool
	err     error
}

type join struct {
	table string
	left  string
	op    string
	right string
}

type order struct {
	column string
	desc   bool
}

// New starts a builder selecting from table.
func New(d Dialect, table string) *Builder {
	b := &Builder{dialect: d, table: table}
	if err := checkIdent(table); err != nil {
		b.err = err
	}
	return b
}

// Dialect returns the builder dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// Table returns the base table.
func (b *Builder) Table() string { return b.table }

// Select replaces the selected columns.
func (b *Builder) Select(columns ...string) *Builder {
	for _, c := range columns {
		if err := checkIdent(c); err != nil {
			b.fail(err)
			return b
		}
	}
	b.columns = append([]string(nil), columns...)
	return b
}

// Where adds an AND comparison.
func (b *Builder) Where(column, op string, value any) *Builder {
	b.where.Where(column, op, value)
	return b
}

// OrWhere adds an OR comparison.
func (b *Builder) OrWhere(column, op string, value any) *Builder {
	b.where.OrWhere(column, op, value)
	return b
}

// WhereIn adds an AND membership test.
func (b *Builder) WhereIn(column string, values []any) *Builder {
	b.where.WhereIn(column, values)
	return b
}

// WhereNotNull adds an AND IS NOT NULL test.
func (b *Builder) WhereNotNull(column string) *Builder {
	b.where.add(condition{boolean: boolAnd, column: column, kind: condNotNull})
	return b
}

// WhereGroup adds a parenthesised AND group built by fn.
func (b *Builder) WhereGroup(fn func(g *Group)) *Builder {
	return b.group(boolAnd, fn)
}

func (b *Builder) group(boolean string, fn func(g *Group)) *Builder {
	var g Group
	if fn != nil {
		fn(&g)
	}
	if g.err != nil {
		b.fail(g.err)
		return b
	}
	b.where.conds = append(b.where.conds, condition{boolean: boolean, kind: condGroup, group: g.conds})
	return b
}

// Join adds an INNER JOIN.
func (b *Builder) Join(table, left, op, right string) *Builder {
	for _, ident := range []string{table, left, right} {
		if err := checkIdent(ident); err != nil {
			b.fail(err)
			return b
		}
	}
	normalized, err := normalizeOperator(op)
	if err != nil {
		b.fail(err)
		return b
	}
	b.joins = append(b.joins, join{table: table, left: left, op: normalized, right: right})
	return b
}

// OrderBy appends an ordering; direction is "asc" or "desc".
func (b *Builder) OrderBy(column, direction string) *Builder {
	if err := checkIdent(column); err != nil {
		b.fail(err)
		return b
	}
	var desc bool
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		b.fail(fmt.Errorf("query: invalid order direction %q", direction))
		return b
	}
	b.orders = append(b.orders, order{column: column, desc: desc})
	return b
}

// HasOrders reports whether any ordering was applied.
func (b *Builder) HasOrders() bool { return len(b.orders) > 0 }

// Limit caps the row count.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		b.fail(errors.New("query: negative limit"))
		return b
	}
	b.limit = n
	b.limited = true
	return b
}

// LimitValue returns the explicit limit, if any.
func (b *Builder) LimitValue() (int, bool) { return b.limit, b.limited }

// Err returns the first construction error.
func (b *Builder) Err() error {
	if b.err != nil {
		return b.err
	}
	return b.where.err
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Clone returns an independent copy.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = append([]string(nil), b.columns...)
	c.joins = append([]join(nil), b.joins...)
	c.orders = append([]order(nil), b.orders...)
	c.where.conds = cloneConditions(b.where.conds)
	return &c
}

func cloneConditions(in []condition) []condition {
	if in == nil {
		return nil
	}
	out := make([]condition, len(in))
	for i, c := range in {
		c.values = append([]any(nil), c.values...)
		c.group = cloneConditions(c.group)
		out[i] = c
	}
	return out
}

// ToSQL renders a SELECT statement and its bind values.
func (b *Builder) ToSQL() (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	args := NewArgs(b.dialect)
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.Quote(c)
		}
		sb.WriteString(strings.Join(quoted, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.Quote(b.table))
	for _, j := range b.joins {
		fmt.Fprintf(&sb, " INNER JOIN %s ON %s %s %s",
			b.dialect.Quote(j.table), b.dialect.Quote(j.left), j.op, b.dialect.Quote(j.right))
	}
	if where := b.renderConditions(b.where.conds, args); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(b.orders) > 0 {
		parts := make([]string, len(b.orders))
		for i, o := range b.orders {
			dir := "ASC"
			if o.desc {
				dir = "DESC"
			}
			parts[i] = b.dialect.Quote(o.column) + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if b.limited {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	return sb.String(), args.Values(), nil
}

// ToDeleteSQL renders a DELETE over the base table using the conditions.
// Joins, orders and limits are ignored.
func (b *Builder) ToDeleteSQL() (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	args := NewArgs(b.dialect)
	stmt := "DELETE FROM " + b.dialect.Quote(b.table)
	if where := b.renderConditions(b.where.conds, args); where != "" {
		stmt += " WHERE " + where
	}
	return stmt, args.Values(), nil
}

// whereSQL renders only the condition list, continuing the placeholder sequence
// of args. Used by the write helpers.
func (b *Builder) whereSQL(args *Args) string {
	return b.renderConditions(b.where.conds, args)
}

func (b *Builder) renderConditions(conds []condition, args *Args) string {
	var sb strings.Builder
	for _, c := range conds {
		rendered := b.renderCondition(c, args)
		if rendered == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" " + c.boolean + " ")
		}
		sb.WriteString(rendered)
	}
	return sb.String()
}

func (b *Builder) renderCondition(c condition, args *Args) string {
	switch c.kind {
	case condGroup:
		inner := b.renderConditions(c.group, args)
		if inner == "" {
			return ""
		}
		return "(" + inner + ")"
	case condNotNull:
		return b.dialect.Quote(c.column) + " IS NOT NULL"
	case condIn:
		if len(c.values) == 0 {
			return "1 = 0"
		}
		marks := make([]string, len(c.values))
		for i, v := range c.values {
			marks[i] = args.Add(v)
		}
		return b.dialect.Quote(c.column) + " IN (" + strings.Join(marks, ", ") + ")"
	}
	return b.dialect.Quote(c.column) + " " + c.op + " " + args.Add(c.value)
}
