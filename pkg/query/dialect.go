package query

import (
	"strconv"
	"strings"
)

// Dialect selects operator and placeholder flavour for a backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Generic  Dialect = ""
)

// ParseDialect maps driver names to a dialect. Unknown names fall back to
// Generic.
func ParseDialect(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx", "pq", "pgxpool":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	case "mysql", "mariadb":
		return MySQL
	}
	return Generic
}

// SearchOperator is the contains operator used by search constraints. Postgres
// needs ILIKE for case-insensitive matching; the other backends rely on
// collation with LIKE.
func (d Dialect) SearchOperator() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Placeholder renders the n-th (1-based) bind marker.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an already validated identifier. Dotted identifiers are quoted
// per segment.
func (d Dialect) Quote(ident string) string {
	q := `"`
	if d == MySQL {
		q = "`"
	}
	parts := strings.Split(ident, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = q + part + q
	}
	return strings.Join(parts, ".")
}

// SupportsReturning reports whether INSERT ... RETURNING is available.
func (d Dialect) SupportsReturning() bool {
	return d != MySQL
}

func (d Dialect) String() string {
	if d == Generic {
		return "generic"
	}
	return string(d)
}

// Args accumulates bind values and hands out dialect placeholders.
type Args struct {
	dialect Dialect
	values  []any
}

// NewArgs returns an empty accumulator.
func NewArgs(d Dialect) *Args {
	return &Args{dialect: d}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

// Values returns the collected bind values.
func (a *Args) Values() []any { return a.values }

// Len returns the number of bind values.
func (a *Args) Len() int { return len(a.values) }
