package query

// ApplySearchConstraint adds one grouped OR condition matching term as a
// substring of any of columns, using the dialect's search operator. The term
// is used as given; callers lower-case it when they need to. An empty column
// list adds an empty group, which renders nothing.
func ApplySearchConstraint(q *Builder, columns []string, term string) *Builder {
	op := q.Dialect().SearchOperator()
	pattern := "%" + term + "%"
	return q.WhereGroup(func(g *Group) {
		for _, column := range columns {
			g.OrWhere(column, op, pattern)
		}
	})
}
