// Package query builds parameterized Postgres SELECT statements from a
// projection of view names onto table columns.
package query

import "strings"

// ProjectionMap maps view names to qualified columns (alias.column) over a
// base table and any joined tables. Project qualifies with the alias of
// the most recent table, so columns from a join follow its Join call.
type ProjectionMap struct {
	from    strings.Builder
	current string
	columns map[string]string
	order   []string
}

// NewProjectionMap starts a projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	p := &ProjectionMap{current: alias, columns: make(map[string]string)}
	p.from.WriteString(schema + "." + table + " " + alias)
	return p
}

// Project maps view name to column on the current table.
func (p *ProjectionMap) Project(column, view string) *ProjectionMap {
	qualified := p.current + "." + column
	p.columns[view] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Join appends a join, e.g. kind "LEFT JOIN", and makes alias current.
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.from.WriteString(" " + kind + " " + schema + "." + table + " " + alias + " ON " + on)
	p.current = alias
	return p
}

// From returns the FROM target including joins.
func (p *ProjectionMap) From() string {
	return p.from.String()
}

// Column returns the qualified column for view, or view itself when it
// is not projected.
func (p *ProjectionMap) Column(view string) string {
	if col, ok := p.columns[view]; ok {
		return col
	}
	return view
}

// Columns returns the select list in projection order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}
