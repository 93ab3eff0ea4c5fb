package query

import (
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field is a projected view name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses "label,-created_at" style sort strings. A leading
// "-" sorts descending; blank terms are skipped.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// binder numbers positional parameters in the order they are bound.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

type condition func(b *binder) string

// Builder assembles SELECT statements over a ProjectionMap. Where methods
// given a nil value add nothing, so optional filters chain without guards.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder ordered by defaultSort unless OrderByFields
// overrides it.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{projection: projection, defaultSort: defaultSort}
}

// OrderByFields replaces the default ordering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals filters field = value.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	return b.where(func(p *binder) string {
		return col + " = " + p.bind(value)
	})
}

// WhereAfter filters field > value, the keyset pagination predicate.
func (b *Builder) WhereAfter(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	return b.where(func(p *binder) string {
		return col + " > " + p.bind(value)
	})
}

// WhereContains filters on a case-insensitive substring match. Empty
// strings add nothing.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	return b.WhereSearch(value, field)
}

// WhereSearch matches value as a case-insensitive substring of any of the
// fields.
func (b *Builder) WhereSearch(value *string, fields ...string) *Builder {
	if value == nil || *value == "" || len(fields) == 0 {
		return b
	}
	pattern := "%" + *value + "%"
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.Column(f)
	}
	return b.where(func(p *binder) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + p.bind(pattern)
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
}

// WhereNull filters field IS NULL.
func (b *Builder) WhereNull(field string) *Builder {
	col := b.projection.Column(field)
	return b.where(func(*binder) string { return col + " IS NULL" })
}

// WhereNotNull filters field IS NOT NULL.
func (b *Builder) WhereNotNull(field string) *Builder {
	col := b.projection.Column(field)
	return b.where(func(*binder) string { return col + " IS NOT NULL" })
}

// Build returns the ordered SELECT with every condition applied.
func (b *Builder) Build() (string, []any) {
	var p binder
	var sb strings.Builder
	sb.WriteString("SELECT " + b.projection.Columns() + " FROM " + b.projection.From())
	sb.WriteString(b.whereClause(&p))
	sb.WriteString(b.orderClause())
	return sb.String(), p.args
}

// BuildCount returns SELECT COUNT(*) with every condition applied.
func (b *Builder) BuildCount() (string, []any) {
	var p binder
	sql := "SELECT COUNT(*) FROM " + b.projection.From() + b.whereClause(&p)
	return sql, p.args
}

// BuildPage returns Build limited to one page. Pages are 1-indexed.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	offset := max(page-1, 0) * pageSize
	return sql + " LIMIT " + strconv.Itoa(pageSize) + " OFFSET " + strconv.Itoa(offset), args
}

// BuildLimit returns Build with a LIMIT when limit is positive.
func (b *Builder) BuildLimit(limit int) (string, []any) {
	sql, args := b.Build()
	if limit > 0 {
		sql += " LIMIT " + strconv.Itoa(limit)
	}
	return sql, args
}

// BuildSingle selects the row whose idField equals id. Other conditions
// and ordering are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() +
		" WHERE " + b.projection.Column(idField) + " = $1"
	return sql, []any{id}
}

func (b *Builder) where(c condition) *Builder {
	b.conditions = append(b.conditions, c)
	return b
}

func (b *Builder) whereClause(p *binder) string {
	if len(b.conditions) == 0 {
		return ""
	}
	clauses := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		clauses[i] = c(p)
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func (b *Builder) orderClause() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// isNil reports nil interfaces and typed nil pointers, maps, and slices.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
