package query

import "strings"

// Operators accepted by Where.
const (
	OpEq         = "="
	OpNe         = "<>"
	OpLt         = "<"
	OpLte        = "<="
	OpGt         = ">"
	OpGte        = ">="
	OpIn         = "IN"
	OpBeginsWith = "BEGINS_WITH"
)

// Predicate is a single column condition. Predicates are joined with AND.
type Predicate struct {
	Column string
	Op     string
	Value  any
}

// Raw is an expression inlined into statement text instead of being bound
// as a parameter.
type Raw string

// Plan is an immutable description of a read.
type Plan struct {
	table          string
	partition      []string
	clustering     []string
	columns        []string
	wheres         []Predicate
	limit          int
	allowFiltering bool
	pageSize       int32
	token          *string
	forPage        int
}

// Table returns the table the plan reads.
func (p Plan) Table() string { return p.table }

// Columns returns the projected columns; empty means all.
func (p Plan) Columns() []string { return append([]string(nil), p.columns...) }

// Wheres returns the predicates in the order they were added.
func (p Plan) Wheres() []Predicate { return append([]Predicate(nil), p.wheres...) }

// PartitionKey returns the declared partition columns.
func (p Plan) PartitionKey() []string { return append([]string(nil), p.partition...) }

// ClusteringKey returns the declared clustering columns.
func (p Plan) ClusteringKey() []string { return append([]string(nil), p.clustering...) }

// Limit returns the row cap, or 0 for none.
func (p Plan) Limit() int { return p.limit }

// AllowsFiltering reports whether predicates outside the key are allowed.
func (p Plan) AllowsFiltering() bool { return p.allowFiltering }

// PageSize returns the rows fetched per round trip, or 0 for the store default.
func (p Plan) PageSize() int32 { return p.pageSize }

// PaginationStateToken returns a copy of the resume token, or nil.
func (p Plan) PaginationStateToken() *string {
	if p.token == nil {
		return nil
	}
	t := *p.token
	return &t
}

// TargetPage returns the page selected with ForPage, or 0 when the plan drains.
func (p Plan) TargetPage() int { return p.forPage }

// options returns the transport options for the first round trip. Unset
// values are left out.
func (p Plan) options() Options {
	var opts Options
	if p.pageSize > 0 {
		opts.PageSize = p.pageSize
	}
	if p.token != nil {
		opts.PagingStateToken = p.PaginationStateToken()
	}
	return opts
}

// Builder accumulates a Plan. A Builder is not safe for concurrent use.
type Builder struct {
	plan Plan
}

// From starts a builder for table.
func From(table string) *Builder {
	return &Builder{plan: Plan{table: table}}
}

// Keys declares the table's partition and clustering columns. The compiler
// uses them to decide whether predicates need filtering.
func (b *Builder) Keys(partition, clustering []string) *Builder {
	b.plan.partition = append([]string(nil), partition...)
	b.plan.clustering = append([]string(nil), clustering...)
	return b
}

// Select sets the projected columns. No columns (or "*") selects all.
func (b *Builder) Select(columns ...string) *Builder {
	if len(columns) == 1 && columns[0] == "*" {
		columns = nil
	}
	b.plan.columns = append([]string(nil), columns...)
	return b
}

// Where adds a predicate.
func (b *Builder) Where(column, op string, v any) *Builder {
	b.plan.wheres = append(b.plan.wheres, Predicate{
		Column: column,
		Op:     strings.ToUpper(strings.TrimSpace(op)),
		Value:  v,
	})
	return b
}

// WhereIn adds an IN predicate.
func (b *Builder) WhereIn(column string, values ...any) *Builder {
	b.plan.wheres = append(b.plan.wheres, Predicate{Column: column, Op: OpIn, Value: values})
	return b
}

// Limit caps the number of rows returned. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		n = 0
	}
	b.plan.limit = n
	return b
}

// AllowFiltering opts into predicates that need a scan.
func (b *Builder) AllowFiltering(allow bool) *Builder {
	b.plan.allowFiltering = allow
	return b
}

// SetPageSize sets the number of rows fetched per round trip. Zero or a
// negative size leaves the store default.
func (b *Builder) SetPageSize(n int) *Builder {
	if n < 0 {
		n = 0
	}
	b.plan.pageSize = int32(n)
	return b
}

// SetPaginationStateToken resumes from a token returned by a previous page.
// An empty token clears it.
func (b *Builder) SetPaginationStateToken(token string) *Builder {
	if token == "" {
		b.plan.token = nil
		return b
	}
	b.plan.token = &token
	return b
}

// ForPage targets the 1-indexed page of perPage rows.
func (b *Builder) ForPage(page, perPage int) *Builder {
	b.plan.forPage = page
	return b.SetPageSize(perPage)
}

// Build returns a snapshot of the plan. Later builder calls do not affect it.
func (b *Builder) Build() Plan {
	p := b.plan
	p.partition = append([]string(nil), p.partition...)
	p.clustering = append([]string(nil), p.clustering...)
	p.columns = append([]string(nil), p.columns...)
	p.wheres = append([]Predicate(nil), p.wheres...)
	p.token = b.plan.PaginationStateToken()
	return p
}
