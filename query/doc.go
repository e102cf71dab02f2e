// Package query builds read plans, compiles them to PartiQL and runs them
// through a statement transport.
//
// # Plans
//
// A [Builder] accumulates columns, predicates and pagination settings and
// produces an immutable [Plan]:
//
//	plan := query.From("users").
//	    Keys([]string{"tenant"}, []string{"id"}).
//	    Where("tenant", "=", "acme").
//	    SetPageSize(100).
//	    Build()
//
// # Pagination
//
// [Engine.Execute] drains every page: it follows continuation tokens until the
// store reports the last page and returns one [Collection] with all rows. The
// page size only bounds the batch fetched per round trip. Use
// [Engine.ExecutePage] or [Engine.Cursor] for bounded reads, or set a limit on
// the plan.
//
// # Filtering
//
// Predicates on columns outside the key need an explicit opt-in with
// [Builder.AllowFiltering]; otherwise compilation fails with
// [ErrFilteringRequired].
package query
