package query

import "errors"

var (
	// ErrFilteringRequired is returned when a plan's predicates need a scan and
	// filtering was not allowed.
	ErrFilteringRequired = errors.New("tessera: predicates require allow filtering")

	// ErrInvalidPlan is returned for malformed plans (missing table, bad operator).
	ErrInvalidPlan = errors.New("tessera: invalid query plan")

	// ErrEmptyStatement is returned when a write has nothing to write.
	ErrEmptyStatement = errors.New("tessera: statement has no columns")
)
