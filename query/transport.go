package query

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Row is a raw item as returned by the store.
type Row map[string]types.AttributeValue

// Statement is compiled statement text with its positional parameters.
type Statement struct {
	// Table is the table the statement targets.
	Table string

	// Text is the PartiQL statement.
	Text string

	// Params are bound to the statement's ? placeholders, in order.
	Params []types.AttributeValue

	// Filtering is set when the plan opted into predicates that need a scan.
	Filtering bool
}

// Options configure a single statement execution.
type Options struct {
	// PageSize bounds the rows fetched per round trip (0 = store default).
	PageSize int32

	// PagingStateToken resumes a previous result (nil = from the start).
	PagingStateToken *string
}

// Page is one page of a result.
type Page interface {
	// Rows returns the rows of this page.
	Rows() []Row

	// IsLastPage reports whether the store has no further pages.
	IsLastPage() bool

	// Token returns the continuation token for the next page, or "" on the last page.
	Token() string

	// NextPage fetches the following page. Calling it on the last page is an error.
	NextPage(ctx context.Context) (Page, error)
}

// Transport executes compiled statements against the store.
type Transport interface {
	// Execute runs a single statement.
	Execute(ctx context.Context, stmt Statement, opts Options) (Page, error)

	// Batch submits several write statements together.
	Batch(ctx context.Context, stmts []Statement) error
}
