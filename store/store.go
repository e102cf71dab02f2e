package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tessera/query"
)

// Client is the subset of the DynamoDB API the Store uses.
// *dynamodb.Client satisfies it.
type Client interface {
	ExecuteStatement(ctx context.Context, params *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error)
	BatchExecuteStatement(ctx context.Context, params *dynamodb.BatchExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchExecuteStatementOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Store executes statements against DynamoDB.
type Store struct {
	client Client
	config Config
	logger *slog.Logger
}

var _ query.Transport = (*Store)(nil)

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	return NewWithLogger(client, config, nil)
}

// NewWithLogger creates a new Store instance that logs to logger.
func NewWithLogger(client Client, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		config: config,
		logger: logger,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// Execute runs a single statement and returns its first page.
func (s *Store) Execute(ctx context.Context, stmt query.Statement, opts query.Options) (query.Page, error) {
	input := &dynamodb.ExecuteStatementInput{
		Statement:  aws.String(stmt.Text),
		Parameters: stmt.Params,
	}

	// Read options are left off writes.
	read := isSelect(stmt.Text)

	pageSize := opts.PageSize
	if pageSize <= 0 && read {
		pageSize = s.config.PageSize
	}
	if pageSize > 0 {
		input.Limit = aws.Int32(pageSize)
	}
	if opts.PagingStateToken != nil {
		input.NextToken = aws.String(*opts.PagingStateToken)
	}
	if s.config.ConsistentRead && read {
		input.ConsistentRead = aws.Bool(true)
	}

	out, err := s.client.ExecuteStatement(ctx, input)
	if err != nil {
		return nil, mapStatementError(err, stmt.Table)
	}

	rows := make([]query.Row, 0, len(out.Items))
	for _, item := range out.Items {
		rows = append(rows, query.Row(item))
	}

	return &page{
		store: s,
		stmt:  stmt,
		opts:  opts,
		rows:  rows,
		next:  out.NextToken,
	}, nil
}

// Batch submits write statements through BatchExecuteStatement, splitting
// them into groups of Config.MaxBatchSize. Every group is sent even if an
// earlier one reports failed statements; the failures are returned together.
// A transport error stops the batch; the groups before it were applied, and
// their failures are joined with the error.
func (s *Store) Batch(ctx context.Context, stmts []query.Statement) error {
	var failures []BatchFailure

	for start := 0; start < len(stmts); start += s.config.MaxBatchSize {
		end := start + s.config.MaxBatchSize
		if end > len(stmts) {
			end = len(stmts)
		}

		requests := make([]types.BatchStatementRequest, 0, end-start)
		for _, stmt := range stmts[start:end] {
			requests = append(requests, types.BatchStatementRequest{
				Statement:  aws.String(stmt.Text),
				Parameters: stmt.Params,
			})
		}

		out, err := s.client.BatchExecuteStatement(ctx, &dynamodb.BatchExecuteStatementInput{
			Statements: requests,
		})
		if err != nil {
			err = fmt.Errorf("batch statements %d-%d: %w", start, end-1, err)
			if start > 0 {
				err = fmt.Errorf("%w (statements 0-%d were submitted)", err, start-1)
			}
			if len(failures) > 0 {
				return errors.Join(&BatchError{Failures: failures}, err)
			}
			return err
		}

		for i, resp := range out.Responses {
			if resp.Error == nil {
				continue
			}
			f := BatchFailure{
				Index: start + i,
				Code:  string(resp.Error.Code),
			}
			if resp.Error.Message != nil {
				f.Message = *resp.Error.Message
			}
			failures = append(failures, f)
		}
	}

	if len(failures) > 0 {
		s.logger.Warn("batch statements failed",
			"statements", len(stmts),
			"failed", len(failures),
		)
		return &BatchError{Failures: failures}
	}
	return nil
}

func isSelect(text string) bool {
	return len(text) >= 6 && strings.EqualFold(text[:6], "SELECT")
}

// page is one ExecuteStatement result.
type page struct {
	store *Store
	stmt  query.Statement
	opts  query.Options
	rows  []query.Row
	next  *string
}

// Rows returns the items of this page.
func (p *page) Rows() []query.Row { return p.rows }

// IsLastPage reports whether DynamoDB returned no NextToken.
func (p *page) IsLastPage() bool { return p.next == nil || *p.next == "" }

// Token returns the NextToken, or "" on the last page.
func (p *page) Token() string {
	if p.IsLastPage() {
		return ""
	}
	return *p.next
}

// NextPage re-executes the statement from NextToken.
func (p *page) NextPage(ctx context.Context) (query.Page, error) {
	if p.IsLastPage() {
		return nil, ErrNoMorePages
	}
	opts := p.opts
	opts.PagingStateToken = aws.String(*p.next)
	return p.store.Execute(ctx, p.stmt, opts)
}
