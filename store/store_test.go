package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/store"
)

// --- Fake Client ---

// fakeClient serves ExecuteStatement from scripted pages keyed by NextToken
// ("" for the first page) and records every call.
type fakeClient struct {
	pages      map[string]*dynamodb.ExecuteStatementOutput
	execErr    error
	batchOut   []*dynamodb.BatchExecuteStatementOutput
	batchErr   error
	batchErrOn int // 1-based call that fails with batchErr; 0 fails every call
	execCalls  []*dynamodb.ExecuteStatementInput
	batchCalls []*dynamodb.BatchExecuteStatementInput
}

func (f *fakeClient) ExecuteStatement(ctx context.Context, in *dynamodb.ExecuteStatementInput, _ ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error) {
	f.execCalls = append(f.execCalls, in)
	if f.execErr != nil {
		return nil, f.execErr
	}
	token := ""
	if in.NextToken != nil {
		token = *in.NextToken
	}
	if out, ok := f.pages[token]; ok {
		return out, nil
	}
	return &dynamodb.ExecuteStatementOutput{}, nil
}

func (f *fakeClient) BatchExecuteStatement(ctx context.Context, in *dynamodb.BatchExecuteStatementInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchExecuteStatementOutput, error) {
	f.batchCalls = append(f.batchCalls, in)
	if f.batchErr != nil && (f.batchErrOn == 0 || f.batchErrOn == len(f.batchCalls)) {
		return nil, f.batchErr
	}
	i := len(f.batchCalls) - 1
	if i < len(f.batchOut) {
		return f.batchOut[i], nil
	}
	return &dynamodb.BatchExecuteStatementOutput{
		Responses: make([]types.BatchStatementResponse, len(in.Statements)),
	}, nil
}

func item(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func selectStmt() query.Statement {
	return query.Statement{Table: "users", Text: `SELECT * FROM "users"`}
}

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.PageSize != 0 {
		t.Errorf("expected PageSize 0, got %d", cfg.PageSize)
	}
	if cfg.MaxBatchSize != 25 {
		t.Errorf("expected MaxBatchSize 25, got %d", cfg.MaxBatchSize)
	}
	if cfg.ConsistentRead {
		t.Error("expected ConsistentRead false")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		cfg           store.Config
		wantPageSize  int32
		wantBatchSize int
	}{
		{"zero MaxBatchSize gets default", store.Config{MaxBatchSize: 0}, 0, 25},
		{"MaxBatchSize over 25 gets capped", store.Config{MaxBatchSize: 100}, 0, 25},
		{"negative PageSize gets cleared", store.Config{PageSize: -3, MaxBatchSize: 10}, 0, 10},
		{"valid values kept", store.Config{PageSize: 50, MaxBatchSize: 5}, 50, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New(nil, tt.cfg)
			got := s.Config()
			if got.PageSize != tt.wantPageSize {
				t.Errorf("expected PageSize %d, got %d", tt.wantPageSize, got.PageSize)
			}
			if got.MaxBatchSize != tt.wantBatchSize {
				t.Errorf("expected MaxBatchSize %d, got %d", tt.wantBatchSize, got.MaxBatchSize)
			}
		})
	}
}

// --- Execute Tests ---

func TestExecute_OmitsUnsetOptions(t *testing.T) {
	client := &fakeClient{}
	s := store.New(client, store.DefaultConfig())

	if _, err := s.Execute(context.Background(), selectStmt(), query.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := client.execCalls[0]
	if in.Limit != nil {
		t.Errorf("expected no Limit, got %d", *in.Limit)
	}
	if in.NextToken != nil {
		t.Errorf("expected no NextToken, got %q", *in.NextToken)
	}
	if in.ConsistentRead != nil {
		t.Error("expected ConsistentRead unset")
	}
	if aws.ToString(in.Statement) != `SELECT * FROM "users"` {
		t.Errorf("unexpected statement %q", aws.ToString(in.Statement))
	}
}

func TestExecute_PassesOptions(t *testing.T) {
	client := &fakeClient{}
	cfg := store.DefaultConfig()
	cfg.ConsistentRead = true
	s := store.New(client, cfg)

	opts := query.Options{PageSize: 5, PagingStateToken: aws.String("tok-1")}
	if _, err := s.Execute(context.Background(), selectStmt(), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := client.execCalls[0]
	if aws.ToInt32(in.Limit) != 5 {
		t.Errorf("expected Limit 5, got %d", aws.ToInt32(in.Limit))
	}
	if aws.ToString(in.NextToken) != "tok-1" {
		t.Errorf("expected NextToken tok-1, got %q", aws.ToString(in.NextToken))
	}
	if !aws.ToBool(in.ConsistentRead) {
		t.Error("expected ConsistentRead true")
	}
}

func TestExecute_WritesOmitReadOptions(t *testing.T) {
	client := &fakeClient{}
	s := store.New(client, store.Config{PageSize: 100, ConsistentRead: true})

	stmt := query.Statement{Table: "users", Text: `DELETE FROM "users" WHERE "id" = ?`}
	if _, err := s.Execute(context.Background(), stmt, query.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := client.execCalls[0]
	if in.Limit != nil {
		t.Errorf("expected no Limit on a write, got %d", *in.Limit)
	}
	if in.ConsistentRead != nil {
		t.Error("expected ConsistentRead unset on a write")
	}
}

func TestExecute_ConfigPageSizeIsDefault(t *testing.T) {
	client := &fakeClient{}
	s := store.New(client, store.Config{PageSize: 100})

	if _, err := s.Execute(context.Background(), selectStmt(), query.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToInt32(client.execCalls[0].Limit) != 100 {
		t.Errorf("expected Limit 100, got %d", aws.ToInt32(client.execCalls[0].Limit))
	}
}

func TestExecute_FollowsNextToken(t *testing.T) {
	client := &fakeClient{
		pages: map[string]*dynamodb.ExecuteStatementOutput{
			"":   {Items: []map[string]types.AttributeValue{item("a"), item("b")}, NextToken: aws.String("t2")},
			"t2": {Items: []map[string]types.AttributeValue{item("c")}},
		},
	}
	s := store.New(client, store.DefaultConfig())
	ctx := context.Background()

	page, err := s.Execute(ctx, selectStmt(), query.Options{PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.IsLastPage() {
		t.Fatal("expected first page not to be last")
	}
	if page.Token() != "t2" {
		t.Errorf("expected token t2, got %q", page.Token())
	}
	if len(page.Rows()) != 2 {
		t.Errorf("expected 2 rows, got %d", len(page.Rows()))
	}

	next, err := page.NextPage(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.IsLastPage() {
		t.Error("expected second page to be last")
	}
	if next.Token() != "" {
		t.Errorf("expected empty token on last page, got %q", next.Token())
	}
	if len(next.Rows()) != 1 {
		t.Errorf("expected 1 row, got %d", len(next.Rows()))
	}

	// The page size carries over to the follow-up request.
	if aws.ToInt32(client.execCalls[1].Limit) != 2 {
		t.Errorf("expected Limit 2 on second call, got %d", aws.ToInt32(client.execCalls[1].Limit))
	}

	if _, err := next.NextPage(ctx); !errors.Is(err, store.ErrNoMorePages) {
		t.Errorf("expected ErrNoMorePages, got %v", err)
	}
}

func TestExecute_MapsDuplicateItem(t *testing.T) {
	client := &fakeClient{execErr: &types.DuplicateItemException{Message: aws.String("dup")}}
	s := store.New(client, store.DefaultConfig())

	_, err := s.Execute(context.Background(), selectStmt(), query.Options{})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestExecute_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	client := &fakeClient{execErr: boom}
	s := store.New(client, store.DefaultConfig())

	_, err := s.Execute(context.Background(), selectStmt(), query.Options{})
	if err != boom {
		t.Errorf("expected error to be propagated unchanged, got %v", err)
	}
}

// --- Batch Tests ---

func insertStmts(n int) []query.Statement {
	stmts := make([]query.Statement, n)
	for i := range stmts {
		stmts[i] = query.Statement{Table: "users", Text: `INSERT INTO "users" VALUE {'id' : ?}`}
	}
	return stmts
}

func TestBatch_SingleRequest(t *testing.T) {
	client := &fakeClient{}
	s := store.New(client, store.DefaultConfig())

	if err := s.Batch(context.Background(), insertStmts(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.batchCalls) != 1 {
		t.Fatalf("expected 1 batch call, got %d", len(client.batchCalls))
	}
	if len(client.batchCalls[0].Statements) != 3 {
		t.Errorf("expected 3 statements, got %d", len(client.batchCalls[0].Statements))
	}
}

func TestBatch_SplitsLargeBatches(t *testing.T) {
	client := &fakeClient{}
	s := store.New(client, store.DefaultConfig())

	if err := s.Batch(context.Background(), insertStmts(60)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{25, 25, 10}
	if len(client.batchCalls) != len(want) {
		t.Fatalf("expected %d batch calls, got %d", len(want), len(client.batchCalls))
	}
	for i, n := range want {
		if got := len(client.batchCalls[i].Statements); got != n {
			t.Errorf("call %d: expected %d statements, got %d", i, n, got)
		}
	}
}

func TestBatch_ReportsFailedStatements(t *testing.T) {
	client := &fakeClient{
		batchOut: []*dynamodb.BatchExecuteStatementOutput{
			{Responses: []types.BatchStatementResponse{
				{},
				{Error: &types.BatchStatementError{
					Code:    types.BatchStatementErrorCodeEnumDuplicateItem,
					Message: aws.String("duplicate"),
				}},
			}},
		},
	}
	s := store.New(client, store.DefaultConfig())

	err := s.Batch(context.Background(), insertStmts(2))

	var batchErr *store.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if len(batchErr.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(batchErr.Failures))
	}
	if batchErr.Failures[0].Index != 1 {
		t.Errorf("expected failure index 1, got %d", batchErr.Failures[0].Index)
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Error("expected errors.Is(err, ErrAlreadyExists)")
	}
}

func TestBatch_TransportError(t *testing.T) {
	boom := errors.New("throttled")
	client := &fakeClient{batchErr: boom}
	s := store.New(client, store.DefaultConfig())

	err := s.Batch(context.Background(), insertStmts(2))
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestBatch_TransportErrorKeepsEarlierFailures(t *testing.T) {
	first := make([]types.BatchStatementResponse, 25)
	first[3] = types.BatchStatementResponse{Error: &types.BatchStatementError{
		Code:    types.BatchStatementErrorCodeEnumDuplicateItem,
		Message: aws.String("duplicate"),
	}}
	boom := errors.New("throttled")
	client := &fakeClient{
		batchOut:   []*dynamodb.BatchExecuteStatementOutput{{Responses: first}},
		batchErr:   boom,
		batchErrOn: 2,
	}
	s := store.New(client, store.DefaultConfig())

	err := s.Batch(context.Background(), insertStmts(30))
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}

	var batchErr *store.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected failures of the applied group, got %v", err)
	}
	if len(batchErr.Failures) != 1 || batchErr.Failures[0].Index != 3 {
		t.Errorf("expected failure at index 3, got %+v", batchErr.Failures)
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Error("expected errors.Is(err, ErrAlreadyExists)")
	}
	if !strings.Contains(err.Error(), "statements 0-24 were submitted") {
		t.Errorf("expected applied prefix in message, got %q", err.Error())
	}
}

func TestBatch_FirstGroupTransportError(t *testing.T) {
	boom := errors.New("throttled")
	client := &fakeClient{batchErr: boom}
	s := store.New(client, store.DefaultConfig())

	err := s.Batch(context.Background(), insertStmts(30))
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var batchErr *store.BatchError
	if errors.As(err, &batchErr) {
		t.Errorf("expected no batch failures, got %+v", batchErr.Failures)
	}
	if len(client.batchCalls) != 1 {
		t.Errorf("expected the batch to stop after the failed group, got %d calls", len(client.batchCalls))
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ query.Transport = store.New(nil, store.DefaultConfig())
	var _ store.Client = (*dynamodb.Client)(nil)
}

// --- Errors ---

func TestErrors(t *testing.T) {
	errs := []error{
		store.ErrAlreadyExists,
		store.ErrConditionFailed,
		store.ErrNoMorePages,
	}

	for _, err := range errs {
		if err.Error() == "" {
			t.Errorf("error %v has empty message", err)
		}
	}
}
