package record_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/record"
)

// --- Fake Transport ---

// fakeTransport records every statement and answers reads with a single
// page of rows. failOn makes statements starting with the given verb fail.
type fakeTransport struct {
	rows   []query.Row
	failOn map[string]error

	statements []query.Statement
}

func (f *fakeTransport) Execute(ctx context.Context, stmt query.Statement, opts query.Options) (query.Page, error) {
	f.statements = append(f.statements, stmt)
	for verb, err := range f.failOn {
		if strings.HasPrefix(stmt.Text, verb) {
			return nil, err
		}
	}
	if strings.HasPrefix(stmt.Text, "SELECT") {
		return &fakePage{rows: f.rows}, nil
	}
	return &fakePage{}, nil
}

func (f *fakeTransport) Batch(ctx context.Context, stmts []query.Statement) error {
	f.statements = append(f.statements, stmts...)
	return nil
}

// writes returns the texts of non-SELECT statements.
func (f *fakeTransport) writes() []string {
	var out []string
	for _, s := range f.statements {
		if !strings.HasPrefix(s.Text, "SELECT") {
			out = append(out, s.Text)
		}
	}
	return out
}

type fakePage struct {
	rows []query.Row
}

func (p *fakePage) Rows() []query.Row { return p.rows }
func (p *fakePage) IsLastPage() bool  { return true }
func (p *fakePage) Token() string     { return "" }
func (p *fakePage) NextPage(ctx context.Context) (query.Page, error) {
	return nil, context.Canceled
}

// --- Helpers ---

func usersSchema(t *testing.T, cfg record.SchemaConfig) *record.Schema {
	t.Helper()
	if cfg.Table == "" {
		cfg.Table = "users"
	}
	if cfg.PartitionKey == nil && cfg.ClusteringKey == nil {
		cfg.PartitionKey = []string{"id"}
	}
	s, err := record.NewSchema(cfg)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func newRepo(t *testing.T, s *record.Schema, rows ...query.Row) (*record.Repository, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{rows: rows}
	return record.NewRepository(s, query.NewEngine(ft, nil, nil)), ft
}

func num(n string) types.AttributeValue { return &types.AttributeValueMemberN{Value: n} }
func str(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

// loaded returns an existing record hydrated from row.
func loaded(t *testing.T, s *record.Schema, row query.Row) *record.Record {
	t.Helper()
	rec, err := s.FromRow(row)
	if err != nil {
		t.Fatalf("FromRow: %v", err)
	}
	return rec
}

// recorder is a listener log.
type recorder struct {
	events []record.Event
}

func (r *recorder) hooks(events ...record.Event) *record.Hooks {
	h := record.NewHooks()
	for _, e := range events {
		h.On(e, func(ctx context.Context, rec *record.Record) error {
			r.events = append(r.events, e)
			return nil
		})
	}
	return h
}

var allEvents = []record.Event{
	record.EventSaving, record.EventSaved,
	record.EventCreating, record.EventCreated,
	record.EventUpdating, record.EventUpdated,
	record.EventDeleting, record.EventDeleted,
}
