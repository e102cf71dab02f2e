package query

import (
	"context"
	"fmt"
	"log/slog"
)

// Engine executes plans and writes through a Transport. It keeps no state
// between calls and is safe for concurrent use if the transport is.
type Engine struct {
	transport Transport
	grammar   Grammar
	logger    *slog.Logger
}

// NewEngine creates an Engine. A nil grammar uses PartiQL and a nil logger
// uses slog.Default().
func NewEngine(transport Transport, grammar Grammar, logger *slog.Logger) *Engine {
	if grammar == nil {
		grammar = PartiQL{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transport: transport,
		grammar:   grammar,
		logger:    logger,
	}
}

// Grammar returns the engine's statement compiler.
func (e *Engine) Grammar() Grammar { return e.grammar }

// Execute runs the plan. Unless the plan targets a page with ForPage, every
// page is fetched and appended until the store reports the last one, so the
// page size never bounds the total. A plan limit stops fetching once reached.
func (e *Engine) Execute(ctx context.Context, plan Plan) (*Collection, error) {
	if plan.forPage > 0 {
		return e.ExecutePage(ctx, plan, plan.forPage)
	}

	page, err := e.first(ctx, plan)
	if err != nil {
		return nil, err
	}

	coll := &Collection{}
	pages := 1
	for {
		if coll.append(page.Rows(), plan.limit) || page.IsLastPage() {
			break
		}
		page, err = page.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		pages++
	}
	coll.page = page

	e.logger.Debug("drained query",
		"table", plan.table,
		"pages", pages,
		"rows", coll.Len(),
	)
	return coll, nil
}

// ExecutePage skips to the 1-indexed page n and returns only its rows.
// Intermediate pages are discarded. If the result ends before page n, the
// last available page is returned without error.
func (e *Engine) ExecutePage(ctx context.Context, plan Plan, n int) (*Collection, error) {
	if n < 1 {
		n = 1
	}

	page, err := e.first(ctx, plan)
	if err != nil {
		return nil, err
	}

	current := 1
	for current < n {
		if page.IsLastPage() {
			e.logger.Debug("result exhausted before requested page",
				"table", plan.table,
				"requested", n,
				"returned", current,
			)
			break
		}
		page, err = page.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", current+1, err)
		}
		current++
	}

	coll := &Collection{page: page}
	coll.append(page.Rows(), plan.limit)
	return coll, nil
}

// Cursor fetches a single page, starting from the plan's pagination token.
// Use Collection.NextToken to resume. A plan limit caps the page size.
func (e *Engine) Cursor(ctx context.Context, plan Plan) (*Collection, error) {
	// A page no larger than the limit keeps the next token aligned with the
	// last returned row.
	if plan.limit > 0 && (plan.pageSize == 0 || int(plan.pageSize) > plan.limit) {
		plan.pageSize = int32(plan.limit)
	}
	page, err := e.first(ctx, plan)
	if err != nil {
		return nil, err
	}
	coll := &Collection{page: page}
	coll.append(page.Rows(), plan.limit)
	return coll, nil
}

// Insert writes rows into table. One row is a single statement; several rows
// are compiled independently, each with its columns sorted, and submitted as
// one batch. No rows is a no-op.
func (e *Engine) Insert(ctx context.Context, table string, rows ...map[string]any) error {
	switch len(rows) {
	case 0:
		return nil
	case 1:
		stmt, err := e.grammar.CompileInsert(table, rows[0])
		if err != nil {
			return err
		}
		_, err = e.transport.Execute(ctx, stmt, Options{})
		return err
	}

	stmts := make([]Statement, 0, len(rows))
	for i, row := range rows {
		stmt, err := e.grammar.CompileInsert(table, row)
		if err != nil {
			return fmt.Errorf("compile row %d: %w", i, err)
		}
		stmts = append(stmts, stmt)
	}

	e.logger.Debug("submitting batch insert", "table", table, "statements", len(stmts))
	return e.transport.Batch(ctx, stmts)
}

// Update sets columns on the rows matched by where.
func (e *Engine) Update(ctx context.Context, table string, set map[string]any, where []Predicate) error {
	stmt, err := e.grammar.CompileUpdate(table, set, where)
	if err != nil {
		return err
	}
	_, err = e.transport.Execute(ctx, stmt, Options{})
	return err
}

// Delete removes the row matched by where.
func (e *Engine) Delete(ctx context.Context, table string, where []Predicate) error {
	stmt, err := e.grammar.CompileDelete(table, where)
	if err != nil {
		return err
	}
	_, err = e.transport.Execute(ctx, stmt, Options{})
	return err
}

func (e *Engine) first(ctx context.Context, plan Plan) (Page, error) {
	stmt, err := e.grammar.CompileSelect(plan)
	if err != nil {
		return nil, err
	}
	if stmt.Filtering {
		e.logger.Debug("query allows filtering", "table", plan.table, "statement", stmt.Text)
	}
	return e.transport.Execute(ctx, stmt, plan.options())
}
