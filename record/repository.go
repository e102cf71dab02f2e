package record

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/value"
)

// saveState is the outcome of classifying a record before a save.
type saveState int

const (
	stateNew saveState = iota
	stateClean
	stateDirtyNonKey
	stateDirtyKey
)

func (s saveState) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateClean:
		return "clean"
	case stateDirtyNonKey:
		return "dirty"
	case stateDirtyKey:
		return "dirty-key"
	}
	return fmt.Sprintf("saveState(%d)", int(s))
}

// Repository loads and saves records of one schema.
type Repository struct {
	schema *Schema
	engine *query.Engine
	logger *slog.Logger
}

// NewRepository creates a Repository.
func NewRepository(schema *Schema, engine *query.Engine) *Repository {
	return &Repository{
		schema: schema,
		engine: engine,
		logger: schema.logger,
	}
}

// Schema returns the repository's schema.
func (r *Repository) Schema() *Schema { return r.schema }

// Query starts a plan on the schema's table with its key layout declared.
func (r *Repository) Query() *query.Builder {
	return query.From(r.schema.table).Keys(r.schema.partition, r.schema.clustering)
}

// Get runs plan in drain mode and hydrates every row.
func (r *Repository) Get(ctx context.Context, plan query.Plan) (*Collection, error) {
	rows, err := r.engine.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	return r.hydrate(rows)
}

// GetPage returns the records of the 1-indexed page n of plan.
func (r *Repository) GetPage(ctx context.Context, plan query.Plan, n int) (*Collection, error) {
	rows, err := r.engine.ExecutePage(ctx, plan, n)
	if err != nil {
		return nil, err
	}
	return r.hydrate(rows)
}

// Cursor returns the records of a single page starting at the plan's token.
func (r *Repository) Cursor(ctx context.Context, plan query.Plan) (*Collection, error) {
	rows, err := r.engine.Cursor(ctx, plan)
	if err != nil {
		return nil, err
	}
	return r.hydrate(rows)
}

// Find loads the record with the given key. Every key column is required.
func (r *Repository) Find(ctx context.Context, key map[string]any) (*Record, error) {
	b := r.Query().Limit(1)
	for _, col := range r.schema.keyColumns {
		v, ok := key[col]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteKey, col)
		}
		b.Where(col, query.OpEq, v)
	}

	coll, err := r.Get(ctx, b.Build())
	if err != nil {
		return nil, err
	}
	if coll.Len() == 0 {
		return nil, ErrNotFound
	}
	return coll.First(), nil
}

// Create saves a new record with attrs.
func (r *Repository) Create(ctx context.Context, attrs map[string]any) (*Record, error) {
	rec := r.schema.New(attrs)
	if err := r.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save writes rec. A saving listener error cancels before anything is
// written. When a key column changed, the old row is replaced (see the
// package documentation); if that fails after the new row was written the
// error wraps ErrStaleRow. Nothing is rolled back.
func (r *Repository) Save(ctx context.Context, rec *Record) error {
	if rec.schema != r.schema {
		return ErrSchemaMismatch
	}

	if err := r.schema.halt(ctx, EventSaving, rec); err != nil {
		return err
	}

	state, dirty := r.classify(rec)

	var err error
	switch state {
	case stateNew:
		err = r.performInsert(ctx, rec)
	case stateClean:
	case stateDirtyNonKey:
		err = r.performUpdate(ctx, rec, dirty)
	case stateDirtyKey:
		err = r.replace(ctx, rec)
	}
	if err != nil {
		return err
	}

	r.finishSave(ctx, rec)
	return nil
}

// Delete removes the row stored under rec's original key. Deleting a record
// that does not exist is a no-op.
func (r *Repository) Delete(ctx context.Context, rec *Record) error {
	if rec.schema != r.schema {
		return ErrSchemaMismatch
	}
	if !rec.exists {
		return nil
	}

	if err := r.schema.halt(ctx, EventDeleting, rec); err != nil {
		return err
	}
	if err := r.engine.Delete(ctx, r.schema.table, rec.keyWhere(rec.original)); err != nil {
		return err
	}
	rec.exists = false
	r.schema.notify(ctx, EventDeleted, rec)
	return nil
}

// classify computes the save path once. The dirty attributes are returned
// for the update paths.
func (r *Repository) classify(rec *Record) (saveState, map[string]any) {
	if !rec.exists {
		return stateNew, nil
	}
	dirty := rec.Dirty()
	if len(dirty) == 0 {
		return stateClean, nil
	}
	for _, col := range r.schema.keyColumns {
		if _, ok := dirty[col]; ok {
			return stateDirtyKey, dirty
		}
	}
	return stateDirtyNonKey, dirty
}

func (r *Repository) performInsert(ctx context.Context, rec *Record) error {
	if err := r.schema.halt(ctx, EventCreating, rec); err != nil {
		return err
	}

	if r.schema.timestamps {
		now := value.Now()
		rec.Set(UpdatedAtColumn, now)
		if !rec.exists && rec.Get(CreatedAtColumn) == nil {
			rec.Set(CreatedAtColumn, now)
		}
	}

	if err := r.engine.Insert(ctx, r.schema.table, rec.insertValues()); err != nil {
		return err
	}

	rec.exists = true
	r.schema.notify(ctx, EventCreated, rec)
	return nil
}

// performUpdate writes the dirty non-key attributes. The row is addressed by
// the key columns; the primary identifier, if configured, by its original value.
func (r *Repository) performUpdate(ctx context.Context, rec *Record, dirty map[string]any) error {
	if err := r.schema.halt(ctx, EventUpdating, rec); err != nil {
		return err
	}

	set := make(map[string]any, len(dirty)+1)
	for k, v := range dirty {
		set[k] = v
	}
	if r.schema.timestamps {
		now := value.Now()
		rec.Set(UpdatedAtColumn, now)
		set[UpdatedAtColumn] = now
	}

	where := make([]query.Predicate, 0, len(r.schema.keyColumns)+1)
	for _, col := range r.schema.keyColumns {
		if col == r.schema.primaryKey {
			continue
		}
		where = append(where, query.Predicate{Column: col, Op: query.OpEq, Value: rec.attributes[col]})
	}
	if pk := r.schema.primaryKey; pk != "" {
		where = append(where, query.Predicate{Column: pk, Op: query.OpEq, Value: rec.original[pk]})
	}

	if err := r.engine.Update(ctx, r.schema.table, set, where); err != nil {
		return err
	}

	r.schema.notify(ctx, EventUpdated, rec)
	return nil
}

// replace moves rec to its new key: insert under the new key, then delete
// under the original key. Between the two steps both rows exist.
func (r *Repository) replace(ctx context.Context, rec *Record) error {
	r.schema.replaceMu.Lock()
	defer r.schema.replaceMu.Unlock()

	r.schema.notify(ctx, EventUpdating, rec)

	oldKey := rec.keyWhere(rec.original)
	oldRef := r.refOf(rec.original)

	err := r.schema.withoutEvents(func() error {
		if err := r.performInsert(ctx, rec); err != nil {
			return fmt.Errorf("insert %s: %w", rec.Ref(), err)
		}
		if err := r.engine.Delete(ctx, r.schema.table, oldKey); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrStaleRow, oldRef, err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("replace failed",
			"from", oldRef,
			"to", rec.Ref(),
			"error", err,
		)
		return err
	}

	r.logger.Debug("replaced record", "from", oldRef, "to", rec.Ref())
	r.schema.notify(ctx, EventUpdated, rec)
	return nil
}

func (r *Repository) finishSave(ctx context.Context, rec *Record) {
	r.schema.notify(ctx, EventSaved, rec)
	rec.syncOriginal()
}

func (r *Repository) refOf(attrs map[string]any) string {
	tmp := &Record{schema: r.schema, attributes: attrs}
	return tmp.Ref()
}

func (r *Repository) hydrate(rows *query.Collection) (*Collection, error) {
	records := make([]*Record, 0, rows.Len())
	for _, row := range rows.Rows() {
		rec, err := r.schema.FromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return &Collection{records: records, rows: rows}, nil
}
