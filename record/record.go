package record

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/go-json-experiment/json"

	"github.com/jacentio/tessera/internal/keyref"
	"github.com/jacentio/tessera/query"
	"github.com/jacentio/tessera/value"
)

// Record is one row of a schema. A Record is not safe for concurrent use.
type Record struct {
	schema     *Schema
	attributes map[string]any
	order      []string
	original   map[string]any
	exists     bool
}

// New creates an unsaved record. Initial attributes are added in column
// name order.
func (s *Schema) New(attrs map[string]any) *Record {
	r := &Record{
		schema:     s,
		attributes: make(map[string]any, len(attrs)),
		original:   make(map[string]any),
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, attrs[k])
	}
	return r
}

// FromRow hydrates an existing record from a stored row. Columns with a
// temporal cast decode to the matching value wrapper.
func (s *Schema) FromRow(row query.Row) (*Record, error) {
	r := &Record{
		schema:     s,
		attributes: make(map[string]any, len(row)),
		original:   make(map[string]any, len(row)),
		exists:     true,
	}

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		v, err := value.Decode(row[col], s.casts[col].kind())
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", s.table, col, err)
		}
		r.Set(col, v)
	}
	r.syncOriginal()
	return r, nil
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// Exists reports whether the record is known to have a stored row.
func (r *Record) Exists() bool { return r.exists }

// Get returns the current value of column.
func (r *Record) Get(column string) any { return r.attributes[column] }

// Has reports whether column is set.
func (r *Record) Has(column string) bool {
	_, ok := r.attributes[column]
	return ok
}

// Set assigns column. New columns are appended to the column order.
func (r *Record) Set(column string, v any) *Record {
	if _, ok := r.attributes[column]; !ok {
		r.order = append(r.order, column)
	}
	r.attributes[column] = v
	return r
}

// Unset clears column. Saving an existing record removes the stored attribute.
func (r *Record) Unset(column string) *Record {
	return r.Set(column, nil)
}

// Columns returns the set columns in the order they were first set.
func (r *Record) Columns() []string { return append([]string(nil), r.order...) }

// Original returns the value of column as last loaded or saved.
func (r *Record) Original(column string) any { return r.original[column] }

// Attributes returns a copy of the current attributes.
func (r *Record) Attributes() map[string]any {
	out := make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// Dirty returns the attributes whose value is not equivalent to the original.
func (r *Record) Dirty() map[string]any {
	dirty := make(map[string]any)
	for _, col := range r.order {
		if !r.Equivalent(col) {
			dirty[col] = r.attributes[col]
		}
	}
	return dirty
}

// IsDirty reports whether any of columns is dirty, or any column at all
// when none are given.
func (r *Record) IsDirty(columns ...string) bool {
	dirty := r.Dirty()
	if len(columns) == 0 {
		return len(dirty) > 0
	}
	for _, c := range columns {
		if _, ok := dirty[c]; ok {
			return true
		}
	}
	return false
}

// Key returns the current key column values, unwrapped to primitives.
func (r *Record) Key() map[string]any {
	key := make(map[string]any, len(r.schema.keyColumns))
	for _, col := range r.schema.keyColumns {
		key[col] = value.Unwrap(r.attributes[col])
	}
	return key
}

// Ref returns "table#k1#k2" built from the current key values.
func (r *Record) Ref() string {
	values := make([]any, 0, len(r.schema.keyColumns))
	for _, col := range r.schema.keyColumns {
		values = append(values, value.Unwrap(r.attributes[col]))
	}
	return keyref.Ref(r.schema.table, values...)
}

// ToMap returns the attributes with value wrappers unwrapped.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = value.Unwrap(v)
	}
	return out
}

// Cast returns column converted according to its schema cast.
func (r *Record) Cast(column string) (any, error) {
	return castValue(r.schema.casts[column], r.attributes[column], r.schema.timeFormat)
}

// keyWhere returns equality predicates on every key column using values
// from attrs.
func (r *Record) keyWhere(attrs map[string]any) []query.Predicate {
	where := make([]query.Predicate, 0, len(r.schema.keyColumns))
	for _, col := range r.schema.keyColumns {
		where = append(where, query.Predicate{Column: col, Op: query.OpEq, Value: attrs[col]})
	}
	return where
}

// insertValues returns the attributes to write for an insert. Nil values
// are left out.
func (r *Record) insertValues() map[string]any {
	row := make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		if v != nil {
			row[k] = v
		}
	}
	return row
}

func (r *Record) syncOriginal() {
	r.original = make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		r.original[k] = v
	}
}

func castValue(cast Cast, v any, layout string) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch cast {
	case CastInt:
		return value.CastInt(v)
	case CastFloat:
		return value.CastFloat(v)
	case CastString:
		return value.CastString(v, layout), nil
	case CastBool:
		return castBool(v)
	case CastDate, CastDateTime, CastTimestamp:
		return value.ToTime(v)
	case CastTime:
		return value.ToTimeOfDay(v, layout)
	case CastJSON, CastCollection:
		return decodeJSON(v)
	}
	return v, nil
}

func castBool(v any) (bool, error) {
	switch b := value.Unwrap(v).(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "", "0", "false":
			return false, nil
		}
		return true, nil
	}
	n, err := value.CastInt(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// decodeJSON parses JSON text; structured values are returned as is.
func decodeJSON(v any) (any, error) {
	var data []byte
	switch s := v.(type) {
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return v, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
