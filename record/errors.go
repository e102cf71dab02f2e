package record

import "errors"

var (
	// ErrNoKeyColumns is returned when a schema declares no key columns.
	ErrNoKeyColumns = errors.New("tessera: schema has no key columns")

	// ErrInvalidSchema is returned for schemas missing a table or with duplicate key columns.
	ErrInvalidSchema = errors.New("tessera: invalid schema")

	// ErrCanceled is returned when a listener cancels a save or delete.
	ErrCanceled = errors.New("tessera: canceled by listener")

	// ErrNotFound is returned when no row matches a key.
	ErrNotFound = errors.New("tessera: record not found")

	// ErrIncompleteKey is returned when a lookup key misses a key column.
	ErrIncompleteKey = errors.New("tessera: incomplete key")

	// ErrSchemaMismatch is returned when a record is saved through a repository of another schema.
	ErrSchemaMismatch = errors.New("tessera: record belongs to another schema")

	// ErrStaleRow is returned when the replace protocol wrote the new row but
	// failed to delete the row under the original key. Both rows exist.
	ErrStaleRow = errors.New("tessera: replaced row not removed")
)
