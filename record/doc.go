// Package record persists records whose identity is a composite key.
//
// A [Schema] describes a record type: its table, partition and clustering
// columns, attribute casts and lifecycle listeners. A [Repository] loads and
// saves [Record] values of one schema through a [query.Engine].
//
// # Saving
//
// [Repository.Save] classifies the record once and takes one of four paths:
//
//   - new record: insert, then mark it as existing
//   - existing, unchanged: nothing is written
//   - existing, only non-key attributes changed: a single UPDATE addressed by the key
//   - existing, a key attribute changed: the replace protocol
//
// Key columns cannot be changed in place, so the replace protocol inserts the
// row under its new key and then deletes the row under its original key.
// Creating/created and deleting/deleted listeners are silenced while it runs;
// updating and updated fire around it. The two steps are not atomic: if the
// process stops between them, both rows remain and the old row must be
// removed by the caller. Replaces of the same schema are serialized.
//
// # Equivalence
//
// An attribute is dirty when its current value is not equivalent to the one
// last loaded or saved. Temporal wrappers from package value compare by their
// primitive, dates compare at second precision, floats within a small
// tolerance, JSON and collection casts by canonical encoding, and numbers by
// their string form.
package record
