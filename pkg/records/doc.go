// Package records appends submission records to per-category stores.
//
// A category is identified by its th value. Each category holds an ordered
// list of Records; Append assigns the next id (highest existing id + 1, or 1
// for an empty category) and persists the list.
//
// Three Store implementations exist:
//   - FileStore keeps one JSON array per category in base/baseth<th>.json,
//     indented with four spaces, rewritten atomically on every append.
//   - BadgerStore keeps the same arrays in an embedded badger database.
//   - MemStore keeps them in memory.
//
// All implementations serialise appends per category, so concurrent
// submissions for the same th never lose a record or reuse an id.
package records
