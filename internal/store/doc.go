// Package store provides SQLite-backed storage for named filter snapshots.
//
// A saved filter records what a combiner held at the time of saving:
//   - where_text: the rendered display form, e.g. "(A=1 OR B=2) AND C=3"
//   - sql: the parameterized WHERE body compiled by querysql
//   - params: the SQL arguments as canonical JSON
//   - hash: a content address over all three
//
// # Idempotency
//
// UNIQUE(name, hash) makes saving the same content under the same name a
// no-op. Saving new content under an existing name adds a record with a
// higher seq; LoadFilter returns the latest one.
//
// # Ordering
//
// seq is a logical counter, never a timestamp. Every multi-row query orders
// by "seq, id COLLATE BINARY ASC".
//
// # Evaluation
//
// Count and CountSaved run a filter against any table in the same database.
// Unclosed groups are evaluated as if closed; saving a filter with unclosed
// groups fails with ErrOpenGroup.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - user_version tracks schema migrations
package store
