// Package ir provides the literal value types shared by predicates, the SQL
// compiler and the store.
//
// ir imports nothing internal. Every other package may import it.
//
// Key constraints:
//   - NO float types (use int64); floats break canonical hashing
//   - Strings are NFC normalized at the canonical serialization boundary
//   - Canonical JSON keys are ordered by UTF-16 code units (RFC 8785)
package ir
