package store

import "github.com/google/uuid"

// IDGenerator produces primary keys for saved filter records.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so record ids
// sort roughly by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SetIDGenerator replaces the generator used by SaveFilter. A nil g restores
// the UUIDv7 default.
func (s *Store) SetIDGenerator(g IDGenerator) {
	if g == nil {
		g = UUIDv7Generator{}
	}
	s.ids = g
}
