// Package id issues the ledger's row identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies lots, consumption records and audit rows.
type ID = uuid.UUID

// New returns a UUIDv7. Its leading millisecond timestamp makes ids sort in
// creation order, the last FIFO tie-break between lots.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	// Entropy failure only; lose ordering rather than fail the write.
	return uuid.New()
}

// Parse reads a textual id.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}

// MustParse is Parse for literals in tests.
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func IsNil(v ID) bool { return v == uuid.Nil }
