// README: Common value objects shared across modules.
package types

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
)

type ID string

type Money struct {
	Amount   int64 // minor units (cents)
	Currency string
}

// NewID returns a lexicographically sortable unique identifier.
func NewID() ID {
	return ID(ulid.MustNew(ulid.Now(), rand.Reader).String())
}

// NormalizePlace canonicalizes a free-text place name so that two spellings
// of the same place compare equal ("Paris " == "paris").
func NormalizePlace(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SamePlace reports whether two free-text place names refer to the same
// normalized place.
func SamePlace(a, b string) bool {
	return NormalizePlace(a) == NormalizePlace(b)
}
