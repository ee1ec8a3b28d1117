package store

import "github.com/google/uuid"

// NewID returns a short unique identifier for an upload/derivation batch.
// Eight hex characters of a v4 UUID give 32 bits of entropy, which is
// collision-resistant within the retention window at this service's request
// volume. Widen the slice if the birthday bound ever becomes a concern.
func NewID() string {
	return uuid.New().String()[:8]
}
