package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key. Adapters return it verbatim so the
// persistence layer can tell "no snapshot yet" from a backend failure.
var ErrNotFound = errors.New("storage: key not found")

// Adapter is the uniform key-value contract the persistence manager
// writes through. Implementations may do real I/O, so every operation
// accepts a context.
//
// Adapters surface failures as errors; normalizing them into the
// "log and report false/nil" behavior the host sees is owned by the
// persistence manager, not by adapters.
type Adapter interface {
	// IsAvailable reports whether the backend can currently serve
	// requests. Best-effort; a true result is not a guarantee.
	IsAvailable(ctx context.Context) bool

	// GetItem returns the value stored under key, or ErrNotFound
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem stores value under key, replacing any previous value
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}
