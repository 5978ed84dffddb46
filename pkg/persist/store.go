package persist

import (
	"context"
	"errors"
)

// Store is a key-value persistence backend for encoded graph state.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the bytes stored under key.
	// Returns (nil, nil) if nothing is stored.
	// Returns (nil, err) on backend errors.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
type ErrStoreClosed struct{}

func (e ErrStoreClosed) Error() string {
	return "persist: store is closed"
}

// ErrCorrupt is returned by the codec when stored bytes cannot be decoded.
var ErrCorrupt = errors.New("persist: corrupt payload")
