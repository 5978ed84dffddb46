package persist

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// CurrentVersion is the version of the collection envelope.
// Increment when making breaking changes to the format.
const CurrentVersion = 1

// envelope is the stored form of a collection: its element values in
// order, tagged with the format version.
type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// EncodeValues serializes values in order.
func EncodeValues[T any](values []T) ([]byte, error) {
	if values == nil {
		values = []T{}
	}
	data, err := json.Marshal(envelope[T]{Version: CurrentVersion, Items: values})
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return data, nil
}

// EncodeVector reads every element of v through fr and serializes the
// values. Called from a subscription, this makes the subscription depend on
// the sequence and on every element.
func EncodeVector[T any](fr *cellgraph.Frame, v cellgraph.Vector[T]) ([]byte, error) {
	return EncodeValues(v.Values(fr))
}

// DecodeValues parses data written by EncodeValues. Any malformed payload
// or unknown version is reported as ErrCorrupt.
func DecodeValues[T any](data []byte) ([]T, error) {
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}
	return env.Items, nil
}
