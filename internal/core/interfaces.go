// Package core defines the core business logic and interfaces for namecast.
package core

import (
	"context"
	"errors"
)

// Static errors shared by storage implementations and their callers.
var (
	// ErrNotFound indicates that no audio is cached under the requested text.
	ErrNotFound = errors.New("audio not found in cache")
	// ErrStorage indicates that the underlying storage engine rejected an operation.
	ErrStorage = errors.New("audio cache storage failure")
)

// AudioStore defines the interface for the durable audio cache: an opaque-blob
// key-value store keyed by the exact permutation text.
type AudioStore interface {
	Get(ctx context.Context, text string) ([]byte, error)
	Put(ctx context.Context, text string, payload []byte) error
	Delete(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Keys(ctx context.Context) ([]string, error)
}

// Synthesizer defines the interface for a text-to-speech provider adapter.
// Validate reports missing credentials or voice configuration without making
// any network call; Synthesize performs one blocking remote call and returns
// the raw audio payload. Adapters never write to the AudioStore themselves;
// persistence belongs to the batch generator.
type Synthesizer interface {
	Validate() error
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
