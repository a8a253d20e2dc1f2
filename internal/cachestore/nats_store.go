// Package cachestore provides a NATS JetStream object-store implementation of
// the durable audio cache.
package cachestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/namecast/namecast/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsAudioStore implements the core.AudioStore interface using a NATS
// JetStream object-store bucket. Each cached utterance is stored as one
// object whose name is the exact permutation text and whose payload is the
// opaque audio blob. Writes are last-write-wins per object.
type NatsAudioStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates and initializes a new NatsAudioStore.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsAudioStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Cached narration audio for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing audio cache bucket '%s': %w", bucketName, err)
			}
		} else {
			// For any other error, fail.
			return nil, fmt.Errorf("failed to create audio cache bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsAudioStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Get retrieves the cached audio for the given text. A missing entry is
// reported as core.ErrNotFound, never as a panic or a storage failure.
func (n *NatsAudioStore) Get(_ context.Context, text string) ([]byte, error) {
	obj, err := n.store.Get(text)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %q", core.ErrNotFound, text)
		}

		return nil, fmt.Errorf("%w: failed to get audio for %q from bucket '%s': %w", core.ErrStorage, text, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("%w: failed to read audio for %q: %w", core.ErrStorage, text, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("%w: failed to close audio object %q: %w", core.ErrStorage, text, closeErr)
	}

	return data, nil
}

// Put saves an audio payload under the given text, overwriting any previous
// entry for the same text.
func (n *NatsAudioStore) Put(_ context.Context, text string, payload []byte) error {
	reader := bytes.NewReader(payload)

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:        text,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to put audio for %q to bucket '%s': %w", core.ErrStorage, text, n.bucket, err)
	}

	return nil
}

// Delete removes the entry for the given text. Deleting a missing entry is
// not an error.
func (n *NatsAudioStore) Delete(_ context.Context, text string) error {
	err := n.store.Delete(text)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil
		}

		return fmt.Errorf("%w: failed to delete audio for %q: %w", core.ErrStorage, text, err)
	}

	return nil
}

// Clear removes every entry from the cache. Irreversible.
func (n *NatsAudioStore) Clear(ctx context.Context) error {
	keys, err := n.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		deleteErr := n.Delete(ctx, key)
		if deleteErr != nil {
			return deleteErr
		}
	}

	return nil
}

// Count returns the number of cached entries.
func (n *NatsAudioStore) Count(ctx context.Context) (int, error) {
	keys, err := n.Keys(ctx)
	if err != nil {
		return 0, err
	}

	return len(keys), nil
}

// Keys returns the text keys of all cached entries.
func (n *NatsAudioStore) Keys(_ context.Context) ([]string, error) {
	infos, err := n.store.List()
	if err != nil {
		if errors.Is(err, nats.ErrNoObjectsFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: failed to list bucket '%s': %w", core.ErrStorage, n.bucket, err)
	}

	keys := make([]string, 0, len(infos))

	for _, info := range infos {
		if info.Deleted {
			continue
		}

		keys = append(keys, info.Name)
	}

	return keys, nil
}
