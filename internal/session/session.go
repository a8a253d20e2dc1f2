// Package session holds provider credentials for the lifetime of one process.
// Keys are seeded from the environment at startup and are deliberately never
// written to the config file, the durable audio cache, or exported archives.
package session

import (
	"os"
	"sync"
)

// Fixed secret names.
const (
	// KeyOpenAI names the OpenAI API key secret.
	KeyOpenAI = "openai_api_key"
	// KeyElevenLabs names the ElevenLabs API key secret.
	KeyElevenLabs = "elevenlabs_api_key"
)

// Environment variables the secrets are seeded from.
const (
	envOpenAIAPIKey     = "OPENAI_API_KEY"
	envElevenLabsAPIKey = "ELEVENLABS_API_KEY"
)

// Store is an ephemeral, process-scoped secret store.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates an empty secret store.
func New() *Store {
	return &Store{
		mu:     sync.RWMutex{},
		values: make(map[string]string),
	}
}

// FromEnv creates a secret store seeded with the provider API keys found in
// the environment. Missing variables simply leave the secret unset; the
// provider adapters report that as a pre-flight validation error.
func FromEnv() *Store {
	store := New()

	if key := os.Getenv(envOpenAIAPIKey); key != "" {
		store.Set(KeyOpenAI, key)
	}

	if key := os.Getenv(envElevenLabsAPIKey); key != "" {
		store.Set(KeyElevenLabs, key)
	}

	return store
}

// Get returns the secret for the given name, or the empty string when unset.
func (s *Store) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values[name]
}

// Set stores a secret under the given name.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[name] = value
}

// Delete removes the secret for the given name.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, name)
}

// Clear removes every secret.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]string)
}
