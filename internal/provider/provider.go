// Package provider implements the text-to-speech provider adapters. Each
// adapter turns (text, credentials, voice configuration) into raw audio bytes
// via one blocking remote call. Retry policy belongs to callers.
package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/namecast/namecast/internal/config"
	"github.com/namecast/namecast/internal/core"
	"github.com/namecast/namecast/internal/session"
)

// HTTP headers shared by the adapters.
const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
	contentTypeMPEG     = "audio/mpeg"
)

// Static errors. Pre-flight errors are detected before any network call.
var (
	// ErrMissingAPIKey indicates that the provider credential is not set.
	ErrMissingAPIKey = errors.New("API key is missing")
	// ErrMissingVoiceConfig indicates that a required voice or model selection is not set.
	ErrMissingVoiceConfig = errors.New("voice configuration is missing")
	// ErrTextEmpty indicates that the text to synthesize is empty.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrEmptyAudio indicates that the provider returned a success status with no audio.
	ErrEmptyAudio = errors.New("received empty audio data")
	// ErrUnknownProvider indicates that the configured provider name is not supported.
	ErrUnknownProvider = errors.New("unknown TTS provider")
)

// RemoteError reports a non-success status from a provider, with a
// best-effort message extracted from the response body.
type RemoteError struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// New selects and constructs the adapter matching the active provider
// configuration. Construction always succeeds for a known provider name;
// missing credentials or voice configuration surface later through Validate,
// so a misconfigured provider fails per-item rather than at startup.
func New(cfg *config.ProviderConfig, secrets *session.Store, timeout time.Duration) (core.Synthesizer, error) {
	switch cfg.Active {
	case "openai":
		return NewOpenAI(cfg.OpenAI, secrets.Get(session.KeyOpenAI), timeout), nil
	case "elevenlabs":
		return NewElevenLabs(cfg.ElevenLabs, secrets.Get(session.KeyElevenLabs), timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Active)
	}
}
