// Package config provides the configuration structure for namecast.
package config

import (
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied when optional settings are absent from the TOML file.
const (
	DefaultInterItemDelayMS = 500
	DefaultTimeoutSeconds   = 30
	DefaultSubjectPrefix    = "namecast"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
	CommandSubjectPrefix   string `toml:"command_subject_prefix"`
	BatchProgressSubject   string `toml:"batch_progress_subject"`
}

// OpenAISettings holds the voice configuration for the OpenAI speech provider.
type OpenAISettings struct {
	Model string  `toml:"model"`
	Voice string  `toml:"voice"`
	Speed float64 `toml:"speed"`
}

// ElevenLabsSettings holds the voice configuration for the ElevenLabs provider.
type ElevenLabsSettings struct {
	VoiceID string `toml:"voice_id"`
	ModelID string `toml:"model_id"`
}

// ProviderConfig selects and configures the active TTS provider. API keys are
// deliberately absent: they live in the session secret store only.
type ProviderConfig struct {
	Active     string             `toml:"active"`
	OpenAI     OpenAISettings     `toml:"openai"`
	ElevenLabs ElevenLabsSettings `toml:"elevenlabs"`
}

// BatchConfig holds the batch generator settings.
type BatchConfig struct {
	InterItemDelayMS int `toml:"inter_item_delay_ms"`
	TimeoutSeconds   int `toml:"timeout_seconds"`
}

// NameEntry is one first/last pairing of the configured name list.
type NameEntry struct {
	First string `toml:"first"`
	Last  string `toml:"last"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	Provider ProviderConfig `toml:"provider"`
	Batch    BatchConfig    `toml:"batch"`
	Names    []NameEntry    `toml:"names"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for namecast.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Batch.InterItemDelayMS == 0 {
		c.Batch.InterItemDelayMS = DefaultInterItemDelayMS
	}

	if c.Batch.TimeoutSeconds == 0 {
		c.Batch.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.NATS.CommandSubjectPrefix == "" {
		c.NATS.CommandSubjectPrefix = DefaultSubjectPrefix
	}

	if c.NATS.BatchProgressSubject == "" {
		c.NATS.BatchProgressSubject = c.NATS.CommandSubjectPrefix + ".batch.progress"
	}
}

// InterItemDelay returns the configured throttle delay between batch items.
func (c *Config) InterItemDelay() time.Duration {
	return time.Duration(c.Batch.InterItemDelayMS) * time.Millisecond
}

// Timeout returns the per-request timeout for provider calls.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Batch.TimeoutSeconds) * time.Second
}
