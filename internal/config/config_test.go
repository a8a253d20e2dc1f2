// Package config_test tests the configuration loading for namecast.
package config_test

import (
	"testing"

	"github.com/namecast/namecast/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigUnmarshal(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
audio_object_store_bucket = "NAMECAST_AUDIO"
command_subject_prefix = "namecast"
batch_progress_subject = "namecast.batch.progress"

[provider]
active = "openai"

[provider.openai]
model = "tts-1"
voice = "alloy"
speed = 1.0

[provider.elevenlabs]
voice_id = "21m00Tcm4TlvDq8ikWAM"
model_id = "eleven_monolingual_v1"

[batch]
inter_item_delay_ms = 500
timeout_seconds = 30

[[names]]
first = "Emma"
last = "Watson"

[[names]]
first = "Claire"
last = "Boucher"

[paths]
base_logs_dir = "/tmp/namecast-logs"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "NAMECAST_AUDIO", cfg.NATS.AudioObjectStoreBucket)
	assert.Equal(t, "namecast", cfg.NATS.CommandSubjectPrefix)
	assert.Equal(t, "namecast.batch.progress", cfg.NATS.BatchProgressSubject)
	assert.Equal(t, "openai", cfg.Provider.Active)
	assert.Equal(t, "tts-1", cfg.Provider.OpenAI.Model)
	assert.Equal(t, "alloy", cfg.Provider.OpenAI.Voice)
	assert.InEpsilon(t, 1.0, cfg.Provider.OpenAI.Speed, 0.001)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.Provider.ElevenLabs.VoiceID)
	assert.Equal(t, "eleven_monolingual_v1", cfg.Provider.ElevenLabs.ModelID)
	assert.Equal(t, 500, cfg.Batch.InterItemDelayMS)
	assert.Equal(t, 30, cfg.Batch.TimeoutSeconds)
	require.Len(t, cfg.Names, 2)
	assert.Equal(t, "Emma", cfg.Names[0].First)
	assert.Equal(t, "Boucher", cfg.Names[1].Last)
	assert.Equal(t, "/tmp/namecast-logs", cfg.Paths.BaseLogsDir)
}
