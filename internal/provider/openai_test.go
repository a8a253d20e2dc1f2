// Package provider_test tests the TTS provider adapters.
package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/namecast/namecast/internal/config"
	"github.com/namecast/namecast/internal/provider"
	"github.com/namecast/namecast/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func TestOpenAI_Synthesize_Success(t *testing.T) {
	t.Parallel()

	const testAudioData = "mock-mp3-audio-data"

	var capturedBody map[string]any

	var capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, http.MethodPost, request.Method)
			require.Equal(t, "/v1/audio/speech", request.URL.Path)

			capturedAuth = request.Header.Get("Authorization")

			err := json.NewDecoder(request.Body).Decode(&capturedBody)
			require.NoError(t, err)

			responseWriter.Header().Set("Content-Type", "audio/mpeg")
			responseWriter.WriteHeader(http.StatusOK)

			_, _ = responseWriter.Write([]byte(testAudioData))
		},
	))
	defer server.Close()

	settings := config.OpenAISettings{Model: "tts-1-hd", Voice: "nova", Speed: 1.25}
	adapter := provider.NewOpenAIWithBaseURL(settings, "sk-test", server.URL, testTimeout)

	audio, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.NoError(t, err)
	assert.Equal(t, []byte(testAudioData), audio)

	assert.Equal(t, "Bearer sk-test", capturedAuth)
	assert.Equal(t, "tts-1-hd", capturedBody["model"])
	assert.Equal(t, "Emma Watson", capturedBody["input"])
	assert.Equal(t, "nova", capturedBody["voice"])
	assert.Equal(t, "mp3", capturedBody["response_format"])
	assert.InEpsilon(t, 1.25, capturedBody["speed"], 0.001)
}

func TestOpenAI_Synthesize_AppliesDefaults(t *testing.T) {
	t.Parallel()

	var capturedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			err := json.NewDecoder(request.Body).Decode(&capturedBody)
			require.NoError(t, err)

			_, _ = responseWriter.Write([]byte("audio"))
		},
	))
	defer server.Close()

	settings := config.OpenAISettings{Model: "", Voice: "", Speed: 0}
	adapter := provider.NewOpenAIWithBaseURL(settings, "sk-test", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Claire Boucher")
	require.NoError(t, err)

	assert.Equal(t, "tts-1", capturedBody["model"])
	assert.Equal(t, "alloy", capturedBody["voice"])
	assert.InEpsilon(t, 1.0, capturedBody["speed"], 0.001)
}

func TestOpenAI_Synthesize_MissingAPIKeyMakesNoNetworkCall(t *testing.T) {
	t.Parallel()

	requested := false

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			requested = true

			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	settings := config.OpenAISettings{Model: "tts-1", Voice: "alloy", Speed: 1.0}
	adapter := provider.NewOpenAIWithBaseURL(settings, "", server.URL, testTimeout)

	require.ErrorIs(t, adapter.Validate(), provider.ErrMissingAPIKey)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.ErrorIs(t, err, provider.ErrMissingAPIKey)
	assert.False(t, requested, "no network call should be made without a credential")
}

func TestOpenAI_Synthesize_RemoteErrorExtractsMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusUnauthorized)

			_, _ = responseWriter.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
		},
	))
	defer server.Close()

	settings := config.OpenAISettings{Model: "tts-1", Voice: "alloy", Speed: 1.0}
	adapter := provider.NewOpenAIWithBaseURL(settings, "sk-bad", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.Error(t, err)

	var remoteErr *provider.RemoteError

	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", remoteErr.Message)
}

func TestOpenAI_Synthesize_EmptyBodyIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	settings := config.OpenAISettings{Model: "tts-1", Voice: "alloy", Speed: 1.0}
	adapter := provider.NewOpenAIWithBaseURL(settings, "sk-test", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.ErrorIs(t, err, provider.ErrEmptyAudio)
}

func TestOpenAI_Synthesize_EmptyTextIsError(t *testing.T) {
	t.Parallel()

	settings := config.OpenAISettings{Model: "tts-1", Voice: "alloy", Speed: 1.0}
	adapter := provider.NewOpenAI(settings, "sk-test", testTimeout)

	_, err := adapter.Synthesize(context.Background(), "")
	require.ErrorIs(t, err, provider.ErrTextEmpty)
}

func TestNew_SelectsConfiguredProvider(t *testing.T) {
	t.Parallel()

	secrets := session.New()
	secrets.Set(session.KeyOpenAI, "sk-test")

	cfg := &config.ProviderConfig{
		Active: "openai",
		OpenAI: config.OpenAISettings{Model: "tts-1", Voice: "alloy", Speed: 1.0},
		ElevenLabs: config.ElevenLabsSettings{
			VoiceID: "",
			ModelID: "",
		},
	}

	synth, err := provider.New(cfg, secrets, testTimeout)
	require.NoError(t, err)
	require.NoError(t, synth.Validate())

	cfg.Active = "browser"

	_, err = provider.New(cfg, secrets, testTimeout)
	require.ErrorIs(t, err, provider.ErrUnknownProvider)
}
