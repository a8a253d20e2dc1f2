package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/namecast/namecast/internal/config"
	"github.com/namecast/namecast/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevenLabs_Synthesize_Success(t *testing.T) {
	t.Parallel()

	const testAudioData = "mock-mp3-audio-data"

	var capturedBody map[string]any

	var capturedAPIKey, capturedAccept string

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			require.Equal(t, http.MethodPost, request.Method)
			require.Equal(t, "/v1/text-to-speech/voice-rachel", request.URL.Path)

			capturedAPIKey = request.Header.Get("xi-api-key")
			capturedAccept = request.Header.Get("Accept")

			err := json.NewDecoder(request.Body).Decode(&capturedBody)
			require.NoError(t, err)

			responseWriter.Header().Set("Content-Type", "audio/mpeg")
			responseWriter.WriteHeader(http.StatusOK)

			_, _ = responseWriter.Write([]byte(testAudioData))
		},
	))
	defer server.Close()

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: "eleven_multilingual_v2"}
	adapter := provider.NewElevenLabsWithBaseURL(settings, "xi-test", server.URL, testTimeout)

	audio, err := adapter.Synthesize(context.Background(), "Claire Boucher")
	require.NoError(t, err)
	assert.Equal(t, []byte(testAudioData), audio)

	assert.Equal(t, "xi-test", capturedAPIKey)
	assert.Equal(t, "audio/mpeg", capturedAccept)
	assert.Equal(t, "Claire Boucher", capturedBody["text"])
	assert.Equal(t, "eleven_multilingual_v2", capturedBody["model_id"])
}

func TestElevenLabs_Synthesize_DefaultModelID(t *testing.T) {
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

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: ""}
	adapter := provider.NewElevenLabsWithBaseURL(settings, "xi-test", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.NoError(t, err)

	assert.Equal(t, "eleven_monolingual_v1", capturedBody["model_id"])
}

func TestElevenLabs_Validate_MissingVoiceID(t *testing.T) {
	t.Parallel()

	settings := config.ElevenLabsSettings{VoiceID: "", ModelID: ""}
	adapter := provider.NewElevenLabs(settings, "xi-test", testTimeout)

	require.ErrorIs(t, adapter.Validate(), provider.ErrMissingVoiceConfig)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")
	require.ErrorIs(t, err, provider.ErrMissingVoiceConfig)
}

func TestElevenLabs_Validate_MissingAPIKey(t *testing.T) {
	t.Parallel()

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: ""}
	adapter := provider.NewElevenLabs(settings, "", testTimeout)

	require.ErrorIs(t, adapter.Validate(), provider.ErrMissingAPIKey)
}

func TestElevenLabs_Synthesize_DetailObjectMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusUnauthorized)

			_, _ = responseWriter.Write([]byte(`{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`))
		},
	))
	defer server.Close()

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: ""}
	adapter := provider.NewElevenLabsWithBaseURL(settings, "xi-bad", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")

	var remoteErr *provider.RemoteError

	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Equal(t, "Invalid API key", remoteErr.Message)
}

func TestElevenLabs_Synthesize_DetailStringMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "application/json")
			responseWriter.WriteHeader(http.StatusTooManyRequests)

			_, _ = responseWriter.Write([]byte(`{"detail":"Rate limit exceeded"}`))
		},
	))
	defer server.Close()

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: ""}
	adapter := provider.NewElevenLabsWithBaseURL(settings, "xi-test", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")

	var remoteErr *provider.RemoteError

	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusTooManyRequests, remoteErr.StatusCode)
	assert.Equal(t, "Rate limit exceeded", remoteErr.Message)
}

func TestElevenLabs_Synthesize_NonJSONErrorBodyPreserved(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusBadGateway)

			_, _ = responseWriter.Write([]byte("upstream unavailable"))
		},
	))
	defer server.Close()

	settings := config.ElevenLabsSettings{VoiceID: "voice-rachel", ModelID: ""}
	adapter := provider.NewElevenLabsWithBaseURL(settings, "xi-test", server.URL, testTimeout)

	_, err := adapter.Synthesize(context.Background(), "Emma Watson")

	var remoteErr *provider.RemoteError

	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "upstream unavailable", remoteErr.Message)
}
