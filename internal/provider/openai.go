package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/namecast/namecast/internal/config"
)

// DefaultOpenAIBaseURL is the production OpenAI API endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com"

const openAISpeechPath = "/v1/audio/speech"

// Defaults matching the provider's documented fallbacks.
const (
	defaultOpenAIModel = "tts-1"
	defaultOpenAIVoice = "alloy"
	defaultOpenAISpeed = 1.0
)

// OpenAI implements core.Synthesizer against the OpenAI speech endpoint.
type OpenAI struct {
	settings   config.OpenAISettings
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// openAISpeechRequest is the JSON payload for the speech endpoint.
type openAISpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// openAIErrorResponse is the structured error body returned on failure.
type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAI creates an OpenAI speech adapter.
func NewOpenAI(settings config.OpenAISettings, apiKey string, timeout time.Duration) *OpenAI {
	return NewOpenAIWithBaseURL(settings, apiKey, DefaultOpenAIBaseURL, timeout)
}

// NewOpenAIWithBaseURL creates an OpenAI speech adapter pointed at a custom
// base URL. This constructor is primarily for testing against mock servers.
func NewOpenAIWithBaseURL(settings config.OpenAISettings, apiKey, baseURL string, timeout time.Duration) *OpenAI {
	if settings.Model == "" {
		settings.Model = defaultOpenAIModel
	}

	if settings.Voice == "" {
		settings.Voice = defaultOpenAIVoice
	}

	if settings.Speed == 0 {
		settings.Speed = defaultOpenAISpeed
	}

	return &OpenAI{
		settings: settings,
		apiKey:   apiKey,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Validate reports pre-flight configuration failures without any network call.
func (p *OpenAI) Validate() error {
	if p.apiKey == "" {
		return ErrMissingAPIKey
	}

	return nil
}

// Synthesize converts text to MP3 audio via one blocking call to the OpenAI
// speech endpoint.
func (p *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	validationErr := p.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	requestBody, err := json.Marshal(openAISpeechRequest{
		Model:          p.settings.Model,
		Input:          text,
		Voice:          p.settings.Voice,
		ResponseFormat: "mp3",
		Speed:          p.settings.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + openAISpeechPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI at %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, p.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// parseErrorResponse attempts to decode the structured JSON error from the
// speech endpoint. If parsing fails, the raw body is preserved as the message.
func (p *OpenAI) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errorResp openAIErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Error.Message != "" {
		return &RemoteError{
			Provider:   "OpenAI",
			StatusCode: resp.StatusCode,
			Message:    errorResp.Error.Message,
		}
	}

	return &RemoteError{
		Provider:   "OpenAI",
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}
