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

// DefaultElevenLabsBaseURL is the production ElevenLabs API endpoint.
const DefaultElevenLabsBaseURL = "https://api.elevenlabs.io"

const (
	elevenLabsSpeechPathFormat = "/v1/text-to-speech/%s"
	headerXIAPIKey             = "xi-api-key"
	defaultElevenLabsModelID   = "eleven_monolingual_v1"
)

// ElevenLabs implements core.Synthesizer against the ElevenLabs
// text-to-speech endpoint.
type ElevenLabs struct {
	settings   config.ElevenLabsSettings
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// elevenLabsSpeechRequest is the JSON payload for the per-voice endpoint.
type elevenLabsSpeechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// elevenLabsErrorResponse covers the two error body shapes the API returns:
// {"detail": {"message": "..."}} and {"detail": "..."}.
type elevenLabsErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// NewElevenLabs creates an ElevenLabs adapter.
func NewElevenLabs(settings config.ElevenLabsSettings, apiKey string, timeout time.Duration) *ElevenLabs {
	return NewElevenLabsWithBaseURL(settings, apiKey, DefaultElevenLabsBaseURL, timeout)
}

// NewElevenLabsWithBaseURL creates an ElevenLabs adapter pointed at a custom
// base URL. This constructor is primarily for testing against mock servers.
func NewElevenLabsWithBaseURL(settings config.ElevenLabsSettings, apiKey, baseURL string, timeout time.Duration) *ElevenLabs {
	if settings.ModelID == "" {
		settings.ModelID = defaultElevenLabsModelID
	}

	return &ElevenLabs{
		settings: settings,
		apiKey:   apiKey,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Validate reports pre-flight configuration failures without any network
// call. The voice ID is required by the endpoint path, so an unset voice is a
// local error rather than a remote one.
func (p *ElevenLabs) Validate() error {
	if p.apiKey == "" {
		return ErrMissingAPIKey
	}

	if p.settings.VoiceID == "" {
		return fmt.Errorf("%w: voice_id is required", ErrMissingVoiceConfig)
	}

	return nil
}

// Synthesize converts text to MP3 audio via one blocking call to the
// per-voice ElevenLabs endpoint.
func (p *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	validationErr := p.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	requestBody, err := json.Marshal(elevenLabsSpeechRequest{
		Text:    text,
		ModelID: p.settings.ModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + fmt.Sprintf(elevenLabsSpeechPathFormat, p.settings.VoiceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMPEG)
	httpReq.Header.Set(headerXIAPIKey, p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to ElevenLabs at %s: %w", p.baseURL, err)
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

// parseErrorResponse extracts a best-effort message from the error body,
// handling both the nested-object and plain-string detail shapes.
func (p *ElevenLabs) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	remoteErr := &RemoteError{
		Provider:   "ElevenLabs",
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}

	var errorResp elevenLabsErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err != nil || len(errorResp.Detail) == 0 {
		return remoteErr
	}

	var detailObject struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(errorResp.Detail, &detailObject) == nil && detailObject.Message != "" {
		remoteErr.Message = detailObject.Message

		return remoteErr
	}

	var detailString string

	if json.Unmarshal(errorResp.Detail, &detailString) == nil && detailString != "" {
		remoteErr.Message = detailString
	}

	return remoteErr
}
