package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

const probePrompt = "Hello, please respond with 'API test successful'"

// candidateModels are tried in order: the fast, cheap variant first, then
// the higher-capability one.
var candidateModels = []string{"gemini-1.5-flash", "gemini-1.5-pro"}

// UpstreamHealth reports the outcome of probing the hosted model provider.
// It is passed through the request-handling chain rather than kept in
// package state, so each request decides live-vs-fallback on its own.
type UpstreamHealth struct {
	Available bool
	Model     string
	Err       error
}

// Completer is the hosted-model boundary consumed by the completion
// endpoint. Tests substitute a fake implementation.
type Completer interface {
	// Probe checks connectivity and model availability, trying the known
	// model identifiers in sequence until one responds.
	Probe(ctx context.Context) UpstreamHealth

	// StreamCompletion requests a streaming completion from the given model
	// and invokes onFragment for each incremental text fragment.
	StreamCompletion(ctx context.Context, model, prompt string, onFragment func(string) error) error
}

// GeminiService handles communication with the Gemini API.
type GeminiService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewGeminiService creates a new Gemini service. It fails fast when the API
// key is absent so a misconfigured deployment is caught at startup.
func NewGeminiService(apiKey string, log *slog.Logger) (*GeminiService, error) {
	return NewGeminiServiceWithBaseURL(apiKey, geminiAPIBase, log)
}

// NewGeminiServiceWithBaseURL creates a service pointed at a custom API
// base URL.
func NewGeminiServiceWithBaseURL(apiKey, baseURL string, log *slog.Logger) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is missing or invalid")
	}
	return &GeminiService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     log,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// text joins the text parts of the first candidate.
func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// Probe tries each known model with a one-shot generation until one
// answers. The returned health value carries the model to use for the
// live stream.
func (s *GeminiService) Probe(ctx context.Context) UpstreamHealth {
	var lastErr error
	for _, model := range candidateModels {
		if err := s.generate(ctx, model, probePrompt); err != nil {
			s.logUpstreamError(model, err)
			lastErr = err
			continue
		}
		return UpstreamHealth{Available: true, Model: model}
	}
	return UpstreamHealth{Err: lastErr}
}

// generate performs a non-streaming completion, used by the probe.
func (s *GeminiService) generate(ctx context.Context, model, prompt string) error {
	body, err := s.post(ctx, fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, model), prompt)
	if err != nil {
		return err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("gemini API error: %s", resp.Error.Message)
	}
	return nil
}

// StreamCompletion requests a streaming completion and relays each text
// fragment to onFragment. The response body is a server-sent-event stream
// of JSON payloads; malformed lines are skipped as partial frames.
func (s *GeminiService) StreamCompletion(ctx context.Context, model, prompt string, onFragment func(string) error) error {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", s.baseURL, model)
	body, err := s.post(ctx, url, prompt)
	if err != nil {
		return err
	}
	defer body.Close()

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if fragment, ok := decodeStreamLine(line); ok && fragment != "" {
				if cbErr := onFragment(fragment); cbErr != nil {
					return cbErr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// decodeStreamLine extracts the text fragment from one SSE line. Lines
// without the data prefix or with unparseable JSON carry no fragment.
func decodeStreamLine(line string) (string, bool) {
	data, found := strings.CutPrefix(strings.TrimSpace(line), "data: ")
	if !found {
		return "", false
	}
	var resp geminiResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return "", false
	}
	return resp.text(), true
}

// post issues a completion request and returns the response body, or an
// error for any non-success status.
func (s *GeminiService) post(ctx context.Context, url, prompt string) (io.ReadCloser, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(raw))
	}
	return resp.Body, nil
}

// logUpstreamError classifies provider failures for logging only; every
// flavor degrades to the same fallback behavior.
func (s *GeminiService) logUpstreamError(model string, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API_KEY") || strings.Contains(msg, "authentication"):
		s.log.Warn("Gemini authentication error", "model", model, "error", err)
	case strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		s.log.Warn("Gemini quota exceeded", "model", model, "error", err)
	case strings.Contains(msg, "not found") || strings.Contains(msg, "NOT_FOUND"):
		s.log.Warn("Gemini model not found", "model", model, "error", err)
	default:
		s.log.Warn("Gemini request failed", "model", model, "error", err)
	}
}
