package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wonderfulgo/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("GOOGLE_API_KEY is not configured")
	ErrEmptyEnvelope = errors.New("gemini response body is empty")
)

// Envelope is the decoded generateContent response, kept untyped because
// only a few nested fields are read.
type Envelope map[string]any

type Request struct {
	Model  string
	Prompt string
	// Grounded enables the google_search tool.
	Grounded bool
}

type StatusError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini %s error (%d): %s", e.Model, e.StatusCode, e.Body)
}

type textPart struct {
	Text string `json:"text"`
}

type contentBlock struct {
	Parts []textPart `json:"parts"`
}

type googleSearch struct{}

type tool struct {
	GoogleSearch *googleSearch `json:"google_search,omitempty"`
}

type generateContentRequest struct {
	Contents []contentBlock `json:"contents"`
	Tools    []tool         `json:"tools,omitempty"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(cfg.GoogleAPIKey),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/"),
		httpClient: &http.Client{
			Timeout:   cfg.AITimeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Generate performs one generateContent call against a single model. Any
// non-2xx status, transport failure or undecodable body is returned as an
// error; the caller decides whether to move on to another model.
func (c *Client) Generate(ctx context.Context, req Request) (Envelope, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("gemini model is required")
	}

	payload := generateContentRequest{
		Contents: []contentBlock{{Parts: []textPart{{Text: req.Prompt}}}},
	}
	if req.Grounded {
		payload.Tools = []tool{{GoogleSearch: &googleSearch{}}}
	}
	bodyRaw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(model) + ":generateContent?" +
		url.Values{"key": []string{c.apiKey}}.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyRaw))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, redactKey(err, c.apiKey)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &StatusError{
			Model:      model,
			StatusCode: response.StatusCode,
			Body:       truncateForLog(string(responseBody), 600),
		}
	}

	var envelope Envelope
	if err := json.Unmarshal(responseBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(envelope) == 0 {
		return nil, ErrEmptyEnvelope
	}
	return envelope, nil
}

// redactKey strips the api key from transport errors, which embed the
// request URL. The URL carries the query-escaped form of the key.
func redactKey(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	redacted := strings.ReplaceAll(msg, url.QueryEscape(apiKey), "REDACTED")
	redacted = strings.ReplaceAll(redacted, apiKey, "REDACTED")
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}

func truncateForLog(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "...(truncated)"
}
