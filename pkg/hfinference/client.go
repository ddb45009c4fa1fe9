// Package hfinference is a minimal client for HuggingFace-style
// text-generation inference endpoints.
package hfinference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/paperdesk/papermeta/internal/resilience"
)

const (
	// DefaultTimeout bounds a single generation request. Inference
	// endpoints routinely take tens of seconds on cold starts.
	DefaultTimeout = 90 * time.Second

	DefaultMaxNewTokens = 512
	DefaultTemperature  = 0.3
)

// Params are the generation parameters sent with each request. Zero values
// fall back to the package defaults.
type Params struct {
	MaxNewTokens int
	Temperature  float64
}

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("hfinference: endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Client calls a text-generation inference endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the inference endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for the given endpoint. apiKey may be empty for
// endpoints that do not require authentication.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends prompt to the endpoint and returns the generated text.
// Transport failures and retryable statuses are wrapped as transient so
// callers can back off and retry; other failures are permanent.
func (c *Client) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if p.MaxNewTokens <= 0 {
		p.MaxNewTokens = DefaultMaxNewTokens
	}
	if p.Temperature <= 0 {
		p.Temperature = DefaultTemperature
	}

	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens: p.MaxNewTokens,
			Temperature:  p.Temperature,
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "hfinference: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "hfinference: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "hfinference: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "hfinference: read response"), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(httpErr, resp.StatusCode)
		}
		return "", httpErr
	}

	return decodeGeneratedText(respBody)
}

// decodeGeneratedText handles both response envelopes the inference API
// uses: a single object and an array of objects, each carrying
// generated_text.
func decodeGeneratedText(body []byte) (string, error) {
	var list []generateResponse
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", eris.New("hfinference: empty response array")
		}
		return list[0].GeneratedText, nil
	}

	var single generateResponse
	if err := json.Unmarshal(body, &single); err != nil {
		return "", eris.Wrap(err, "hfinference: decode response")
	}
	return single.GeneratedText, nil
}
