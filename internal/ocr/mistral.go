package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "pixtral-large-latest"
)

// Mistral performs whole-document OCR through the Mistral OCR API. It is the
// rasterized fallback for documents whose text layer is entirely absent.
type Mistral struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

// MistralOption configures the Mistral engine.
type MistralOption func(*Mistral)

// WithMistralEndpoint sets a custom endpoint (for testing).
func WithMistralEndpoint(url string) MistralOption {
	return func(m *Mistral) {
		m.endpoint = url
	}
}

// WithMistralHTTPClient sets a custom HTTP client.
func WithMistralHTTPClient(hc *http.Client) MistralOption {
	return func(m *Mistral) {
		m.http = hc
	}
}

// NewMistral creates a Mistral OCR engine. If model is empty, the default is used.
func NewMistral(apiKey, model string, opts ...MistralOption) *Mistral {
	if model == "" {
		model = defaultMistralModel
	}
	m := &Mistral{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type mistralRequest struct {
	Model    string          `json:"model"`
	Document mistralDocument `json:"document"`
}

type mistralDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralResponse struct {
	Pages []mistralPage `json:"pages"`
}

type mistralPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// DocumentText uploads the PDF as a base64 data URL and returns the OCR text
// of all pages joined with newlines, in page order.
func (m *Mistral) DocumentText(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	reqBody := mistralRequest{
		Model: m.model,
		Document: mistralDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var ocrResp mistralResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	var parts []string
	for _, page := range ocrResp.Pages {
		if text := strings.TrimSpace(page.Markdown); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n"), nil
}
