// Package gemini is a minimal client for the Gemini generateContent REST API.
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

	"rootify-backend/internal/config"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"

	// upstream error bodies are passed back as details; cap what we read
	maxErrorBody = 64 * 1024
)

var (
	ErrMissingAPIKey = errors.New("gemini API key is not configured")
	ErrInvalidAPIKey = errors.New("invalid gemini API key")
	ErrEmptyPrompt   = errors.New("either a text prompt or image data is required")
	ErrNoCandidates  = errors.New("gemini returned no candidates")
)

// UpstreamError is a non-2xx answer from the API other than an auth failure.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini returned status %d", e.Status)
}

// Image is base64 data as sent by the browser.
type Image struct {
	MimeType string
	Data     string
}

type Prompt struct {
	Text  string
	Image *Image
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(cfg config.GeminiConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends one single-turn prompt and returns the model's text.
// The image part, when present, precedes the text part.
func (c *Client) Generate(ctx context.Context, p Prompt) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	var parts []part
	if p.Image != nil && p.Image.Data != "" && p.Image.MimeType != "" {
		parts = append(parts, part{InlineData: &inlineData{MimeType: p.Image.MimeType, Data: p.Image.Data}})
	}
	if p.Text != "" {
		parts = append(parts, part{Text: p.Text})
	}
	if len(parts) == 0 {
		return "", ErrEmptyPrompt
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusError(resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: blocked (%s)", ErrNoCandidates, out.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}

	var text strings.Builder
	for _, pt := range out.Candidates[0].Content.Parts {
		text.WriteString(pt.Text)
	}
	return text.String(), nil
}

func statusError(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, &UpstreamError{Status: status, Body: body})
	case status == http.StatusBadRequest && strings.Contains(body, "API_KEY_INVALID"):
		return fmt.Errorf("%w: %w", ErrInvalidAPIKey, &UpstreamError{Status: status, Body: body})
	default:
		return &UpstreamError{Status: status, Body: body}
	}
}
