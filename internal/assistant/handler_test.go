package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rootify-backend/internal/config"
	"rootify-backend/internal/gemini"
	"rootify-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	configured bool
	reply      string
	err        error
	got        *gemini.Prompt
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) Generate(_ context.Context, p gemini.Prompt) (string, error) {
	f.got = &p
	return f.reply, f.err
}

func newApp(gen Generator) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Post("/ask-gemini", AskGeminiHandler(gen, logging.Discard()))
	return app
}

func ask(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask-gemini", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

const multimodal = `{"contents":[{"role":"user","parts":[
	{"text":"first"},
	{"inlineData":{"mimeType":"image/jpeg","data":"AAAA"}},
	{"text":"What soil is this?"}
]}]}`

func TestAskGemini_OK(t *testing.T) {
	gen := &fakeGenerator{configured: true, reply: "Clay loam."}
	status, out := ask(t, newApp(gen), multimodal)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Clay loam.", out["response"])
	require.NotNil(t, gen.got)
	assert.Equal(t, "What soil is this?", gen.got.Text)
	require.NotNil(t, gen.got.Image)
	assert.Equal(t, "image/jpeg", gen.got.Image.MimeType)
}

func TestAskGemini_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		body    string
		status  int
		message string
		details string
	}{
		{
			name:    "no key",
			gen:     &fakeGenerator{},
			body:    multimodal,
			status:  http.StatusInternalServerError,
			message: "Server configuration error: Gemini API Key is not set.",
		},
		{
			name:    "empty prompt",
			gen:     &fakeGenerator{configured: true},
			body:    `{"contents":[{"parts":[{"text":""}]}]}`,
			status:  http.StatusBadRequest,
			message: "Either a text prompt or image data is required.",
		},
		{
			name:    "no contents",
			gen:     &fakeGenerator{configured: true},
			body:    `{}`,
			status:  http.StatusBadRequest,
			message: "Either a text prompt or image data is required.",
		},
		{
			name:    "upstream failure",
			gen:     &fakeGenerator{configured: true, err: &gemini.UpstreamError{Status: 503, Body: "overloaded"}},
			body:    multimodal,
			status:  http.StatusInternalServerError,
			message: "Failed to get a response from the AI model.",
			details: "overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := ask(t, newApp(tt.gen), tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, out["error"])
			if tt.details != "" {
				assert.Equal(t, tt.details, out["details"])
			}
		})
	}
}

func TestAskGemini_InvalidKeyIsForbidden(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"PERMISSION_DENIED"}`))
	}))
	defer upstream.Close()

	client := gemini.NewClient(config.GeminiConfig{APIKey: "test-key", BaseURL: upstream.URL, Timeout: 5 * time.Second})
	status, out := ask(t, newApp(client), multimodal)

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Authentication failed: Invalid or missing Gemini API Key, or insufficient permissions.", out["error"])
	assert.Equal(t, `{"error":"PERMISSION_DENIED"}`, out["details"])
}
