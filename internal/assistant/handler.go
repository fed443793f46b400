// Package assistant serves the multimodal AI proxy endpoint.
package assistant

import (
	"context"
	"errors"

	"rootify-backend/internal/gemini"
	"rootify-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
)

type Generator interface {
	Configured() bool
	Generate(ctx context.Context, p gemini.Prompt) (string, error)
}

type AskRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

// prompt flattens the first content entry. Later parts overwrite earlier ones.
func (r AskRequest) prompt() gemini.Prompt {
	var p gemini.Prompt
	if len(r.Contents) == 0 {
		return p
	}
	for _, part := range r.Contents[0].Parts {
		if part.Text != "" {
			p.Text = part.Text
		}
		if part.InlineData != nil && part.InlineData.Data != "" {
			p.Image = &gemini.Image{MimeType: part.InlineData.MimeType, Data: part.InlineData.Data}
		}
	}
	return p
}

// POST /ask-gemini
func AskGeminiHandler(gen Generator, log logging.Logger) fiber.Handler {
	log = log.With("component", "assistant")

	return func(c *fiber.Ctx) error {
		if !gen.Configured() {
			log.Error(c.UserContext(), "ask-gemini called without an API key")
			return fiber.NewError(fiber.StatusInternalServerError, "Server configuration error: Gemini API Key is not set.")
		}

		var body AskRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		p := body.prompt()
		if p.Text == "" && p.Image == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Either a text prompt or image data is required.")
		}

		text, err := gen.Generate(c.UserContext(), p)
		if err != nil {
			return generateError(c, log, err)
		}

		return c.JSON(fiber.Map{
			"response": text,
		})
	}
}

func generateError(c *fiber.Ctx, log logging.Logger, err error) error {
	var ue *gemini.UpstreamError
	details := err.Error()
	if errors.As(err, &ue) {
		details = ue.Body
	}

	if errors.Is(err, gemini.ErrInvalidAPIKey) {
		log.Error(c.UserContext(), "gemini rejected the API key", "details", details)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Authentication failed: Invalid or missing Gemini API Key, or insufficient permissions.",
			"details": details,
		})
	}

	log.Error(c.UserContext(), "gemini call failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Failed to get a response from the AI model.",
		"details": details,
	})
}
