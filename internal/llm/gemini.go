// Package llm is the boundary to the generative-model collaborator. Prompt
// construction and response parsing belong to the callers; this package only
// moves text and images across the wire.
package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/logger"
)

// Image is an optional inline attachment for a generation call.
type Image struct {
	Data     []byte
	MIMEType string
}

// Client generates free-form text from a prompt and optional images.
// Responses are expected to contain embedded JSON but that is the caller's
// concern to extract.
type Client interface {
	Generate(ctx context.Context, prompt string, images ...Image) (string, error)
}

// GeminiClient talks to Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed client. The timeout bounds every
// call; a timed-out call is reported as a plain call failure so callers fall
// back deterministically.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Generate implements Client.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, images ...Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", apperrors.NewLLMError("generation call failed", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.NewLLMError("empty generation response", nil)
	}

	text := result.Text()
	logger.WithField("model", g.model).
		WithField("response_len", len(text)).
		Debug("LLM response received")
	return text, nil
}
