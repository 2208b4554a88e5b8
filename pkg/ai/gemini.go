package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-1.5-flash"

// Generator defines the interface for text generation
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient wraps the Gemini API client
type GeminiClient struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
}

// Ensure GeminiClient implements Generator
var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a new Gemini client tuned for short deterministic
// replies.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiDefaultModel)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(32)

	return &GeminiClient{
		genaiClient: client,
		model:       model,
	}, nil
}

// Close closes the client
func (c *GeminiClient) Close() error {
	return c.genaiClient.Close()
}

// GenerateText generates text from a prompt
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return sb.String(), nil
}
