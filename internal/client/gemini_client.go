package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vidscribe/api/internal/config"
	"github.com/vidscribe/api/internal/pipeline"
)

// GeminiClient handles communication with the Gemini API.
type GeminiClient struct {
	apiKey string
	model  string
}

// NewGeminiClient creates a new Gemini client. An empty model falls back to
// the configured default.
func NewGeminiClient(cfg *config.LLMConfig, model string) *GeminiClient {
	if model == "" {
		model = cfg.GeminiModel
	}
	return &GeminiClient{
		apiKey: cfg.GeminiAPIKey,
		model:  model,
	}
}

// Complete generates a plain text completion.
func (c *GeminiClient) Complete(ctx context.Context, messages []pipeline.Message) (string, error) {
	return c.generate(ctx, messages, nil)
}

// CompleteStructured asks Gemini for a JSON response and decodes it into out.
func (c *GeminiClient) CompleteStructured(ctx context.Context, messages []pipeline.Message, out any) error {
	text, err := c.generate(ctx, messages, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, messages []pipeline.Message, genCfg *genai.GenerateContentConfig) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	// Gemini takes the system prompt out of band; user turns become the prompt.
	var system, prompt []string
	for _, m := range messages {
		if m.Role == pipeline.RoleSystem {
			system = append(system, m.Content)
		} else {
			prompt = append(prompt, m.Content)
		}
	}
	if len(system) > 0 {
		if genCfg == nil {
			genCfg = &genai.GenerateContentConfig{}
		}
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(strings.Join(prompt, "\n\n")), genCfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

// IsConfigured returns true if the client has valid configuration
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}
