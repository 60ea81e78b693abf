package client

import (
	"fmt"

	"github.com/vidscribe/api/internal/config"
	"github.com/vidscribe/api/internal/pipeline"
)

// NewLLM builds the completion client for a provider. Empty provider and
// model fall back to the configured defaults.
func NewLLM(cfg *config.LLMConfig, provider, model string) (pipeline.LLM, error) {
	if provider == "" {
		provider = cfg.Provider
	}
	switch provider {
	case "groq":
		c := NewGroqClient(cfg, model)
		if !c.IsConfigured() {
			return nil, fmt.Errorf("groq API key not configured")
		}
		return c, nil
	case "google":
		c := NewGeminiClient(cfg, model)
		if !c.IsConfigured() {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", provider)
}
