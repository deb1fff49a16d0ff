package factory

import (
	"fmt"

	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/llm/anthropic"
	"ai-research-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "anthropic":
		return anthropic.NewAnthropicProvider(apiKey, modelName)
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
