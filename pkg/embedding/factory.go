package embedding

import "fmt"

func NewEmbeddingProvider(providerType, ollamaBaseURL, ollamaModel, geminiApiKey string) (EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434"
		}
		return NewOllamaProvider(ollamaBaseURL, ollamaModel), nil
	case "gemini":
		if geminiApiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an API key")
		}
		return NewGeminiProvider(geminiApiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
