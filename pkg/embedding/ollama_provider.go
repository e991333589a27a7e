package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

func NewOllamaProvider(baseURL, modelName string) EmbeddingProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// Ollama has no task-type notion; the hint is accepted and ignored.
	reqPayload := ollamaEmbedRequest{
		Model:  p.ModelName,
		Prompt: text,
	}
	payloadJson, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/embeddings", bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error, code %d, body %s", res.StatusCode, string(resBody))
	}

	var embedRes ollamaEmbedResponse
	if err := json.Unmarshal(resBody, &embedRes); err != nil {
		return nil, err
	}

	values := make([]float32, len(embedRes.Embedding))
	for i, v := range embedRes.Embedding {
		values[i] = float32(v)
	}

	return &EmbeddingResponse{Embedding: EmbeddingValues{Values: values}}, nil
}
