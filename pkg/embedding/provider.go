package embedding

import "context"

// Task types hint the provider at the retrieval side of the pair.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingValues `json:"embedding"`
}

type EmbeddingValues struct {
	Values []float32 `json:"values"`
}
