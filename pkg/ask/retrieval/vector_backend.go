package retrieval

import (
	"context"
	"fmt"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/contract"
	"asksite-be/pkg/embedding"
	"asksite-be/pkg/store"
)

const BackendVector = "vector"

// VectorBackend retrieves candidates by pgvector cosine similarity over
// the tenant's document chunks.
type VectorBackend struct {
	documents contract.DocumentRepository
	embedder  embedding.EmbeddingProvider
	threshold float64
}

func NewVectorBackend(documents contract.DocumentRepository, embedder embedding.EmbeddingProvider, threshold float64) *VectorBackend {
	return &VectorBackend{
		documents: documents,
		embedder:  embedder,
		threshold: threshold,
	}
}

func (b *VectorBackend) Name() string {
	return BackendVector
}

func (b *VectorBackend) Query(ctx context.Context, tenant *entity.Tenant, query string, k int) ([]store.Candidate, error) {
	resp, err := b.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrBackendUnavailable, err)
	}

	scored, err := b.documents.SearchSimilarWithScore(ctx, resp.Embedding.Values, k, tenant.Id, b.threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", ErrBackendUnavailable, err)
	}

	candidates := make([]store.Candidate, 0, len(scored))
	for i, s := range scored {
		candidates = append(candidates, store.Candidate{
			CanonicalID:   s.Document.CanonicalId,
			URL:           s.Document.Url,
			Name:          s.Document.Name,
			ContentChunk:  s.Document.ContentChunk,
			SchemaObject:  s.Document.SchemaObject,
			Tenant:        tenant.Slug,
			Backend:       BackendVector,
			RetrievalRank: i,
		})
	}
	return candidates, nil
}
