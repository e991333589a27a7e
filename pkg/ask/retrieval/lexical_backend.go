package retrieval

import (
	"context"
	"fmt"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/contract"
	"asksite-be/pkg/store"
)

const BackendLexical = "lexical"

// LexicalBackend retrieves candidates with Postgres full-text search.
// It catches exact-term queries the embedding space misses.
type LexicalBackend struct {
	documents contract.DocumentRepository
}

func NewLexicalBackend(documents contract.DocumentRepository) *LexicalBackend {
	return &LexicalBackend{documents: documents}
}

func (b *LexicalBackend) Name() string {
	return BackendLexical
}

func (b *LexicalBackend) Query(ctx context.Context, tenant *entity.Tenant, query string, k int) ([]store.Candidate, error) {
	scored, err := b.documents.SearchLexical(ctx, query, k, tenant.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: lexical search: %v", ErrBackendUnavailable, err)
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
			Backend:       BackendLexical,
			RetrievalRank: i,
		})
	}
	return candidates, nil
}
