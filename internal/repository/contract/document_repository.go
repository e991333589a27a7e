package contract

import (
	"context"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocument wraps a Document with its similarity score
type ScoredDocument struct {
	Document   *entity.Document
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	CreateBulk(ctx context.Context, docs []*entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTenantId(ctx context.Context, tenantId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// Advanced
	// SearchSimilarWithScore returns documents with cosine similarity scores,
	// scoped to a single tenant and filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, tenantId uuid.UUID, threshold float64) ([]*ScoredDocument, error)
	// SearchLexical runs a Postgres full-text search over content chunks,
	// scoped to a single tenant.
	SearchLexical(ctx context.Context, query string, limit int, tenantId uuid.UUID) ([]*ScoredDocument, error)
}
