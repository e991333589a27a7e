package implementation

import (
	"context"
	"errors"

	"asksite-be/internal/entity"
	"asksite-be/internal/mapper"
	"asksite-be/internal/model"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *entity.Document) error {
	m := r.mapper.ToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) CreateBulk(ctx context.Context, docs []*entity.Document) error {
	models := make([]*model.Document, len(docs))
	for i, d := range docs {
		models[i] = r.mapper.ToModel(d)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*docs[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) DeleteByTenantId(ctx context.Context, tenantId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("tenant_id = ?", tenantId).Delete(&model.Document{}).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Document{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns documents with similarity scores, filtered by threshold.
// Every query is scoped to a single tenant; rows from other tenants never match.
func (r *DocumentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, tenantId uuid.UUID, threshold float64) ([]*contract.ScoredDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	// So we compute: 1 - (embedding <=> query_vector) = cosine_similarity
	type result struct {
		model.Document
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("documents").
		Select("documents.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("documents.tenant_id = ?", tenantId).
		Where("documents.deleted_at IS NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocument, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocument{
			Document:   r.mapper.ToEntity(&res.Document),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

// SearchLexical ranks documents with Postgres full-text search, tenant scoped.
func (r *DocumentRepositoryImpl) SearchLexical(ctx context.Context, query string, limit int, tenantId uuid.UUID) ([]*contract.ScoredDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.Document
		Similarity float64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("documents").
		Select("documents.*, ts_rank(to_tsvector('english', coalesce(name, '') || ' ' || content_chunk), websearch_to_tsquery('english', ?)) as similarity", query).
		Where("documents.tenant_id = ?", tenantId).
		Where("documents.deleted_at IS NULL").
		Where("to_tsvector('english', coalesce(name, '') || ' ' || content_chunk) @@ websearch_to_tsquery('english', ?)", query).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocument, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocument{
			Document:   r.mapper.ToEntity(&res.Document),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
