package mapper

import (
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		u := d.UpdatedAt
		updatedAt = &u
	}

	return &entity.Document{
		Id:           d.Id,
		TenantId:     d.TenantId,
		CanonicalId:  d.CanonicalId,
		Url:          d.Url,
		Name:         d.Name,
		ContentChunk: d.ContentChunk,
		SchemaObject: d.SchemaObject,
		Embedding:    d.Embedding.Slice(),
		ChunkIndex:   d.ChunkIndex,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:           d.Id,
		TenantId:     d.TenantId,
		CanonicalId:  d.CanonicalId,
		Url:          d.Url,
		Name:         d.Name,
		ContentChunk: d.ContentChunk,
		SchemaObject: d.SchemaObject,
		Embedding:    pgvector.NewVector(d.Embedding),
		ChunkIndex:   d.ChunkIndex,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
