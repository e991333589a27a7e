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
	"gorm.io/gorm"
)

type CatalogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewCatalogRepository(db *gorm.DB) contract.CatalogRepository {
	return &CatalogRepositoryImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *CatalogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CatalogRepositoryImpl) CreateTool(ctx context.Context, tool *entity.ToolDefinition) error {
	m := &model.ToolDefinition{
		Id:          tool.Id,
		TenantId:    tool.TenantId,
		Key:         tool.Key,
		Enabled:     tool.Enabled,
		Description: tool.Description,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tool = *r.mapper.ToolToEntity(m)
	return nil
}

func (r *CatalogRepositoryImpl) CreatePrompt(ctx context.Context, prompt *entity.PromptTemplate) error {
	m := &model.PromptTemplate{
		Id:       prompt.Id,
		TenantId: prompt.TenantId,
		Key:      prompt.Key,
		Template: prompt.Template,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*prompt = *r.mapper.PromptToEntity(m)
	return nil
}

// FindTools returns the tenant's tool rows merged with globals.
// Tenant-specific rows shadow global rows with the same key.
func (r *CatalogRepositoryImpl) FindTools(ctx context.Context, tenantId uuid.UUID) ([]*entity.ToolDefinition, error) {
	var models []*model.ToolDefinition
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantId).
		Order("key ASC, tenant_id ASC NULLS LAST").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	merged := make([]*model.ToolDefinition, 0, len(models))
	seen := make(map[string]bool)
	for _, m := range models {
		if seen[m.Key] {
			continue
		}
		seen[m.Key] = true
		merged = append(merged, m)
	}
	return r.mapper.ToolsToEntities(merged), nil
}

func (r *CatalogRepositoryImpl) FindPrompt(ctx context.Context, tenantId uuid.UUID, key string) (*entity.PromptTemplate, error) {
	var m model.PromptTemplate
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantId).
		Order("tenant_id ASC NULLS LAST").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PromptToEntity(&m), nil
}

func (r *CatalogRepositoryImpl) FindAllPrompts(ctx context.Context, specs ...specification.Specification) ([]*entity.PromptTemplate, error) {
	var models []*model.PromptTemplate
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.PromptsToEntities(models), nil
}
