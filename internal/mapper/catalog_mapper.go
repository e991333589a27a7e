package mapper

import (
	"asksite-be/internal/entity"
	"asksite-be/internal/model"
)

type CatalogMapper struct{}

func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

func (m *CatalogMapper) ToolToEntity(t *model.ToolDefinition) *entity.ToolDefinition {
	if t == nil {
		return nil
	}
	return &entity.ToolDefinition{
		Id:          t.Id,
		TenantId:    t.TenantId,
		Key:         t.Key,
		Enabled:     t.Enabled,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *CatalogMapper) ToolsToEntities(tools []*model.ToolDefinition) []*entity.ToolDefinition {
	entities := make([]*entity.ToolDefinition, len(tools))
	for i, t := range tools {
		entities[i] = m.ToolToEntity(t)
	}
	return entities
}

func (m *CatalogMapper) PromptToEntity(p *model.PromptTemplate) *entity.PromptTemplate {
	if p == nil {
		return nil
	}
	return &entity.PromptTemplate{
		Id:        p.Id,
		TenantId:  p.TenantId,
		Key:       p.Key,
		Template:  p.Template,
		CreatedAt: p.CreatedAt,
	}
}

func (m *CatalogMapper) PromptsToEntities(prompts []*model.PromptTemplate) []*entity.PromptTemplate {
	entities := make([]*entity.PromptTemplate, len(prompts))
	for i, p := range prompts {
		entities[i] = m.PromptToEntity(p)
	}
	return entities
}
