package mapper

import (
	"asksite-be/internal/entity"
	"asksite-be/internal/model"
)

type AskLogMapper struct{}

func NewAskLogMapper() *AskLogMapper {
	return &AskLogMapper{}
}

func (m *AskLogMapper) ToModel(l *entity.AskLog) *model.AskLog {
	if l == nil {
		return nil
	}
	return &model.AskLog{
		Id:           l.Id,
		TenantId:     l.TenantId,
		RequestId:    l.RequestId,
		Query:        l.Query,
		Tool:         l.Tool,
		Status:       l.Status,
		Degradations: l.Degradations,
		ResultCount:  l.ResultCount,
		DurationMs:   l.DurationMs,
		CreatedAt:    l.CreatedAt,
	}
}

func (m *AskLogMapper) ToEntity(l *model.AskLog) *entity.AskLog {
	if l == nil {
		return nil
	}
	return &entity.AskLog{
		Id:           l.Id,
		TenantId:     l.TenantId,
		RequestId:    l.RequestId,
		Query:        l.Query,
		Tool:         l.Tool,
		Status:       l.Status,
		Degradations: l.Degradations,
		ResultCount:  l.ResultCount,
		DurationMs:   l.DurationMs,
		CreatedAt:    l.CreatedAt,
	}
}
