package implementation

import (
	"context"

	"asksite-be/internal/entity"
	"asksite-be/internal/mapper"
	"asksite-be/internal/model"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AskLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AskLogMapper
}

func NewAskLogRepository(db *gorm.DB) contract.AskLogRepository {
	return &AskLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewAskLogMapper(),
	}
}

func (r *AskLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AskLogRepositoryImpl) Create(ctx context.Context, log *entity.AskLog) error {
	m := r.mapper.ToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*log = *r.mapper.ToEntity(m)
	return nil
}

func (r *AskLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AskLog, error) {
	var models []*model.AskLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AskLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *AskLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.AskLog{}).Count(&count).Error
	return count, err
}
