package contract

import (
	"context"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/specification"
)

type AskLogRepository interface {
	Create(ctx context.Context, log *entity.AskLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AskLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
