package service

import (
	"context"
	"encoding/json"
	"time"

	"asksite-be/internal/dto"
	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IArchiveService interface {
	Consume(ctx context.Context) error
}

// archiveService drains the archive topic and persists one log row per
// finished request.
type archiveService struct {
	pubSub  *gochannel.GoChannel
	askLogs contract.AskLogRepository
	logger  logger.ILogger
}

func NewArchiveService(pubSub *gochannel.GoChannel, askLogs contract.AskLogRepository, log logger.ILogger) IArchiveService {
	return &archiveService{
		pubSub:  pubSub,
		askLogs: askLogs,
		logger:  log,
	}
}

func (s *archiveService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, TopicArchiveAsk)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *archiveService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ArchiveAskMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("archive", "failed to unmarshal archive message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will not help
		return
	}

	degradations, _ := json.Marshal(payload.Degradations)

	log := &entity.AskLog{
		Id:           uuid.New(),
		TenantId:     payload.TenantId,
		RequestId:    payload.RequestId,
		Query:        payload.Query,
		Tool:         payload.Tool,
		Status:       payload.Status,
		Degradations: datatypes.JSON(degradations),
		ResultCount:  payload.ResultCount,
		DurationMs:   payload.DurationMs,
		CreatedAt:    time.Now(),
	}
	if err := s.askLogs.Create(ctx, log); err != nil {
		s.logger.Error("archive", "failed to persist ask log", map[string]interface{}{
			"request_id": payload.RequestId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
