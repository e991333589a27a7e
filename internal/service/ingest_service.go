package service

import (
	"context"
	"encoding/json"
	"time"

	"asksite-be/internal/dto"
	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/repository/specification"
	"asksite-be/pkg/embedding"
	"asksite-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const TopicIngestDocument = "document.ingest"

// Chunk size tuned for 768-dim embedding models: roughly 375 tokens per
// chunk with overlap to keep boundary context.
const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

type IIngestService interface {
	Submit(ctx context.Context, tenant *entity.Tenant, req *dto.IngestDocumentRequest) error
	Consume(ctx context.Context) error
}

// ingestService accepts documents for indexing and processes them off
// the request path: split into chunks, embed, replace existing rows for
// the same canonical id.
type ingestService struct {
	pubSub            *gochannel.GoChannel
	publisherService  IPublisherService
	documents         contract.DocumentRepository
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	publisherService IPublisherService,
	documents contract.DocumentRepository,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		pubSub:            pubSub,
		publisherService:  publisherService,
		documents:         documents,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *ingestService) Submit(ctx context.Context, tenant *entity.Tenant, req *dto.IngestDocumentRequest) error {
	msg := dto.IngestDocumentMessage{
		TenantId:     tenant.Id,
		CanonicalID:  req.CanonicalID,
		URL:          req.URL,
		Name:         req.Name,
		Content:      req.Content,
		SchemaObject: req.SchemaObject,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, TopicIngestDocument, payload)
}

func (s *ingestService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, TopicIngestDocument)
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

func (s *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("ingest", "failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will not help
		return
	}

	s.logger.Info("ingest", "processing document", map[string]interface{}{
		"tenant_id":    payload.TenantId.String(),
		"canonical_id": payload.CanonicalID,
		"length":       len(payload.Content),
	})

	var schemaObject datatypes.JSON
	if payload.SchemaObject != nil {
		if raw, err := json.Marshal(payload.SchemaObject); err == nil {
			schemaObject = datatypes.JSON(raw)
		}
	}

	chunks := utils.SplitText(payload.Content, ingestChunkSize, ingestChunkOverlap)

	docs := make([]*entity.Document, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			s.logger.Error("ingest", "embedding failed for chunk", map[string]interface{}{
				"canonical_id": payload.CanonicalID,
				"chunk":        i,
				"error":        err.Error(),
			})
			msg.Nack()
			return
		}

		docs = append(docs, &entity.Document{
			Id:           uuid.New(),
			TenantId:     payload.TenantId,
			CanonicalId:  payload.CanonicalID,
			Url:          payload.URL,
			Name:         payload.Name,
			ContentChunk: chunk,
			SchemaObject: schemaObject,
			Embedding:    res.Embedding.Values,
			ChunkIndex:   i,
			CreatedAt:    time.Now(),
		})
	}

	// Replace any previous version of this document.
	if err := s.deleteExisting(ctx, payload.TenantId, payload.CanonicalID); err != nil {
		s.logger.Error("ingest", "failed to delete stale chunks", map[string]interface{}{
			"canonical_id": payload.CanonicalID,
			"error":        err.Error(),
		})
		msg.Nack()
		return
	}

	if len(docs) > 0 {
		if err := s.documents.CreateBulk(ctx, docs); err != nil {
			s.logger.Error("ingest", "failed to store chunks", map[string]interface{}{
				"canonical_id": payload.CanonicalID,
				"error":        err.Error(),
			})
			msg.Nack()
			return
		}
	}

	s.logger.Info("ingest", "document indexed", map[string]interface{}{
		"canonical_id": payload.CanonicalID,
		"chunks":       len(docs),
	})
	msg.Ack()
}

func (s *ingestService) deleteExisting(ctx context.Context, tenantId uuid.UUID, canonicalId string) error {
	existing, err := s.documents.FindAll(ctx,
		specification.Filter("tenant_id", tenantId),
		specification.Filter("canonical_id", canonicalId),
	)
	if err != nil {
		return err
	}
	for _, doc := range existing {
		if err := s.documents.Delete(ctx, doc.Id); err != nil {
			return err
		}
	}
	return nil
}
