package service

import (
	"context"
	"encoding/json"

	"asksite-be/internal/dto"
	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/executor"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/ask/stream"
	"asksite-be/pkg/events"
	pktNats "asksite-be/pkg/nats"
	"asksite-be/pkg/store"
)

const TopicArchiveAsk = "ask.archive"

type IAskService interface {
	Ask(ctx context.Context, tenant *entity.Tenant, req *dto.AskRequest, sink stream.Sink) error
}

type askService struct {
	pipeline         *executor.Pipeline
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewAskService(
	pipeline *executor.Pipeline,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAskService {
	return &askService{
		pipeline:         pipeline,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Ask runs the full pipeline for one request and archives the outcome.
// Frames flow into sink as the pipeline progresses; the returned error
// is the fatal cause, already reported to the caller as a frame.
func (s *askService) Ask(ctx context.Context, tenant *entity.Tenant, req *dto.AskRequest, sink stream.Sink) error {
	history := make([]store.Turn, len(req.History))
	for i, t := range req.History {
		history[i] = store.Turn{Role: t.Role, Content: t.Content}
	}

	qc := state.NewQueryContext(tenant.Slug, tenant.Id, req.Query, history)
	qc.Fanout = req.Options.QueryFanout

	err := s.pipeline.Execute(ctx, qc, tenant, sink)

	s.archive(qc)
	s.publishEvent(qc)

	return err
}

// archive hands the finished request to the log consumer; losing a log
// row must never affect the caller.
func (s *askService) archive(qc *state.QueryContext) {
	msg := dto.ArchiveAskMessage{
		TenantId:     qc.TenantUID,
		RequestId:    qc.ID.String(),
		Query:        qc.RawQuery,
		Tool:         qc.SelectedTool,
		Status:       qc.Status,
		Degradations: qc.Degradations,
		ResultCount:  len(qc.Candidates),
		DurationMs:   qc.Elapsed().Milliseconds(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(context.Background(), TopicArchiveAsk, payload); err != nil {
		s.logger.Warn("ask", "failed to enqueue archive message", map[string]interface{}{
			"request_id": qc.ID.String(),
			"error":      err.Error(),
		})
	}
}

func (s *askService) publishEvent(qc *state.QueryContext) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewAskCompleted(qc)
	if err := s.eventPublisher.Publish(context.Background(), evt); err != nil {
		s.logger.Warn("ask", "failed to publish completion event", map[string]interface{}{
			"request_id": qc.ID.String(),
			"error":      err.Error(),
		})
	}
}
