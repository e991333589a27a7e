package executor

import (
	"context"
	"errors"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/analysis"
	"asksite-be/pkg/ask/retrieval"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/ask/stream"
	"asksite-be/pkg/ask/tools"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
)

// Error kinds carried on terminal error frames.
const (
	ErrKindBackendUnavailable = "backend_unavailable"
	ErrKindCapacityExceeded   = "capacity_exceeded"
	ErrKindDeadlineExceeded   = "deadline_exceeded"
	ErrKindInternal           = "internal"
)

// Pipeline runs one ask request end to end: analysis, tool selection,
// then the selected variant's strategy (retrieval, ranking, streaming).
// It owns the request deadline and the terminal transitions; every
// terminal outcome reaches the caller as a frame, except disconnects,
// which have no one left to tell.
type Pipeline struct {
	analyzer   *analysis.Analyzer
	selector   *tools.Selector
	strategies map[string]Strategy
	logger     logger.ILogger

	deadline   time.Duration
	earlyScore int
	topN       int
}

func NewPipeline(
	analyzer *analysis.Analyzer,
	selector *tools.Selector,
	strategies map[string]Strategy,
	log logger.ILogger,
	deadline time.Duration,
	earlyScore, topN int,
) *Pipeline {
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	if topN <= 0 {
		topN = 10
	}
	return &Pipeline{
		analyzer:   analyzer,
		selector:   selector,
		strategies: strategies,
		logger:     log,
		deadline:   deadline,
		earlyScore: earlyScore,
		topN:       topN,
	}
}

// Execute drives qc through every phase, pushing frames into sink. The
// returned error is the fatal cause when the request failed; normal
// outcomes, including not-relevant, return nil. qc carries the final
// status either way.
func (p *Pipeline) Execute(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant, sink stream.Sink) error {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	streamer := stream.NewStreamer(sink, cancel, p.logger, qc.ID.String(), p.earlyScore, p.topN)

	qc.Status = state.StatusAnalyzing
	streamer.EmitStatus(qc.Status)
	if err := p.analyzer.Analyze(ctx, qc, tenant.Name); err != nil {
		if errors.Is(err, analysis.ErrNotRelevant) {
			qc.Status = state.StatusCompleted
			streamer.FinishNotRelevant()
			return nil
		}
		return p.fail(qc, streamer, err)
	}

	qc.Status = state.StatusSelecting
	streamer.EmitStatus(qc.Status)
	p.selector.Select(ctx, qc)

	strategy := p.strategies[qc.SelectedTool]
	if strategy == nil {
		strategy = p.strategies[catalog.ToolSearch]
	}
	if err := strategy.Run(ctx, qc, tenant, streamer); err != nil {
		return p.fail(qc, streamer, err)
	}
	if streamer.Disconnected() {
		qc.Status = state.StatusFailed
		return context.Canceled
	}

	qc.Status = state.StatusCompleted
	p.logger.Info("pipeline", "request completed", map[string]interface{}{
		"request_id":   qc.ID.String(),
		"tenant":       qc.Tenant,
		"tool":         qc.SelectedTool,
		"results":      len(qc.Candidates),
		"degradations": qc.Degradations,
		"elapsed_ms":   qc.Elapsed().Milliseconds(),
	})
	return nil
}

func (p *Pipeline) fail(qc *state.QueryContext, streamer *stream.Streamer, err error) error {
	qc.Status = state.StatusFailed

	// A disconnected caller cancelled the context; nothing to emit.
	if streamer.Disconnected() {
		return err
	}

	kind := classify(err)
	p.logger.Error("pipeline", "request failed", map[string]interface{}{
		"request_id": qc.ID.String(),
		"tenant":     qc.Tenant,
		"kind":       kind,
		"error":      err.Error(),
	})
	streamer.Fail(kind, err.Error())
	return err
}

func classify(err error) string {
	switch {
	case errors.Is(err, retrieval.ErrBackendUnavailable):
		return ErrKindBackendUnavailable
	case errors.Is(err, llm.ErrCapacityExceeded):
		return ErrKindCapacityExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return ErrKindDeadlineExceeded
	default:
		return ErrKindInternal
	}
}
