package executor

import (
	"context"
	"fmt"
	"strings"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/ranking"
	"asksite-be/pkg/ask/retrieval"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/ask/stream"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
	"asksite-be/pkg/store"
)

// Strategy is the query-handling behavior behind one tool variant. The
// pipeline dispatches to exactly one Strategy per request after tool
// selection; a variant without its own entry runs the search behavior.
// The variant set is closed, keyed by the catalog tool constants.
type Strategy interface {
	Run(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant, streamer *stream.Streamer) error
}

// NewStrategySet builds the variant dispatch table. compare and ensemble
// run the search behavior.
func NewStrategySet(
	coordinator *retrieval.Coordinator,
	ranker *ranking.Ranker,
	gateway *llm.Gateway,
	cat *catalog.Catalog,
	log logger.ILogger,
) map[string]Strategy {
	search := &searchStrategy{coordinator: coordinator, ranker: ranker}
	return map[string]Strategy{
		catalog.ToolSearch:      search,
		catalog.ToolCompare:     search,
		catalog.ToolEnsemble:    search,
		catalog.ToolItemDetails: &itemDetailsStrategy{coordinator: coordinator, ranker: ranker},
		catalog.ToolStatistics: &statisticsStrategy{
			coordinator: coordinator,
			ranker:      ranker,
			gateway:     gateway,
			catalog:     cat,
			logger:      log,
		},
	}
}

// searchStrategy is the default ranked-list behavior: fan-out retrieval,
// bounded scoring, early streaming of high scores, remainder at Finish.
type searchStrategy struct {
	coordinator *retrieval.Coordinator
	ranker      *ranking.Ranker
}

func (s *searchStrategy) Run(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant, streamer *stream.Streamer) error {
	qc.Status = state.StatusRetrieving
	streamer.EmitStatus(qc.Status)
	if err := s.coordinator.Retrieve(ctx, qc, tenant); err != nil {
		return err
	}

	qc.Status = state.StatusRanking
	streamer.EmitStatus(qc.Status)
	if err := s.ranker.Rank(ctx, qc, streamer.Offer); err != nil {
		return err
	}

	qc.Status = state.StatusStreaming
	streamer.Finish(qc)
	return nil
}

// itemDetailsStrategy answers a question about one specific, named item:
// same retrieval and scoring as search, but only the best match is
// returned, and nothing streams early. An emitted item cannot be
// retracted, so the answer waits until scoring settles on a winner.
type itemDetailsStrategy struct {
	coordinator *retrieval.Coordinator
	ranker      *ranking.Ranker
}

func (s *itemDetailsStrategy) Run(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant, streamer *stream.Streamer) error {
	qc.Status = state.StatusRetrieving
	streamer.EmitStatus(qc.Status)
	if err := s.coordinator.Retrieve(ctx, qc, tenant); err != nil {
		return err
	}

	qc.Status = state.StatusRanking
	streamer.EmitStatus(qc.Status)
	if err := s.ranker.Rank(ctx, qc, nil); err != nil {
		return err
	}
	if len(qc.Candidates) > 1 {
		qc.Candidates = qc.Candidates[:1]
	}

	qc.Status = state.StatusStreaming
	streamer.Finish(qc)
	return nil
}

// statisticsMaxItems caps how many candidates feed one aggregation call.
const statisticsMaxItems = 20

type statisticsAnswer struct {
	Answer string `json:"answer"`
}

// statisticsStrategy answers aggregate questions over the retrieved set
// in a single completion instead of scoring items one by one. The answer
// is emitted as one synthesized result. When aggregation fails, the
// ranked-list behavior answers instead and the request is marked
// degraded.
type statisticsStrategy struct {
	coordinator *retrieval.Coordinator
	ranker      *ranking.Ranker
	gateway     *llm.Gateway
	catalog     *catalog.Catalog
	logger      logger.ILogger
}

func (s *statisticsStrategy) Run(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant, streamer *stream.Streamer) error {
	qc.Status = state.StatusRetrieving
	streamer.EmitStatus(qc.Status)
	if err := s.coordinator.Retrieve(ctx, qc, tenant); err != nil {
		return err
	}

	qc.Status = state.StatusRanking
	streamer.EmitStatus(qc.Status)

	answer, err := s.aggregate(ctx, qc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("strategy", "aggregation failed, answering with ranked list", map[string]interface{}{
			"request_id": qc.ID.String(),
			"error":      err.Error(),
		})
		qc.MarkDegraded(state.DegradedStatistics)
		if err := s.ranker.Rank(ctx, qc, streamer.Offer); err != nil {
			return err
		}
		qc.Status = state.StatusStreaming
		streamer.Finish(qc)
		return nil
	}

	qc.Candidates = []store.Candidate{{
		CanonicalID: "statistics:" + qc.ID.String(),
		Name:        "Statistics",
		Tenant:      qc.Tenant,
		Scored:      true,
		Score:       100,
		Description: answer,
	}}

	qc.Status = state.StatusStreaming
	streamer.Finish(qc)
	return nil
}

func (s *statisticsStrategy) aggregate(ctx context.Context, qc *state.QueryContext) (string, error) {
	items := qc.Candidates
	if len(items) > statisticsMaxItems {
		items = items[:statisticsMaxItems]
	}

	var b strings.Builder
	for _, c := range items {
		content := c.ContentChunk
		if content == "" && len(c.SchemaObject) > 0 {
			content = string(c.SchemaObject)
		}
		fmt.Fprintf(&b, "Name: %s\nContent: %s\n\n", c.Name, content)
	}

	prompt, err := s.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptStatistics, map[string]string{
		"Query": qc.EffectiveQuery(),
		"Items": b.String(),
	})
	if err != nil {
		return "", err
	}

	var result statisticsAnswer
	if err := s.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"answer": "the aggregate answer, one short paragraph",
	}, &result); err != nil {
		return "", err
	}
	if strings.TrimSpace(result.Answer) == "" {
		return "", fmt.Errorf("empty aggregate answer")
	}
	return result.Answer, nil
}
