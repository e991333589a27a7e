package ranking

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
	"asksite-be/pkg/store"
)

type scoreResult struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
	SendQuery   string `json:"send_query"`
}

// Ranker scores candidates against the effective query with bounded
// concurrency. Scoring failures never fail the request: a candidate
// that cannot be scored keeps its retrieval position behind every
// scored one, and total scoring failure falls back to retrieval order
// with a degradation marker.
type Ranker struct {
	gateway *llm.Gateway
	catalog *catalog.Catalog
	logger  logger.ILogger

	maxConcurrent int
	topN          int
	scoreFloor    int
}

func NewRanker(gateway *llm.Gateway, cat *catalog.Catalog, log logger.ILogger, maxConcurrent, topN, scoreFloor int) *Ranker {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if topN <= 0 {
		topN = 10
	}
	return &Ranker{
		gateway:       gateway,
		catalog:       cat,
		logger:        log,
		maxConcurrent: maxConcurrent,
		topN:          topN,
		scoreFloor:    scoreFloor,
	}
}

// Rank scores qc.Candidates in place, then replaces them with the final
// ordered, truncated list. scored is invoked once per successfully
// scored candidate, as soon as its score is known; it must be safe for
// concurrent use.
func (r *Ranker) Rank(ctx context.Context, qc *state.QueryContext, scored func(store.Candidate)) error {
	if len(qc.Candidates) == 0 {
		return nil
	}

	candidates := qc.Candidates
	var (
		wg       sync.WaitGroup
		failures int64
	)
	slots := make(chan struct{}, r.maxConcurrent)

	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
			case <-ctx.Done():
				atomic.AddInt64(&failures, 1)
				return
			}

			result, err := r.scoreOne(ctx, qc, &candidates[i])
			if err != nil {
				atomic.AddInt64(&failures, 1)
				r.logger.Warn("ranking", "scoring failed for candidate", map[string]interface{}{
					"request_id": qc.ID.String(),
					"candidate":  candidates[i].CanonicalID,
					"error":      err.Error(),
				})
				return
			}

			candidates[i].Score = clampScore(result.Score)
			candidates[i].Scored = true
			candidates[i].Description = result.Description
			candidates[i].SendQuery = result.SendQuery
			if scored != nil {
				scored(candidates[i])
			}
		}(i)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if int(failures) == len(candidates) {
		// Total scoring failure: retrieval order is still a usable answer.
		qc.MarkDegraded(state.DegradedRanking)
		qc.Candidates = truncate(candidates, r.topN)
		return nil
	}

	qc.Candidates = r.order(candidates)
	return nil
}

// order sorts scored candidates by score descending, ties broken by
// retrieval rank ascending. Unscored candidates follow in retrieval
// order. Scored candidates below the floor are dropped.
func (r *Ranker) order(candidates []store.Candidate) []store.Candidate {
	kept := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Scored && c.Score < r.scoreFloor {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Scored != b.Scored {
			return a.Scored
		}
		if a.Scored && a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.RetrievalRank < b.RetrievalRank
	})

	return truncate(kept, r.topN)
}

func (r *Ranker) scoreOne(ctx context.Context, qc *state.QueryContext, cand *store.Candidate) (*scoreResult, error) {
	content := cand.ContentChunk
	if content == "" && len(cand.SchemaObject) > 0 {
		content = string(cand.SchemaObject)
	}
	prompt, err := r.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptRanking, map[string]string{
		"Query":   qc.EffectiveQuery(),
		"Name":    cand.Name,
		"Content": content,
	})
	if err != nil {
		return nil, err
	}

	var result scoreResult
	err = r.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"score":       "integer 0 to 100",
		"description": "one sentence tailored to the question",
		"send_query":  "optional refined query for fetching more detail",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func truncate(candidates []store.Candidate, n int) []store.Candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
