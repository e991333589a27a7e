package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
	"asksite-be/pkg/store"
)

// ErrNotRelevant marks a query that cannot be answered from the tenant's
// content. It is a normal terminal outcome, not a pipeline failure.
var ErrNotRelevant = errors.New("query not relevant to site content")

const maxRewriteQueries = 5

type relevanceResult struct {
	Relevant    bool   `json:"relevant"`
	Explanation string `json:"explanation"`
}

type decontextResult struct {
	RequiresRewrite bool   `json:"requires_rewrite"`
	Query           string `json:"query"`
}

type memoryResult struct {
	IsMemoryRequest bool   `json:"is_memory_request"`
	Content         string `json:"content"`
}

type requiredInfoResult struct {
	MissingInfo bool   `json:"missing_info"`
	Explanation string `json:"explanation"`
}

type rewriteResult struct {
	Queries []string `json:"queries"`
}

// Analyzer runs the pre-retrieval analysis phase: a fixed set of
// independent sub-tasks executed concurrently against the gateway.
// The relevance check is load-bearing; the rest degrade to safe
// defaults when they fail.
type Analyzer struct {
	gateway     *llm.Gateway
	catalog     *catalog.Catalog
	logger      logger.ILogger
	taskTimeout time.Duration
	fanout      bool
}

func NewAnalyzer(gateway *llm.Gateway, cat *catalog.Catalog, log logger.ILogger, taskTimeout time.Duration, fanout bool) *Analyzer {
	if taskTimeout <= 0 {
		taskTimeout = 8 * time.Second
	}
	return &Analyzer{
		gateway:     gateway,
		catalog:     cat,
		logger:      log,
		taskTimeout: taskTimeout,
		fanout:      fanout,
	}
}

// Analyze mutates qc with the analysis outcome. It returns ErrNotRelevant
// when the relevance check rejects the query or cannot complete; any other
// sub-task failure records a degradation marker and keeps going.
func (a *Analyzer) Analyze(ctx context.Context, qc *state.QueryContext, siteDescription string) error {
	taskCtx, cancel := context.WithTimeout(ctx, a.taskTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		relevance relevanceResult
		decontext decontextResult
		memory    memoryResult
		required  requiredInfoResult

		relevanceErr error
		decontextErr error
		memoryErr    error
		requiredErr  error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		relevanceErr = a.checkRelevance(taskCtx, qc, siteDescription, &relevance)
	}()
	go func() {
		defer wg.Done()
		decontextErr = a.decontextualize(taskCtx, qc, &decontext)
	}()
	go func() {
		defer wg.Done()
		memoryErr = a.detectMemory(taskCtx, qc, &memory)
	}()
	go func() {
		defer wg.Done()
		requiredErr = a.detectRequiredInfo(taskCtx, qc, &required)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if relevanceErr != nil {
		a.logger.Warn("analysis", "relevance check failed", map[string]interface{}{
			"request_id": qc.ID.String(),
			"error":      relevanceErr.Error(),
		})
		return fmt.Errorf("%w: relevance check unavailable", ErrNotRelevant)
	}
	if !relevance.Relevant {
		return ErrNotRelevant
	}
	qc.Relevant = true

	if decontextErr != nil {
		qc.MarkDegraded(state.DegradedDecontextualize)
	} else if decontext.RequiresRewrite && strings.TrimSpace(decontext.Query) != "" {
		qc.DecontextualizedQuery = strings.TrimSpace(decontext.Query)
	}

	if memoryErr != nil {
		qc.MarkDegraded(state.DegradedMemoryCheck)
	} else if memory.IsMemoryRequest {
		qc.MemoryRequest = memory.Content
	}

	if requiredErr != nil {
		qc.MarkDegraded(state.DegradedRequiredInfo)
	} else if required.MissingInfo {
		qc.RequiredInfo = required.Explanation
	}

	if a.fanout || qc.Fanout {
		a.rewriteQueries(ctx, qc)
	}

	return nil
}

func (a *Analyzer) checkRelevance(ctx context.Context, qc *state.QueryContext, siteDescription string, out *relevanceResult) error {
	prompt, err := a.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptRelevance, map[string]string{
		"SiteDescription": siteDescription,
		"Query":           qc.RawQuery,
	})
	if err != nil {
		return err
	}
	return a.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"relevant":    "true or false",
		"explanation": "one sentence reason",
	}, out)
}

func (a *Analyzer) decontextualize(ctx context.Context, qc *state.QueryContext, out *decontextResult) error {
	if len(qc.History) == 0 {
		out.RequiresRewrite = false
		return nil
	}
	prompt, err := a.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptDecontextualize, map[string]string{
		"History": formatHistory(qc.History),
		"Query":   qc.RawQuery,
	})
	if err != nil {
		return err
	}
	return a.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"requires_rewrite": "true if the question needed rewriting",
		"query":            "the self-contained question",
	}, out)
}

func (a *Analyzer) detectMemory(ctx context.Context, qc *state.QueryContext, out *memoryResult) error {
	prompt, err := a.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptMemory, map[string]string{
		"Query": qc.RawQuery,
	})
	if err != nil {
		return err
	}
	return a.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"is_memory_request": "true if the user wants something remembered",
		"content":           "the preference or constraint to remember",
	}, out)
}

func (a *Analyzer) detectRequiredInfo(ctx context.Context, qc *state.QueryContext, out *requiredInfoResult) error {
	prompt, err := a.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptRequiredInfo, map[string]string{
		"Query": qc.RawQuery,
	})
	if err != nil {
		return err
	}
	return a.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"missing_info": "true if required information is missing",
		"explanation":  "what is missing",
	}, out)
}

// rewriteQueries fans the effective query out into keyword sub-queries.
// Best effort: failure leaves RewrittenQueries empty and retrieval runs
// on the effective query alone.
func (a *Analyzer) rewriteQueries(ctx context.Context, qc *state.QueryContext) {
	prompt, err := a.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptQueryRewrite, map[string]string{
		"Query": qc.EffectiveQuery(),
	})
	if err != nil {
		return
	}

	var result rewriteResult
	if err := a.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"queries": "array of up to 5 short keyword queries",
	}, &result); err != nil {
		a.logger.Warn("analysis", "query rewrite failed", map[string]interface{}{
			"request_id": qc.ID.String(),
			"error":      err.Error(),
		})
		return
	}

	queries := make([]string, 0, maxRewriteQueries)
	seen := make(map[string]bool)
	for _, q := range result.Queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		queries = append(queries, q)
		if len(queries) == maxRewriteQueries {
			break
		}
	}
	qc.RewrittenQueries = queries
}

func formatHistory(history []store.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
