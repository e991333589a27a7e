package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/store"

	"golang.org/x/sync/semaphore"
)

// Coordinator fans retrieval out across every backend configured for the
// tenant, in parallel, and merges the results into a deduplicated
// candidate list. Backend priority comes from the tenant's configuration
// order: when two backends return the same canonical id, the higher
// priority backend's candidate wins.
type Coordinator struct {
	backends map[string]Backend
	cache    *Cache
	logger   logger.ILogger

	sem            *semaphore.Weighted
	backendTimeout time.Duration
	perBackendK    int
}

func NewCoordinator(backends []Backend, cache *Cache, log logger.ILogger, backendTimeout time.Duration, perBackendK int, maxInflight int64) *Coordinator {
	if backendTimeout <= 0 {
		backendTimeout = 10 * time.Second
	}
	if perBackendK <= 0 {
		perBackendK = 20
	}
	if maxInflight <= 0 {
		maxInflight = 64
	}
	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &Coordinator{
		backends:       byName,
		cache:          cache,
		logger:         log,
		sem:            semaphore.NewWeighted(maxInflight),
		backendTimeout: backendTimeout,
		perBackendK:    perBackendK,
	}
}

type backendResult struct {
	candidates []store.Candidate
	err        error
}

// Retrieve populates qc.Candidates. Partial backend failure degrades;
// total failure returns ErrBackendUnavailable.
func (c *Coordinator) Retrieve(ctx context.Context, qc *state.QueryContext, tenant *entity.Tenant) error {
	names := c.resolveBackends(tenant)
	if len(names) == 0 {
		return fmt.Errorf("%w: no backends configured for tenant %s", ErrBackendUnavailable, tenant.Slug)
	}

	queries := qc.RetrievalQueries()

	// results[b][q] holds the outcome of query q against backend b.
	results := make([][]backendResult, len(names))
	var wg sync.WaitGroup
	for bi, name := range names {
		results[bi] = make([]backendResult, len(queries))
		backend := c.backends[name]
		for qi, query := range queries {
			wg.Add(1)
			go func(bi, qi int, backend Backend, query string) {
				defer wg.Done()
				results[bi][qi] = c.queryOne(ctx, backend, tenant, query)
			}(bi, qi, backend, query)
		}
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	failed := 0
	for bi, name := range names {
		ok := false
		for qi := range results[bi] {
			if results[bi][qi].err == nil {
				ok = true
			} else {
				c.logger.Warn("retrieval", "backend query failed", map[string]interface{}{
					"request_id": qc.ID.String(),
					"backend":    name,
					"error":      results[bi][qi].err.Error(),
				})
			}
		}
		if !ok {
			failed++
		}
	}
	if failed == len(names) {
		return fmt.Errorf("%w: all %d backends failed", ErrBackendUnavailable, len(names))
	}
	if failed > 0 {
		qc.MarkDegraded(state.DegradedPartialBackends)
	}

	qc.Candidates = c.merge(qc, results)
	return nil
}

func (c *Coordinator) queryOne(ctx context.Context, backend Backend, tenant *entity.Tenant, query string) backendResult {
	if c.cache != nil {
		if cached, found := c.cache.Get(ctx, tenant.Slug, backend.Name(), query, c.perBackendK); found {
			return backendResult{candidates: cached}
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return backendResult{err: fmt.Errorf("%w: capacity: %v", ErrBackendUnavailable, err)}
	}
	defer c.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, c.backendTimeout)
	defer cancel()

	candidates, err := backend.Query(callCtx, tenant, query, c.perBackendK)
	if err != nil {
		return backendResult{err: err}
	}

	if c.cache != nil {
		c.cache.Set(ctx, tenant.Slug, backend.Name(), query, c.perBackendK, candidates)
	}
	return backendResult{candidates: candidates}
}

// merge walks backends in priority order and deduplicates by canonical
// id, first seen wins. Candidates carrying the wrong tenant are dropped
// outright, whatever the backend claims. Per-backend ranks are not
// comparable across backends, so each survivor's retrieval rank is
// reassigned to its merged position; the merge order itself preserves
// every backend's internal ordering.
func (c *Coordinator) merge(qc *state.QueryContext, results [][]backendResult) []store.Candidate {
	merged := make([]store.Candidate, 0)
	seen := make(map[string]bool)
	for bi := range results {
		for qi := range results[bi] {
			if results[bi][qi].err != nil {
				continue
			}
			for _, cand := range results[bi][qi].candidates {
				if cand.Tenant != qc.Tenant {
					c.logger.Error("retrieval", "dropped candidate with mismatched tenant", map[string]interface{}{
						"request_id":   qc.ID.String(),
						"candidate":    cand.CanonicalID,
						"got_tenant":   cand.Tenant,
						"want_tenant":  qc.Tenant,
						"from_backend": cand.Backend,
					})
					continue
				}
				if cand.CanonicalID == "" || seen[cand.CanonicalID] {
					continue
				}
				seen[cand.CanonicalID] = true
				cand.RetrievalRank = len(merged)
				merged = append(merged, cand)
			}
		}
	}
	return merged
}

func (c *Coordinator) resolveBackends(tenant *entity.Tenant) []string {
	names := make([]string, 0)
	for _, name := range tenant.BackendNames() {
		if _, ok := c.backends[name]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		if _, ok := c.backends[BackendVector]; ok {
			names = append(names, BackendVector)
		}
	}
	return names
}
