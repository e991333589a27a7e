package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	name       string
	candidates []store.Candidate
	err        error
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Query(ctx context.Context, tenant *entity.Tenant, query string, k int) ([]store.Candidate, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.candidates, nil
}

func cand(id, tenant, backend string) store.Candidate {
	return store.Candidate{CanonicalID: id, Tenant: tenant, Backend: backend}
}

func testTenant(backends string) *entity.Tenant {
	return &entity.Tenant{Id: uuid.New(), Slug: "demo", Name: "Demo", Backends: backends}
}

func newTestCoordinator(backends ...Backend) *Coordinator {
	return NewCoordinator(backends, nil, logger.NewNoopLogger(), time.Second, 5, 8)
}

func TestRetrieveMergesInPriorityOrder(t *testing.T) {
	primary := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
		cand("doc-2", "demo", "vector"),
	}}
	secondary := &fakeBackend{name: "lexical", candidates: []store.Candidate{
		cand("doc-1", "demo", "lexical"),
		cand("doc-3", "demo", "lexical"),
	}}
	c := newTestCoordinator(primary, secondary)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	err := c.Retrieve(context.Background(), qc, testTenant("vector,lexical"))

	assert.NoError(t, err)
	assert.Len(t, qc.Candidates, 3)
	// doc-1 came from both backends; the higher priority copy wins.
	assert.Equal(t, "doc-1", qc.Candidates[0].CanonicalID)
	assert.Equal(t, "vector", qc.Candidates[0].Backend)
	assert.Equal(t, "doc-2", qc.Candidates[1].CanonicalID)
	assert.Equal(t, "doc-3", qc.Candidates[2].CanonicalID)
	for i, got := range qc.Candidates {
		assert.Equal(t, i, got.RetrievalRank)
	}
	assert.Empty(t, qc.Degradations)
}

func TestRetrievePriorityFollowsTenantConfig(t *testing.T) {
	vector := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
	}}
	lexical := &fakeBackend{name: "lexical", candidates: []store.Candidate{
		cand("doc-1", "demo", "lexical"),
	}}
	c := newTestCoordinator(vector, lexical)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	err := c.Retrieve(context.Background(), qc, testTenant("lexical,vector"))

	assert.NoError(t, err)
	assert.Len(t, qc.Candidates, 1)
	assert.Equal(t, "lexical", qc.Candidates[0].Backend)
}

func TestRetrieveDropsMismatchedTenant(t *testing.T) {
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
		cand("doc-2", "other-tenant", "vector"),
	}}
	c := newTestCoordinator(backend)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	err := c.Retrieve(context.Background(), qc, testTenant("vector"))

	assert.NoError(t, err)
	assert.Len(t, qc.Candidates, 1)
	assert.Equal(t, "doc-1", qc.Candidates[0].CanonicalID)
}

func TestRetrievePartialFailureDegrades(t *testing.T) {
	healthy := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
	}}
	broken := &fakeBackend{name: "lexical", err: errors.New("index offline")}
	c := newTestCoordinator(healthy, broken)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	err := c.Retrieve(context.Background(), qc, testTenant("vector,lexical"))

	assert.NoError(t, err)
	assert.True(t, qc.Partial())
	assert.Len(t, qc.Candidates, 1)
}

func TestRetrieveTotalFailure(t *testing.T) {
	a := &fakeBackend{name: "vector", err: errors.New("down")}
	b := &fakeBackend{name: "lexical", err: errors.New("down")}
	c := newTestCoordinator(a, b)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	err := c.Retrieve(context.Background(), qc, testTenant("vector,lexical"))

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Empty(t, qc.Candidates)
}

func TestRetrieveFallsBackToVector(t *testing.T) {
	vector := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
	}}
	c := newTestCoordinator(vector)
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)

	// No configured backend matches a registered one.
	err := c.Retrieve(context.Background(), qc, testTenant("sparse,graph"))

	assert.NoError(t, err)
	assert.Len(t, qc.Candidates, 1)
}

func TestRetrieveFanoutQueriesDeduplicate(t *testing.T) {
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{
		cand("doc-1", "demo", "vector"),
	}}
	c := newTestCoordinator(backend)
	qc := state.NewQueryContext("demo", uuid.New(), "red shoes", nil)
	qc.RewrittenQueries = []string{"crimson sneakers", "scarlet footwear"}

	err := c.Retrieve(context.Background(), qc, testTenant("vector"))

	assert.NoError(t, err)
	// Three queries all returned the same document; it appears once.
	assert.Len(t, qc.Candidates, 1)
}
