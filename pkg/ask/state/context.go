package state

import (
	"time"

	"asksite-be/pkg/store"

	"github.com/google/uuid"
)

// Status values for the per-request pipeline lifecycle.
const (
	StatusCreated    = "created"
	StatusAnalyzing  = "analyzing"
	StatusSelecting  = "selecting"
	StatusRetrieving = "retrieving"
	StatusRanking    = "ranking"
	StatusStreaming  = "streaming"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Degradation markers recorded when a component recovers locally instead of
// failing the request.
const (
	DegradedDecontextualize = "decontextualize_fallback"
	DegradedMemoryCheck     = "memory_check_fallback"
	DegradedRequiredInfo    = "required_info_fallback"
	DegradedToolSelection   = "tool_selection_fallback"
	DegradedPartialBackends = "partial_backends"
	DegradedRanking         = "ranking_fallback"
	DegradedStatistics      = "statistics_fallback"
)

// QueryContext is the request-scoped state threaded through every pipeline
// phase. One per inbound request, owned by the pipeline, never shared.
type QueryContext struct {
	ID        uuid.UUID
	Tenant    string    // opaque tenant slug, immutable after creation
	TenantUID uuid.UUID // resolved primary key for repository scoping

	RawQuery              string
	DecontextualizedQuery string
	History               []store.Turn
	Fanout                bool // request opted into query fan-out

	// Analyzer output
	Relevant         bool
	RewrittenQueries []string
	MemoryRequest    string // detected "remember this" content, "" if absent
	RequiredInfo     string // info the answer cannot proceed without, "" if absent

	SelectedTool string

	Candidates []store.Candidate

	Status       string
	Degradations []string
	StartedAt    time.Time
}

func NewQueryContext(tenant string, tenantUID uuid.UUID, rawQuery string, history []store.Turn) *QueryContext {
	return &QueryContext{
		ID:        uuid.New(),
		Tenant:    tenant,
		TenantUID: tenantUID,
		RawQuery:  rawQuery,
		History:   history,
		Status:    StatusCreated,
		StartedAt: time.Now(),
	}
}

// EffectiveQuery returns the decontextualized query when analysis produced
// one, otherwise the raw query.
func (q *QueryContext) EffectiveQuery() string {
	if q.DecontextualizedQuery != "" {
		return q.DecontextualizedQuery
	}
	return q.RawQuery
}

// RetrievalQueries returns the fan-out set: rewritten sub-queries plus the
// effective query, or just the effective query when fan-out is off.
func (q *QueryContext) RetrievalQueries() []string {
	queries := make([]string, 0, len(q.RewrittenQueries)+1)
	queries = append(queries, q.RewrittenQueries...)
	queries = append(queries, q.EffectiveQuery())
	return queries
}

func (q *QueryContext) MarkDegraded(marker string) {
	for _, d := range q.Degradations {
		if d == marker {
			return
		}
	}
	q.Degradations = append(q.Degradations, marker)
}

func (q *QueryContext) IsDegraded(marker string) bool {
	for _, d := range q.Degradations {
		if d == marker {
			return true
		}
	}
	return false
}

// Partial reports whether at least one (but not every) retrieval backend
// failed for this request.
func (q *QueryContext) Partial() bool {
	return q.IsDegraded(DegradedPartialBackends)
}

func (q *QueryContext) Elapsed() time.Duration {
	return time.Since(q.StartedAt)
}
