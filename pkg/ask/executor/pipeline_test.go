package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/specification"
	"asksite-be/pkg/ask/analysis"
	"asksite-be/pkg/ask/ranking"
	"asksite-be/pkg/ask/retrieval"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/ask/stream"
	"asksite-be/pkg/ask/tools"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
	"asksite-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// pipelineProvider answers every analysis, selection, ranking, and
// aggregation prompt the pipeline issues, routed by distinctive prompt
// substrings. Every Generate call is counted.
type pipelineProvider struct {
	relevant   bool
	tool       string
	scores     map[string]int
	statsText  string
	statsBroke bool

	calls int64
}

func (p *pipelineProvider) callCount() int64 {
	return atomic.LoadInt64(&p.calls)
}

func (p *pipelineProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (p *pipelineProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	atomic.AddInt64(&p.calls, 1)

	switch {
	case strings.Contains(prompt, "answered using content from this site"):
		return fmt.Sprintf(`{"relevant": %t, "explanation": "checked"}`, p.relevant), nil
	case strings.Contains(prompt, "fully self-contained"):
		return `{"requires_rewrite": false, "query": ""}`, nil
	case strings.Contains(prompt, "lasting preference"):
		return `{"is_memory_request": false, "content": ""}`, nil
	case strings.Contains(prompt, "missing information that is required"):
		return `{"missing_info": false, "explanation": ""}`, nil
	case strings.Contains(prompt, "Pick the single tool"):
		tool := p.tool
		if tool == "" {
			tool = catalog.ToolSearch
		}
		return fmt.Sprintf(`{"tool": %q, "confidence": 0.9, "reasoning": "classified"}`, tool), nil
	case strings.Contains(prompt, "aggregate question"):
		if p.statsBroke {
			return "", errors.New("aggregation unavailable")
		}
		return fmt.Sprintf(`{"answer": %q}`, p.statsText), nil
	case strings.Contains(prompt, "candidate result"):
		for name, score := range p.scores {
			if strings.Contains(prompt, "Name: "+name+"\n") {
				return fmt.Sprintf(`{"score": %d, "description": "about %s"}`, score, name), nil
			}
		}
		return "", errors.New("no score configured")
	default:
		return "", errors.New("unexpected prompt")
	}
}

type emptyCatalogRepo struct{}

func (emptyCatalogRepo) CreateTool(ctx context.Context, tool *entity.ToolDefinition) error { return nil }
func (emptyCatalogRepo) CreatePrompt(ctx context.Context, prompt *entity.PromptTemplate) error {
	return nil
}
func (emptyCatalogRepo) FindTools(ctx context.Context, tenantId uuid.UUID) ([]*entity.ToolDefinition, error) {
	return nil, nil
}
func (emptyCatalogRepo) FindPrompt(ctx context.Context, tenantId uuid.UUID, key string) (*entity.PromptTemplate, error) {
	return nil, nil
}
func (emptyCatalogRepo) FindAllPrompts(ctx context.Context, specs ...specification.Specification) ([]*entity.PromptTemplate, error) {
	return nil, nil
}

type fakeBackend struct {
	name       string
	candidates []store.Candidate
	err        error
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Query(ctx context.Context, tenant *entity.Tenant, query string, k int) ([]store.Candidate, error) {
	return b.candidates, b.err
}

type recordingSink struct {
	frames  []stream.Frame
	sendErr error
}

func (s *recordingSink) Send(frame stream.Frame) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSink) ofType(frameType string) []stream.Frame {
	out := make([]stream.Frame, 0)
	for _, f := range s.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func newTestPipeline(provider llm.LLMProvider, maxScoring int, backends ...retrieval.Backend) *Pipeline {
	log := logger.NewNoopLogger()
	gw := llm.NewGateway(provider, 16, time.Second)
	cat := catalog.NewCatalog(emptyCatalogRepo{}, log)

	analyzer := analysis.NewAnalyzer(gw, cat, log, time.Second, false)
	selector := tools.NewSelector(gw, cat, log, 0.7)
	coordinator := retrieval.NewCoordinator(backends, nil, log, time.Second, 5, 16)
	ranker := ranking.NewRanker(gw, cat, log, maxScoring, 10, 0)
	strategies := NewStrategySet(coordinator, ranker, gw, cat, log)

	return NewPipeline(analyzer, selector, strategies, log, 5*time.Second, 59, 10)
}

func pipelineTenant() *entity.Tenant {
	return &entity.Tenant{Id: uuid.New(), Slug: "demo", Name: "an online shoe store", Backends: "vector"}
}

func docCand(name string) store.Candidate {
	return store.Candidate{CanonicalID: "doc-" + name, Name: name, ContentChunk: "about " + name, Tenant: "demo", Backend: "vector"}
}

func TestExecuteHappyPath(t *testing.T) {
	provider := &pipelineProvider{relevant: true, scores: map[string]int{"alpha": 90, "beta": 30}}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha"), docCand("beta")}}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.NoError(t, err)
	assert.Equal(t, state.StatusCompleted, qc.Status)
	assert.Equal(t, catalog.ToolSearch, qc.SelectedTool)

	statuses := make([]string, 0)
	for _, f := range sink.ofType(stream.FrameStatus) {
		statuses = append(statuses, f.Status)
	}
	assert.Equal(t, []string{
		state.StatusAnalyzing, state.StatusSelecting, state.StatusRetrieving, state.StatusRanking,
	}, statuses)

	// alpha clears the early threshold and streams first; beta follows at
	// Finish. Positions never collide or regress.
	positions := make(map[int]string)
	for _, f := range sink.ofType(stream.FramePartialResult) {
		for _, r := range f.Results {
			_, taken := positions[r.Position]
			assert.False(t, taken)
			positions[r.Position] = r.Candidate.CanonicalID
		}
	}
	assert.Equal(t, map[int]string{0: "doc-alpha", 1: "doc-beta"}, positions)

	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, stream.OutcomeComplete, finals[0].Outcome)
	assert.Equal(t, stream.FrameFinal, sink.frames[len(sink.frames)-1].Type)
}

func TestExecuteNotRelevant(t *testing.T) {
	provider := &pipelineProvider{relevant: false}
	p := newTestPipeline(provider, 4, &fakeBackend{name: "vector"})

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "who won the world cup", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.NoError(t, err)
	assert.Equal(t, state.StatusCompleted, qc.Status)
	assert.Empty(t, sink.ofType(stream.FramePartialResult))

	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, stream.OutcomeNotRelevant, finals[0].Outcome)
}

func TestExecuteAllBackendsFail(t *testing.T) {
	provider := &pipelineProvider{relevant: true}
	backend := &fakeBackend{name: "vector", err: errors.New("index offline")}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.ErrorIs(t, err, retrieval.ErrBackendUnavailable)
	assert.Equal(t, state.StatusFailed, qc.Status)

	errFrames := sink.ofType(stream.FrameError)
	assert.Len(t, errFrames, 1)
	assert.Equal(t, ErrKindBackendUnavailable, errFrames[0].ErrorKind)
	assert.Empty(t, sink.ofType(stream.FrameFinal))
}

func TestExecutePartialBackends(t *testing.T) {
	provider := &pipelineProvider{relevant: true, scores: map[string]int{"alpha": 80}}
	healthy := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha")}}
	broken := &fakeBackend{name: "lexical", err: errors.New("index offline")}
	p := newTestPipeline(provider, 4, healthy, broken)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)
	tenant := pipelineTenant()
	tenant.Backends = "vector,lexical"

	err := p.Execute(context.Background(), qc, tenant, sink)

	assert.NoError(t, err)
	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, stream.OutcomePartial, finals[0].Outcome)
	assert.Contains(t, finals[0].Degradations, state.DegradedPartialBackends)
}

func TestExecuteStatisticsStrategy(t *testing.T) {
	provider := &pipelineProvider{
		relevant:  true,
		tool:      catalog.ToolStatistics,
		statsText: "You carry 2 models of running shoe.",
	}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha"), docCand("beta")}}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "how many running shoes do you carry", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.NoError(t, err)
	assert.Equal(t, catalog.ToolStatistics, qc.SelectedTool)

	// One synthesized aggregate result, not a ranked document list.
	partials := sink.ofType(stream.FramePartialResult)
	assert.Len(t, partials, 1)
	assert.Len(t, partials[0].Results, 1)
	got := partials[0].Results[0].Candidate
	assert.Equal(t, "You carry 2 models of running shoe.", got.Description)
	assert.Equal(t, "demo", got.Tenant)

	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, stream.OutcomeComplete, finals[0].Outcome)
	assert.Empty(t, finals[0].Degradations)
}

func TestExecuteStatisticsFallsBackToRankedList(t *testing.T) {
	provider := &pipelineProvider{
		relevant:   true,
		tool:       catalog.ToolStatistics,
		statsBroke: true,
		scores:     map[string]int{"alpha": 80, "beta": 70},
	}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha"), docCand("beta")}}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "how many running shoes do you carry", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.NoError(t, err)
	assert.True(t, qc.IsDegraded(state.DegradedStatistics))
	assert.Len(t, qc.Candidates, 2)

	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Contains(t, finals[0].Degradations, state.DegradedStatistics)
}

func TestExecuteItemDetailsStrategy(t *testing.T) {
	provider := &pipelineProvider{
		relevant: true,
		tool:     catalog.ToolItemDetails,
		scores:   map[string]int{"alpha": 40, "beta": 95},
	}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha"), docCand("beta")}}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "tell me about the trail runner", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.NoError(t, err)
	assert.Equal(t, catalog.ToolItemDetails, qc.SelectedTool)

	// Only the best match, delivered in one frame at completion.
	partials := sink.ofType(stream.FramePartialResult)
	assert.Len(t, partials, 1)
	assert.Len(t, partials[0].Results, 1)
	assert.Equal(t, "doc-beta", partials[0].Results[0].Candidate.CanonicalID)
	assert.Len(t, qc.Candidates, 1)
}

func TestExecuteUnknownToolRunsSearch(t *testing.T) {
	provider := &pipelineProvider{relevant: true, scores: map[string]int{"alpha": 80}}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{docCand("alpha")}}
	p := newTestPipeline(provider, 4, backend)

	sink := &recordingSink{}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)
	tenant := pipelineTenant()

	// Simulate a dispatch table missing the selected variant.
	delete(p.strategies, catalog.ToolEnsemble)
	provider.tool = catalog.ToolEnsemble

	err := p.Execute(context.Background(), qc, tenant, sink)

	assert.NoError(t, err)
	finals := sink.ofType(stream.FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, stream.OutcomeComplete, finals[0].Outcome)
}

func TestExecuteDisconnectedCallerStaysSilent(t *testing.T) {
	provider := &pipelineProvider{relevant: true}
	p := newTestPipeline(provider, 4, &fakeBackend{name: "vector"})

	sink := &recordingSink{sendErr: errors.New("broken pipe")}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.Error(t, err)
	assert.Equal(t, state.StatusFailed, qc.Status)
	assert.Empty(t, sink.frames)
}

// tripSink accepts frames until the first partial result, then reports
// the caller gone and snapshots the provider call count at that moment.
type tripSink struct {
	provider *pipelineProvider
	tripped  bool
	snapshot int64
}

func (s *tripSink) Send(frame stream.Frame) error {
	if s.tripped {
		return errors.New("broken pipe")
	}
	if frame.Type == stream.FramePartialResult {
		s.tripped = true
		s.snapshot = s.provider.callCount()
		return errors.New("broken pipe")
	}
	return nil
}

func TestExecuteDisconnectStopsGatewayCalls(t *testing.T) {
	provider := &pipelineProvider{
		relevant: true,
		scores:   map[string]int{"alpha": 90, "beta": 90, "gamma": 90},
	}
	backend := &fakeBackend{name: "vector", candidates: []store.Candidate{
		docCand("alpha"), docCand("beta"), docCand("gamma"),
	}}
	// Scoring concurrency of one serializes ranking calls, so the scorer
	// holds its slot through the early emit that trips the disconnect.
	p := newTestPipeline(provider, 1, backend)

	sink := &tripSink{provider: provider}
	qc := state.NewQueryContext("demo", uuid.New(), "what shoes do you sell", nil)

	err := p.Execute(context.Background(), qc, pipelineTenant(), sink)

	assert.Error(t, err)
	assert.Equal(t, state.StatusFailed, qc.Status)
	assert.True(t, sink.tripped)
	// Not a single completion starts after the disconnect is observed.
	assert.Equal(t, sink.snapshot, provider.callCount())
	assert.Greater(t, sink.snapshot, int64(0))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "backend", err: fmt.Errorf("wrap: %w", retrieval.ErrBackendUnavailable), want: ErrKindBackendUnavailable},
		{name: "capacity", err: llm.ErrCapacityExceeded, want: ErrKindCapacityExceeded},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrKindDeadlineExceeded},
		{name: "other", err: errors.New("boom"), want: ErrKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
