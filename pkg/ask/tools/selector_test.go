package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/specification"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type cannedProvider struct {
	response string
	err      error
}

func (p *cannedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (p *cannedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.response, p.err
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

func newTestSelector(provider llm.LLMProvider) *Selector {
	gw := llm.NewGateway(provider, 4, time.Second)
	cat := catalog.NewCatalog(emptyCatalogRepo{}, logger.NewNoopLogger())
	return NewSelector(gw, cat, logger.NewNoopLogger(), 0.7)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		err          error
		wantTool     string
		wantDegraded bool
	}{
		{
			name:     "confident selection",
			response: `{"tool": "compare", "confidence": 0.92, "reasoning": "two named items"}`,
			wantTool: catalog.ToolCompare,
		},
		{
			name:     "casing and whitespace normalized",
			response: `{"tool": " Item_Details ", "confidence": 0.9, "reasoning": "one item"}`,
			wantTool: catalog.ToolItemDetails,
		},
		{
			name:     "low confidence falls back to search",
			response: `{"tool": "statistics", "confidence": 0.4, "reasoning": "unsure"}`,
			wantTool: catalog.ToolSearch,
		},
		{
			name:         "unknown tool falls back degraded",
			response:     `{"tool": "summarize", "confidence": 0.95, "reasoning": "made up"}`,
			wantTool:     catalog.ToolSearch,
			wantDegraded: true,
		},
		{
			name:         "gateway failure falls back degraded",
			err:          errors.New("provider down"),
			wantTool:     catalog.ToolSearch,
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSelector(&cannedProvider{response: tt.response, err: tt.err})
			qc := state.NewQueryContext("demo", uuid.New(), "compare the runner and the trail shoe", nil)

			s.Select(context.Background(), qc)

			assert.Equal(t, tt.wantTool, qc.SelectedTool)
			assert.Equal(t, tt.wantDegraded, qc.IsDegraded(state.DegradedToolSelection))
		})
	}
}

func TestSelectLowConfidenceIsNotDegraded(t *testing.T) {
	s := newTestSelector(&cannedProvider{response: `{"tool": "ensemble", "confidence": 0.2, "reasoning": "weak"}`})
	qc := state.NewQueryContext("demo", uuid.New(), "something to wear", nil)

	s.Select(context.Background(), qc)

	assert.Equal(t, catalog.ToolSearch, qc.SelectedTool)
	assert.Empty(t, qc.Degradations)
}
