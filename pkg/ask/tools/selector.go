package tools

import (
	"context"
	"strings"

	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/llm"
)

type selectionResult struct {
	Tool       string  `json:"tool"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Selector classifies the query against the tenant's enabled tool set.
// Anything below the confidence threshold, and any gateway failure,
// falls back to the generic search tool.
type Selector struct {
	gateway   *llm.Gateway
	catalog   *catalog.Catalog
	logger    logger.ILogger
	threshold float64
}

func NewSelector(gateway *llm.Gateway, cat *catalog.Catalog, log logger.ILogger, threshold float64) *Selector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	return &Selector{
		gateway:   gateway,
		catalog:   cat,
		logger:    log,
		threshold: threshold,
	}
}

// Select sets qc.SelectedTool. It never fails the request: the search
// tool is always a valid answer.
func (s *Selector) Select(ctx context.Context, qc *state.QueryContext) {
	available, err := s.catalog.Tools(ctx, qc.TenantUID)
	if err != nil || len(available) == 0 {
		available = catalog.DefaultTools
	}

	prompt, err := s.catalog.Prompt(ctx, qc.TenantUID, catalog.PromptToolSelection, map[string]string{
		"Query": qc.EffectiveQuery(),
		"Tools": formatTools(available),
	})
	if err != nil {
		s.fallback(qc, "prompt render failed: "+err.Error())
		return
	}

	var result selectionResult
	if err := s.gateway.CompleteStructured(ctx, prompt, map[string]string{
		"tool":       "one of the listed tool keys",
		"confidence": "0.0 to 1.0",
		"reasoning":  "one sentence",
	}, &result); err != nil {
		s.fallback(qc, err.Error())
		return
	}

	result.Tool = strings.ToLower(strings.TrimSpace(result.Tool))
	if !containsTool(available, result.Tool) {
		s.fallback(qc, "classifier returned unknown tool: "+result.Tool)
		return
	}
	if result.Confidence < s.threshold {
		s.logger.Info("tools", "low-confidence selection, using search", map[string]interface{}{
			"request_id": qc.ID.String(),
			"tool":       result.Tool,
			"confidence": result.Confidence,
		})
		qc.SelectedTool = catalog.ToolSearch
		return
	}

	qc.SelectedTool = result.Tool
}

func (s *Selector) fallback(qc *state.QueryContext, reason string) {
	s.logger.Warn("tools", "tool selection failed, using search", map[string]interface{}{
		"request_id": qc.ID.String(),
		"reason":     reason,
	})
	qc.MarkDegraded(state.DegradedToolSelection)
	qc.SelectedTool = catalog.ToolSearch
}

func formatTools(available []catalog.ToolDefault) string {
	var b strings.Builder
	for _, t := range available {
		b.WriteString("- ")
		b.WriteString(t.Key)
		b.WriteString(": ")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func containsTool(available []catalog.ToolDefault, key string) bool {
	for _, t := range available {
		if t.Key == key {
			return true
		}
	}
	return false
}
