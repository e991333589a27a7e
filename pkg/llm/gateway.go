package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Gateway wraps an LLMProvider with a process-wide in-flight cap and
// per-call timeouts. One Gateway exists per provider, shared by every
// request; the semaphore bounds total pressure on the upstream, not a
// single request.
type Gateway struct {
	provider LLMProvider
	sem      *semaphore.Weighted
	timeout  time.Duration
}

func NewGateway(provider LLMProvider, maxInflight int64, timeout time.Duration) *Gateway {
	if maxInflight <= 0 {
		maxInflight = 32
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Gateway{
		provider: provider,
		sem:      semaphore.NewWeighted(maxInflight),
		timeout:  timeout,
	}
}

// Complete runs a single-prompt completion under the gateway's capacity and
// timeout policy. Queueing for a slot respects ctx: a caller whose deadline
// expires while waiting gets ErrCapacityExceeded, not a hang.
func (g *Gateway) Complete(ctx context.Context, prompt string, options ...Option) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
	}
	defer g.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.provider.Generate(callCtx, prompt, options...)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return response, nil
}

// CompleteStructured asks for a JSON answer and unmarshals it into out.
// The prompt is extended with the expected structure so smaller models
// stay on format; stray prose around the JSON object is tolerated.
func (g *Gateway) CompleteStructured(ctx context.Context, prompt string, structure map[string]string, out interface{}, options ...Option) error {
	full := prompt + "\n\nRespond with ONLY valid JSON matching:\n" + describeStructure(structure)

	options = append(options, WithTemperature(0.0))
	response, err := g.Complete(ctx, full, options...)
	if err != nil {
		return err
	}

	jsonContent := ExtractJSON(response)
	if jsonContent == "" {
		return fmt.Errorf("%w: no JSON found in response", ErrProvider)
	}
	if err := json.Unmarshal([]byte(jsonContent), out); err != nil {
		return fmt.Errorf("%w: unmarshal structured response: %v", ErrProvider, err)
	}
	return nil
}

func describeStructure(structure map[string]string) string {
	var b strings.Builder
	b.WriteString("{\n")
	first := true
	for field, desc := range structure {
		if !first {
			b.WriteString(",\n")
		}
		first = false
		fmt.Fprintf(&b, "  %q: %q", field, desc)
	}
	b.WriteString("\n}")
	return b.String()
}

// ExtractJSON pulls the outermost JSON object out of a model response that
// may wrap it in markdown fences or prose.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
