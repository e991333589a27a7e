package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
	delay    time.Duration
}

func (p *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.Generate(ctx, "", options...)
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.response, p.err
}

func TestGatewayComplete(t *testing.T) {
	provider := &stubProvider{response: "hello"}
	gw := NewGateway(provider, 4, time.Second)

	got, err := gw.Complete(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestGatewayProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("boom")}
	gw := NewGateway(provider, 4, time.Second)

	_, err := gw.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestGatewayTimeout(t *testing.T) {
	provider := &stubProvider{response: "late", delay: 200 * time.Millisecond}
	gw := NewGateway(provider, 4, 20*time.Millisecond)

	_, err := gw.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGatewayCapacityExceeded(t *testing.T) {
	provider := &stubProvider{response: "slow", delay: 300 * time.Millisecond}
	gw := NewGateway(provider, 1, time.Second)

	// Fill the only slot.
	go gw.Complete(context.Background(), "first")
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := gw.Complete(ctx, "second")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestGatewayCompleteStructured(t *testing.T) {
	provider := &stubProvider{response: "Sure! Here you go:\n```json\n{\"answer\": \"yes\", \"count\": 3}\n```"}
	gw := NewGateway(provider, 4, time.Second)

	var out struct {
		Answer string `json:"answer"`
		Count  int    `json:"count"`
	}
	err := gw.CompleteStructured(context.Background(), "classify", map[string]string{
		"answer": "yes or no",
		"count":  "an integer",
	}, &out)

	assert.NoError(t, err)
	assert.Equal(t, "yes", out.Answer)
	assert.Equal(t, 3, out.Count)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"a":1}`,
			want:     `{"a":1}`,
		},
		{
			name:     "fenced object",
			response: "```json\n{\"a\":1}\n```",
			want:     `{"a":1}`,
		},
		{
			name:     "prose around object",
			response: `Here is the result: {"a":1}. Hope it helps!`,
			want:     `{"a":1}`,
		},
		{
			name:     "no object",
			response: "I cannot answer that.",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.response))
		})
	}
}
