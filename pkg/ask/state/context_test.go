package state

import (
	"testing"

	"asksite-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveQuery(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		decontext string
		want      string
	}{
		{
			name: "raw only",
			raw:  "opening hours",
			want: "opening hours",
		},
		{
			name:      "decontextualized wins",
			raw:       "what about the second one",
			decontext: "opening hours of the second branch",
			want:      "opening hours of the second branch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qc := NewQueryContext("demo", uuid.New(), tt.raw, nil)
			qc.DecontextualizedQuery = tt.decontext
			assert.Equal(t, tt.want, qc.EffectiveQuery())
		})
	}
}

func TestRetrievalQueries(t *testing.T) {
	qc := NewQueryContext("demo", uuid.New(), "red shoes", nil)
	assert.Equal(t, []string{"red shoes"}, qc.RetrievalQueries())

	qc.RewrittenQueries = []string{"red sneakers", "crimson footwear"}
	assert.Equal(t, []string{"red sneakers", "crimson footwear", "red shoes"}, qc.RetrievalQueries())
}

func TestMarkDegradedDedupe(t *testing.T) {
	qc := NewQueryContext("demo", uuid.New(), "q", []store.Turn{{Role: "user", Content: "hi"}})

	qc.MarkDegraded(DegradedRanking)
	qc.MarkDegraded(DegradedRanking)
	qc.MarkDegraded(DegradedPartialBackends)

	assert.Equal(t, []string{DegradedRanking, DegradedPartialBackends}, qc.Degradations)
	assert.True(t, qc.IsDegraded(DegradedRanking))
	assert.True(t, qc.Partial())
	assert.False(t, qc.IsDegraded(DegradedToolSelection))
}
