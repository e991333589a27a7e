package events

import (
	"time"

	"asksite-be/pkg/ask/state"
)

const (
	TypeAskCompleted = "ASK_COMPLETED"
	TypeAskFailed    = "ASK_FAILED"
)

// NewAskCompleted builds the event emitted after a request reaches a
// terminal state, successful or not.
func NewAskCompleted(qc *state.QueryContext) Event {
	eventType := TypeAskCompleted
	if qc.Status == state.StatusFailed {
		eventType = TypeAskFailed
	}
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"request_id":   qc.ID.String(),
			"tenant":       qc.Tenant,
			"query":        qc.RawQuery,
			"tool":         qc.SelectedTool,
			"status":       qc.Status,
			"degradations": qc.Degradations,
			"result_count": len(qc.Candidates),
			"duration_ms":  qc.Elapsed().Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}
