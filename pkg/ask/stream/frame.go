package stream

import "asksite-be/pkg/store"

// Frame types, in the order a caller may observe them.
const (
	FrameStatus        = "status"
	FramePartialResult = "partial_result"
	FrameFinal         = "final"
	FrameError         = "error"
)

// Overall outcomes carried by the final frame.
const (
	OutcomeComplete    = "complete"
	OutcomePartial     = "partial"
	OutcomeNotRelevant = "not-relevant"
)

// PositionedCandidate is a candidate bound to its fixed stream position.
// A position is assigned exactly once and never reused or reordered.
type PositionedCandidate struct {
	Position  int             `json:"position"`
	Candidate store.Candidate `json:"candidate"`
}

// Frame is one unit of the outbound stream. Exactly one of the optional
// field groups is populated, keyed by Type.
type Frame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`

	// status
	Status string `json:"status,omitempty"`

	// partial_result
	Results []PositionedCandidate `json:"results,omitempty"`

	// final
	Outcome      string   `json:"outcome,omitempty"`
	Degradations []string `json:"degradations,omitempty"`

	// error
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Sink is the transport side of the stream. Send returning an error
// means the caller is gone; the streamer treats it as a disconnect.
type Sink interface {
	Send(frame Frame) error
}
