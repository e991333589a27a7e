package stream

import (
	"context"
	"sync"

	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/store"
)

// Streamer owns the outbound frame sequence for one request. Candidates
// scoring above the early-send threshold are emitted as soon as they are
// scored; their positions are fixed at emission and never revised. The
// remainder is appended in final rank order when ranking completes, so
// the emitted prefix stays stable.
//
// A failed Send marks the stream disconnected and cancels the pipeline;
// every later call becomes a no-op.
type Streamer struct {
	sink   Sink
	cancel context.CancelFunc
	logger logger.ILogger

	requestID  string
	earlyScore int
	limit      int

	mu           sync.Mutex
	positions    map[string]int // canonical id -> emitted position
	nextPos      int
	disconnected bool
	terminal     bool
}

// NewStreamer wires a sink to the pipeline's cancel function. earlyScore
// is the exclusive lower bound for early emission; limit caps the total
// number of emitted candidates.
func NewStreamer(sink Sink, cancel context.CancelFunc, log logger.ILogger, requestID string, earlyScore, limit int) *Streamer {
	return &Streamer{
		sink:       sink,
		cancel:     cancel,
		logger:     log,
		requestID:  requestID,
		earlyScore: earlyScore,
		limit:      limit,
		positions:  make(map[string]int),
	}
}

// EmitStatus announces a phase transition.
func (s *Streamer) EmitStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return
	}
	s.send(Frame{
		Type:      FrameStatus,
		RequestID: s.requestID,
		Status:    status,
	})
}

// Offer is the ranker's scored callback. A candidate above the early
// threshold is emitted immediately at the next free position. Safe for
// concurrent use.
func (s *Streamer) Offer(cand store.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return
	}
	if cand.Score <= s.earlyScore {
		return
	}
	if _, sent := s.positions[cand.CanonicalID]; sent {
		return
	}
	if s.nextPos >= s.limit {
		return
	}

	pos := s.nextPos
	s.nextPos++
	s.positions[cand.CanonicalID] = pos
	s.send(Frame{
		Type:      FramePartialResult,
		RequestID: s.requestID,
		Results:   []PositionedCandidate{{Position: pos, Candidate: cand}},
	})
}

// Finish appends every not-yet-emitted candidate from the final ranked
// list, in order, then emits the terminal frame. Candidates already
// emitted keep their original positions.
func (s *Streamer) Finish(qc *state.QueryContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return
	}

	remainder := make([]PositionedCandidate, 0)
	for _, cand := range qc.Candidates {
		if _, sent := s.positions[cand.CanonicalID]; sent {
			continue
		}
		if s.nextPos >= s.limit {
			break
		}
		pos := s.nextPos
		s.nextPos++
		s.positions[cand.CanonicalID] = pos
		remainder = append(remainder, PositionedCandidate{Position: pos, Candidate: cand})
	}
	if len(remainder) > 0 {
		if !s.send(Frame{
			Type:      FramePartialResult,
			RequestID: s.requestID,
			Results:   remainder,
		}) {
			return
		}
	}

	outcome := OutcomeComplete
	if qc.Partial() {
		outcome = OutcomePartial
	}
	s.terminal = true
	s.send(Frame{
		Type:         FrameFinal,
		RequestID:    s.requestID,
		Outcome:      outcome,
		Degradations: qc.Degradations,
	})
}

// FinishNotRelevant emits the single terminal frame for a query outside
// the tenant's content. No partial results precede it.
func (s *Streamer) FinishNotRelevant() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return
	}
	s.terminal = true
	s.send(Frame{
		Type:      FrameFinal,
		RequestID: s.requestID,
		Outcome:   OutcomeNotRelevant,
	})
}

// Fail emits the terminal error frame.
func (s *Streamer) Fail(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done() {
		return
	}
	s.terminal = true
	s.send(Frame{
		Type:      FrameError,
		RequestID: s.requestID,
		ErrorKind: kind,
		Message:   message,
	})
}

// Disconnected reports whether the caller went away.
func (s *Streamer) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// EmittedCount returns how many candidate positions have been assigned.
func (s *Streamer) EmittedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextPos
}

func (s *Streamer) done() bool {
	return s.disconnected || s.terminal
}

// send pushes a frame; callers hold s.mu. Returns false on disconnect.
func (s *Streamer) send(frame Frame) bool {
	if err := s.sink.Send(frame); err != nil {
		s.disconnected = true
		s.logger.Info("stream", "caller disconnected, cancelling pipeline", map[string]interface{}{
			"request_id": s.requestID,
			"error":      err.Error(),
		})
		if s.cancel != nil {
			s.cancel()
		}
		return false
	}
	return true
}
