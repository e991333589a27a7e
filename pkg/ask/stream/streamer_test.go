package stream

import (
	"errors"
	"testing"

	"asksite-be/internal/pkg/logger"
	"asksite-be/pkg/ask/state"
	"asksite-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	frames    []Frame
	failAfter int // fail every Send once this many frames were accepted; -1 never fails
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failAfter: -1}
}

func (s *recordingSink) Send(frame Frame) error {
	if s.failAfter >= 0 && len(s.frames) >= s.failAfter {
		return errors.New("broken pipe")
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSink) ofType(frameType string) []Frame {
	out := make([]Frame, 0)
	for _, f := range s.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func scoredCand(id string, score int) store.Candidate {
	return store.Candidate{CanonicalID: id, Name: id, Tenant: "demo", Score: score, Scored: true}
}

func TestOfferEmitsAboveThreshold(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	s.Offer(scoredCand("high", 90))
	s.Offer(scoredCand("edge", 59)) // threshold is exclusive
	s.Offer(scoredCand("low", 10))

	partials := sink.ofType(FramePartialResult)
	assert.Len(t, partials, 1)
	assert.Equal(t, "high", partials[0].Results[0].Candidate.CanonicalID)
	assert.Equal(t, 0, partials[0].Results[0].Position)
	assert.Equal(t, 1, s.EmittedCount())
}

func TestOfferAssignsMonotonicPositions(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	s.Offer(scoredCand("a", 70))
	s.Offer(scoredCand("b", 95))
	s.Offer(scoredCand("a", 70)) // repeat offers are ignored

	partials := sink.ofType(FramePartialResult)
	assert.Len(t, partials, 2)
	assert.Equal(t, 0, partials[0].Results[0].Position)
	assert.Equal(t, 1, partials[1].Results[0].Position)
}

func TestFinishAppendsRemainderWithoutReemitting(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	early := scoredCand("early", 88)
	s.Offer(early)

	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)
	// Final rank order puts a higher scored late arrival first; the early
	// candidate's position must not move.
	qc.Candidates = []store.Candidate{
		scoredCand("late-best", 95),
		early,
		scoredCand("late-ok", 40),
	}
	s.Finish(qc)

	partials := sink.ofType(FramePartialResult)
	assert.Len(t, partials, 2)
	assert.Equal(t, "early", partials[0].Results[0].Candidate.CanonicalID)
	assert.Equal(t, 0, partials[0].Results[0].Position)

	remainder := partials[1].Results
	assert.Len(t, remainder, 2)
	assert.Equal(t, "late-best", remainder[0].Candidate.CanonicalID)
	assert.Equal(t, 1, remainder[0].Position)
	assert.Equal(t, "late-ok", remainder[1].Candidate.CanonicalID)
	assert.Equal(t, 2, remainder[1].Position)

	finals := sink.ofType(FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, OutcomeComplete, finals[0].Outcome)
}

func TestFinishPartialOutcome(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)
	qc.MarkDegraded(state.DegradedPartialBackends)
	qc.Candidates = []store.Candidate{scoredCand("a", 80)}
	s.Finish(qc)

	finals := sink.ofType(FrameFinal)
	assert.Len(t, finals, 1)
	assert.Equal(t, OutcomePartial, finals[0].Outcome)
	assert.Equal(t, []string{state.DegradedPartialBackends}, finals[0].Degradations)
}

func TestLimitCapsEmission(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 2)

	s.Offer(scoredCand("a", 90))
	s.Offer(scoredCand("b", 90))
	s.Offer(scoredCand("c", 90))

	assert.Equal(t, 2, s.EmittedCount())

	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)
	qc.Candidates = []store.Candidate{
		scoredCand("a", 90), scoredCand("b", 90), scoredCand("d", 70),
	}
	s.Finish(qc)

	// d does not fit; only the terminal frame goes out.
	assert.Equal(t, 2, s.EmittedCount())
	assert.Len(t, sink.ofType(FramePartialResult), 2)
	assert.Len(t, sink.ofType(FrameFinal), 1)
}

func TestFinishNotRelevantEmitsSingleFinalFrame(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	s.FinishNotRelevant()
	s.FinishNotRelevant()
	s.Offer(scoredCand("a", 99))

	assert.Len(t, sink.frames, 1)
	assert.Equal(t, FrameFinal, sink.frames[0].Type)
	assert.Equal(t, OutcomeNotRelevant, sink.frames[0].Outcome)
}

func TestDisconnectCancelsAndSilences(t *testing.T) {
	sink := newRecordingSink()
	sink.failAfter = 1

	cancelled := false
	s := NewStreamer(sink, func() { cancelled = true }, logger.NewNoopLogger(), "req-1", 59, 10)

	s.Offer(scoredCand("a", 90)) // accepted
	s.Offer(scoredCand("b", 90)) // sink fails, stream disconnects

	assert.True(t, s.Disconnected())
	assert.True(t, cancelled)

	// Everything after the disconnect is a no-op.
	s.EmitStatus(state.StatusRanking)
	s.Fail("internal", "boom")
	qc := state.NewQueryContext("demo", uuid.New(), "q", nil)
	s.Finish(qc)

	assert.Len(t, sink.frames, 1)
}

func TestFailEmitsErrorFrame(t *testing.T) {
	sink := newRecordingSink()
	s := NewStreamer(sink, nil, logger.NewNoopLogger(), "req-1", 59, 10)

	s.EmitStatus(state.StatusAnalyzing)
	s.Fail("backend_unavailable", "all backends failed")
	s.EmitStatus(state.StatusRanking) // terminal, dropped

	assert.Len(t, sink.frames, 2)
	errFrame := sink.frames[1]
	assert.Equal(t, FrameError, errFrame.Type)
	assert.Equal(t, "backend_unavailable", errFrame.ErrorKind)
	assert.Equal(t, "all backends failed", errFrame.Message)
}
