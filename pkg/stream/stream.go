// Package stream defines the typed segment sink through which the ReAct
// engine reports progress to a transport. It is the only channel C9 uses to
// talk to the outside world; every other component receives a Sink (or
// nothing) as an argument, never a transport reference of its own.
package stream

import "sync"

// Type tags a fragment of engine output. Order of emission within a single
// turn is meaningful: a caller observing a transition of Type may assume the
// prior segment is closed.
type Type string

const (
	Thinking   Type = "THINKING"
	Reasoning  Type = "REASONING"
	Action     Type = "ACTION"
	Observation Type = "OBSERVATION"
	Answer     Type = "ANSWER"
	Ask        Type = "ASK"
	Error      Type = "ERROR"
	Content    Type = "CONTENT"
)

// FrontendToolCallPrefix is the sentinel line a transport must forward
// verbatim for an ACTION segment describing a browser tool dispatch.
// Clients detect this prefix and act on the JSON payload that follows it.
const FrontendToolCallPrefix = "[FRONTEND_TOOL_CALL] "

// Sink receives typed fragments emitted during a single turn. Implementations
// must be safe for the emission pattern the engine uses: one goroutine emits
// per turn, but a session's sink may be read by unrelated monitoring code
// concurrently, so Emit itself must be safe to call from one goroutine while
// another reads accumulated state off a recording sink.
type Sink interface {
	Emit(t Type, chunk string)
}

// Func adapts a plain function to the Sink interface.
type Func func(t Type, chunk string)

func (f Func) Emit(t Type, chunk string) { f(t, chunk) }

// Discard is a Sink that drops everything. Useful when a caller wants a
// synchronous Response from C2 without streaming segments anywhere.
var Discard Sink = Func(func(Type, string) {})

// Segment is one recorded (Type, chunk) pair, used by Recorder and by tests
// asserting on emission order.
type Segment struct {
	Type  Type
	Chunk string
}

// Recorder is a Sink that appends every emission to an in-memory slice,
// preserving emission order. Safe for concurrent Emit calls; Segments()
// returns a snapshot copy.
type Recorder struct {
	mu       sync.Mutex
	segments []Segment
}

// NewRecorder returns a ready-to-use Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(t Type, chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, Segment{Type: t, Chunk: chunk})
}

// Segments returns a snapshot of everything recorded so far, in emission
// order.
func (r *Recorder) Segments() []Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Segment, len(r.segments))
	copy(out, r.segments)
	return out
}

// Tee fans out emissions to multiple sinks in the order given, so a turn can
// be streamed to a transport and recorded for metrics/tests simultaneously.
func Tee(sinks ...Sink) Sink {
	return Func(func(t Type, chunk string) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(t, chunk)
			}
		}
	})
}
