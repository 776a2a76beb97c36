package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderPreservesOrder(t *testing.T) {
	r := NewRecorder()
	r.Emit(Thinking, "considering")
	r.Emit(Action, "[FRONTEND_TOOL_CALL] {}")
	r.Emit(Observation, "ok")
	r.Emit(Answer, "done")

	got := r.Segments()
	assert.Equal(t, []Segment{
		{Type: Thinking, Chunk: "considering"},
		{Type: Action, Chunk: "[FRONTEND_TOOL_CALL] {}"},
		{Type: Observation, Chunk: "ok"},
		{Type: Answer, Chunk: "done"},
	}, got)
}

func TestTeeFansOutToAllSinks(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	sink := Tee(a, b)

	sink.Emit(Content, "hello")

	assert.Equal(t, []Segment{{Type: Content, Chunk: "hello"}}, a.Segments())
	assert.Equal(t, []Segment{{Type: Content, Chunk: "hello"}}, b.Segments())
}

func TestTeeSkipsNilSinks(t *testing.T) {
	rec := NewRecorder()
	sink := Tee(nil, rec, nil)

	assert.NotPanics(t, func() { sink.Emit(Error, "boom") })
	assert.Equal(t, []Segment{{Type: Error, Chunk: "boom"}}, rec.Segments())
}

func TestDiscardDropsEverything(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Emit(Thinking, "ignored") })
}
