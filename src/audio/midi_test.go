package audio

import (
	"testing"
)

func TestDecodeMidi(t *testing.T) {
	expectEqual(t, decodeMidi([]byte{0x90, 60, 100}), noteOn{note: 60, velocity: 100})
	expectEqual(t, decodeMidi([]byte{0x93, 61, 1}), noteOn{note: 61, velocity: 1})
	expectEqual(t, decodeMidi([]byte{0x90, 60, 0}), noteOff{note: 60})
	expectEqual(t, decodeMidi([]byte{0x80, 60, 64}), noteOff{note: 60})
	expectEqual(t, decodeMidi([]byte{0x8f, 127, 0}), noteOff{note: 127})
	expectEqual(t, decodeMidi([]byte{0xb0, 7, 100}), nil)
	expectEqual(t, decodeMidi([]byte{0xe0, 0, 64}), nil)
	expectEqual(t, decodeMidi([]byte{0x90, 60}), nil)
	expectEqual(t, decodeMidi(nil), nil)
}

func TestEventQueueOrder(t *testing.T) {
	q := newEventQueue(8)
	v := newVoice(NewParams())
	expectEqual(t, q.push(noteOn{note: 60, velocity: 100}), true)
	expectEqual(t, q.push(noteOn{note: 64, velocity: 100}), true)
	expectEqual(t, q.push(noteOff{note: 64}), true)
	q.drainTo(v)
	expectEqual(t, v.note, 64)
	expectEqual(t, v.gate, false)

	q.drainTo(v)
	expectEqual(t, v.gate, false)
}

func TestEventQueueFull(t *testing.T) {
	q := newEventQueue(2)
	expectEqual(t, q.push(noteOn{note: 60}), true)
	expectEqual(t, q.push(noteOff{note: 60}), true)
	expectEqual(t, q.push(noteOn{note: 62}), false)

	v := newVoice(NewParams())
	q.drainTo(v)
	expectEqual(t, v.note, 60)
	expectEqual(t, v.gate, false)
	expectEqual(t, q.push(noteOn{note: 62}), true)
}
