package audio

import (
	"math"
)

const baseNote = 69
const baseFreq = 440.0

// ----- Note ----- //

func noteToFreq(note int) float32 {
	return float32(baseFreq * math.Pow(2, float64(note-baseNote)/12))
}

// ----- OSC ----- //

// There is no phase accumulator: the phase is derived from the time since
// the last note-on, so it restarts at 0 on every trigger.
func oscillate(t float32, freq float32) float32 {
	return float32(math.Sin(float64(t * freq * 2.0 * math.Pi)))
}
