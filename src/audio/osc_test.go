package audio

import (
	"math"
	"testing"
)

func TestNoteToFreq(t *testing.T) {
	expectEqual(t, noteToFreq(69), float32(440))
	expectEqual(t, noteToFreq(81), float32(880))
	expectEqual(t, noteToFreq(57), float32(220))
	expectNearlyEqual(t, float64(noteToFreq(60)), 261.6256)
	expectNearlyEqual(t, float64(noteToFreq(0)), 8.1758)
}

func TestNoteToFreqOutOfRange(t *testing.T) {
	// not rejected, the curve just continues
	expectEqual(t, noteToFreq(141), float32(440*64))
	expectEqual(t, noteToFreq(-3), float32(440.0/64))
}

func TestOscillateAtZero(t *testing.T) {
	for _, freq := range []float32{0, 1, 440, 12345.6, -20} {
		expectEqual(t, oscillate(0, freq), float32(0))
	}
}

func TestOscillateRange(t *testing.T) {
	freq := noteToFreq(69)
	for i := 0; i < 48000; i++ {
		v := oscillate(float32(i)/48000, freq)
		if v < -1 || v > 1 || math.IsNaN(float64(v)) {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}

func TestOscillatePeak(t *testing.T) {
	// a quarter period in
	expectNearlyEqual(t, float64(oscillate(1.0/(4*440), 440)), 1)
	expectNearlyEqual(t, float64(oscillate(3.0/(4*440), 440)), -1)
}
