package audio

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams()
	expectEqual(t, p.Get(paramVolume), float32(0.5))
	expectEqual(t, p.Get(paramAttack), float32(0.01))
	expectEqual(t, p.Get(paramDecay), float32(0.1))
	expectEqual(t, p.Get(paramSustain), float32(0.5))
	expectEqual(t, p.Get(paramRelease), float32(0.1))
	expectEqual(t, p.Count(), 5)
}

func TestParamsIndex(t *testing.T) {
	p := NewParams()
	for i := 0; i < p.Count(); i++ {
		p.Set(i, float32(i)+0.25)
	}
	for i := 0; i < p.Count(); i++ {
		expectEqual(t, p.Get(i), float32(i)+0.25)
	}
	expectEqual(t, p.Get(-1), float32(0))
	expectEqual(t, p.Get(5), float32(0))
	p.Set(5, 3)
	p.Set(-1, 3)
	expectEqual(t, p.Get(5), float32(0))
	expectEqual(t, p.Get(paramVolume), float32(0.25))
}

func TestParamsNotClamped(t *testing.T) {
	p := NewParams()
	p.Set(paramSustain, -3)
	expectEqual(t, p.Get(paramSustain), float32(-3))
	p.Set(paramAttack, 0)
	expectEqual(t, p.Get(paramAttack), float32(0))
	p.Set(paramVolume, float32(math.NaN()))
	if !math.IsNaN(float64(p.Get(paramVolume))) {
		t.Errorf("expected NaN, but got: %v", p.Get(paramVolume))
	}
}

func TestParamsNamesAndLabels(t *testing.T) {
	p := NewParams()
	names := []string{"Volume", "Attack", "Decay", "Sustain", "Release"}
	labels := []string{"%", "s", "s", "%", "s"}
	for i := range names {
		expectEqual(t, p.Name(i), names[i])
		expectEqual(t, p.Label(i), labels[i])
	}
	expectEqual(t, p.Name(5), "")
	expectEqual(t, p.Label(-1), "")
}

func TestParamsSetByKey(t *testing.T) {
	p := NewParams()
	expectNoError(t, p.set("release", "1.5"))
	expectEqual(t, p.Get(paramRelease), float32(1.5))
	expectNoError(t, p.set("volume", "-0.5"))
	expectEqual(t, p.Get(paramVolume), float32(-0.5))
	expectError(t, p.set("release", "long"))
	expectError(t, p.set("cutoff", "1"))
	expectEqual(t, p.Get(paramRelease), float32(1.5))
}

func TestParamsJSON(t *testing.T) {
	p := NewParams()
	p.Set(paramDecay, 0.25)
	data, err := p.toJSON()
	expectNoError(t, err)
	var j paramsJSON
	expectNoError(t, json.Unmarshal(data, &j))
	expectEqual(t, j.Volume, float32(0.5))
	expectEqual(t, j.Decay, float32(0.25))

	p.Set(paramAttack, float32(math.Inf(1)))
	_, err = p.toJSON()
	expectError(t, err)
}

func TestParamsConcurrentAccess(t *testing.T) {
	p := NewParams()
	written := map[float32]bool{0.5: true, 0.125: true, 0.75: true}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			if i%2 == 0 {
				p.Set(paramVolume, 0.125)
			} else {
				p.Set(paramVolume, 0.75)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			v := p.Get(paramVolume)
			if !written[v] {
				t.Errorf("read a value that was never written: %v", v)
				return
			}
		}
	}()
	wg.Wait()
}
