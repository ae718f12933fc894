package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// ----- Atomic Float ----- //

type atomicFloat struct {
	bits atomic.Uint32
}

func newAtomicFloat(value float32) *atomicFloat {
	f := &atomicFloat{}
	f.set(value)
	return f
}
func (f *atomicFloat) get() float32 {
	return math.Float32frombits(f.bits.Load())
}
func (f *atomicFloat) set(value float32) {
	f.bits.Store(math.Float32bits(value))
}

// ----- Params ----- //

const (
	paramVolume = iota
	paramAttack
	paramDecay
	paramSustain
	paramRelease
	paramCount
)

var paramNames = [paramCount]string{"Volume", "Attack", "Decay", "Sustain", "Release"}
var paramLabels = [paramCount]string{"%", "s", "s", "%", "s"}
var paramKeys = [paramCount]string{"volume", "attack", "decay", "sustain", "release"}

// Params holds the five voice controls. Every value can be read and written
// from any goroutine; there is no atomicity across values.
type Params struct {
	volume  *atomicFloat // 0-1
	attack  *atomicFloat // sec
	decay   *atomicFloat // sec
	sustain *atomicFloat // 0-1
	release *atomicFloat // sec
}

type paramsJSON struct {
	Volume  float32 `json:"volume"`
	Attack  float32 `json:"attack"`
	Decay   float32 `json:"decay"`
	Sustain float32 `json:"sustain"`
	Release float32 `json:"release"`
}

// NewParams ...
func NewParams() *Params {
	return &Params{
		volume:  newAtomicFloat(0.5),
		attack:  newAtomicFloat(0.01),
		decay:   newAtomicFloat(0.1),
		sustain: newAtomicFloat(0.5),
		release: newAtomicFloat(0.1),
	}
}

func (p *Params) cell(index int) *atomicFloat {
	switch index {
	case paramVolume:
		return p.volume
	case paramAttack:
		return p.attack
	case paramDecay:
		return p.decay
	case paramSustain:
		return p.sustain
	case paramRelease:
		return p.release
	}
	return nil
}

// Get returns the value at index, or 0 for an unknown index.
func (p *Params) Get(index int) float32 {
	c := p.cell(index)
	if c == nil {
		return 0
	}
	return c.get()
}

// Set stores value at index. Unknown indices are ignored.
func (p *Params) Set(index int, value float32) {
	c := p.cell(index)
	if c == nil {
		return
	}
	c.set(value)
}

// Name ...
func (p *Params) Name(index int) string {
	if index < 0 || index >= paramCount {
		return ""
	}
	return paramNames[index]
}

// Label ...
func (p *Params) Label(index int) string {
	if index < 0 || index >= paramCount {
		return ""
	}
	return paramLabels[index]
}

// Count ...
func (p *Params) Count() int {
	return paramCount
}

func (p *Params) adsrValues() adsrValues {
	return adsrValues{
		attack:  p.attack.get(),
		decay:   p.decay.get(),
		sustain: p.sustain.get(),
		release: p.release.get(),
	}
}

// SetByName stores value under a lower-case key such as "attack".
func (p *Params) SetByName(key string, value float32) error {
	for i, k := range paramKeys {
		if k == key {
			p.Set(i, value)
			return nil
		}
	}
	return fmt.Errorf("unknown param %q", key)
}

func (p *Params) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return p.SetByName(key, float32(v))
}

// non-finite values make this fail, since JSON has no NaN or Inf
func (p *Params) toJSON() (json.RawMessage, error) {
	return json.Marshal(&paramsJSON{
		Volume:  p.volume.get(),
		Attack:  p.attack.get(),
		Decay:   p.decay.get(),
		Sustain: p.sustain.get(),
		Release: p.release.get(),
	})
}
