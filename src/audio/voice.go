package audio

const defaultSampleRate = 44100

// ----- MIDI Event ----- //

type noteOn struct {
	note     int
	velocity int
}
type noteOff struct {
	note int
}

// ----- Voice ----- //

// voice is owned by the audio goroutine. Events from other goroutines reach
// it through an eventQueue.
type voice struct {
	params        *Params
	sampleRate    float32
	time          float32 // sec since the last note on
	note          int
	gate          bool
	smoothRelease bool
}

func newVoice(params *Params) *voice {
	return &voice{
		params:     params,
		sampleRate: defaultSampleRate,
	}
}

func (v *voice) setSampleRate(sampleRate float32) {
	v.sampleRate = sampleRate
}

// velocity is accepted but does not change the amplitude.
func (v *voice) noteOn(note int, velocity int) {
	v.note = note
	v.gate = true
	v.time = 0
}

// a note off for any other note than the sounding one is stale
func (v *voice) noteOff(note int) {
	if v.note == note {
		v.gate = false
	}
}

func (v *voice) apply(event interface{}) {
	switch e := event.(type) {
	case noteOn:
		v.noteOn(e.note, e.velocity)
	case noteOff:
		v.noteOff(e.note)
	}
}

func (v *voice) step() float32 {
	wave := oscillate(v.time, noteToFreq(v.note))
	env := adsr(v.gate, v.time, v.params.adsrValues())
	return wave * env * v.params.volume.get()
}

// render writes samples frames into every channel of outputs. Without
// smoothRelease nothing is written while the gate is closed, so whatever the
// caller left in outputs stays there.
func (v *voice) render(outputs [][]float32, samples int) {
	secPerSample := 1 / v.sampleRate
	for i := 0; i < samples; i++ {
		if v.gate || v.smoothRelease {
			out := v.step()
			for _, ch := range outputs {
				ch[i] = out
			}
		}
		v.time += secPerSample
	}
}
