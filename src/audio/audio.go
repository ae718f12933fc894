package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"

	"github.com/hajimehoshi/oto"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
	eventQueueSize  = 1024
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

var fft = NewFFT(fftSize)

// ----- Config ----- //

// Config ...
type Config struct {
	SampleRate int
	// SmoothRelease keeps writing output after note off so the release ramp
	// is audible. Without it a released note cuts off at once.
	SmoothRelease bool
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		SmoothRelease: false,
	}
}

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	Params     *Params
	Changes    *Changes
	sampleRate int
	voice      *voice
	events     *eventQueue
	channels   [][]float32 // length: channelNum * samplesPerCycle
	block      [][]float32
	mu         sync.Mutex  // guards out and pos
	out        []float32   // length: fftSize
	pos        int64
	fftResult  []float64 // length: fftSize
}

var _ io.Reader = (*Audio)(nil)

func newAudio(cfg Config) *Audio {
	params := NewParams()
	v := newVoice(params)
	v.setSampleRate(float32(cfg.SampleRate))
	v.smoothRelease = cfg.SmoothRelease
	channels := make([][]float32, channelNum)
	for i := range channels {
		channels[i] = make([]float32, samplesPerCycle)
	}
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		Params:    params,
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		sampleRate: cfg.SampleRate,
		voice:      v,
		events:     newEventQueue(eventQueueSize),
		channels:   channels,
		block:      make([][]float32, channelNum),
		out:        make([]float32, fftSize),
		fftResult:  make([]float64, fftSize),
	}
}

// NewOfflineAudio returns an Audio that is not connected to any device.
// Drive it with Process.
func NewOfflineAudio(cfg Config) (*Audio, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}
	return newAudio(cfg), nil
}

// NewAudio ...
func NewAudio(cfg Config) (*Audio, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}
	otoContext, err := oto.NewContext(cfg.SampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	audio := newAudio(cfg)
	audio.otoContext = otoContext
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("failed to process command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	n := 0
	for len(buf)-n >= bytesPerSample {
		frames := (len(buf) - n) / bytesPerSample
		if frames > samplesPerCycle {
			frames = samplesPerCycle
		}
		a.process(frames)
		writeBuffer(a.block, frames, buf[n:])
		n += frames * bytesPerSample
	}
	return n, nil
}

// Process renders one block into outputs, one slice per channel, all of the
// same length. Events queued so far take effect at the start of the block.
func (a *Audio) Process(outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	a.events.drainTo(a.voice)
	for _, ch := range outputs {
		for i := range ch {
			ch[i] = 0
		}
	}
	a.voice.render(outputs, len(outputs[0]))
}

func (a *Audio) process(frames int) {
	for i, ch := range a.channels {
		a.block[i] = ch[:frames]
	}
	a.Process(a.block)

	a.mu.Lock()
	offset := int(a.pos % fftSize)
	copied := copy(a.out[offset:], a.block[0])
	copy(a.out, a.block[0][copied:])
	a.pos += int64(frames)
	a.mu.Unlock()
}

// writeBuffer interleaves channels into signed little endian PCM. Values
// beyond [-1, 1] are clipped and NaN becomes silence, as the integer
// conversion is undefined for them.
func writeBuffer(channels [][]float32, frames int, buf []byte) {
	for i := 0; i < frames; i++ {
		for ch, samples := range channels {
			value := float64(samples[i])
			if math.IsNaN(value) {
				value = 0
			}
			value = math.Max(-1, math.Min(1, value))
			switch bitDepthInBytes {
			case 1:
				const max = 127
				b := int(value * max)
				buf[bytesPerSample*i+ch] = byte(b + 128)
			case 2:
				const max = 32767
				b := int16(value * max)
				buf[bytesPerSample*i+2*ch] = byte(b)
				buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
			}
		}
	}
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) != 2 {
			return fmt.Errorf("invalid key-value pair %v", command)
		}
		if err := a.Params.set(command[0], command[1]); err != nil {
			return err
		}
		a.Changes.Add("params")
	case "note_on":
		if len(command) < 2 {
			return fmt.Errorf("note_on needs a note")
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		velocity := int64(127)
		if len(command) > 2 {
			velocity, err = strconv.ParseInt(command[2], 10, 32)
			if err != nil {
				return err
			}
		}
		a.addMidiEvent(noteOn{note: int(note), velocity: int(velocity)})
	case "note_off":
		if len(command) < 2 {
			return fmt.Errorf("note_off needs a note")
		}
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		a.addMidiEvent(noteOff{note: int(note)})
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// SampleRate ...
func (a *Audio) SampleRate() int {
	return a.sampleRate
}

// ParamsJSON ...
func (a *Audio) ParamsJSON() ([]byte, error) {
	return a.Params.toJSON()
}

// GetFFT ...
func (a *Audio) GetFFT() []float64 {
	a.mu.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	// return:    |<----->|
	offset := int(a.pos % fftSize)
	for i := range a.fftResult {
		a.fftResult[i] = float64(a.out[(offset+i)%fftSize])
	}
	a.mu.Unlock()
	Han(a.fftResult)
	fft.CalcAbs(a.fftResult)
	for i, value := range a.fftResult {
		a.fftResult[i] = value * 2 / fftSize
	}
	return a.fftResult[:fftSize/2]
}

// NoteOn ...
func (a *Audio) NoteOn(note int, velocity int) {
	a.addMidiEvent(noteOn{note: note, velocity: velocity})
}

// NoteOff ...
func (a *Audio) NoteOff(note int) {
	a.addMidiEvent(noteOff{note: note})
}

// AddMidiEvent ...
func (a *Audio) AddMidiEvent(data []byte) {
	switch e := decodeMidi(data).(type) {
	case noteOn:
		log.Printf("got note-on: %v\n", data)
		a.addMidiEvent(e)
	case noteOff:
		log.Printf("got note-off: %v\n", data)
		a.addMidiEvent(e)
	}
}

func (a *Audio) addMidiEvent(event interface{}) {
	if !a.events.push(event) {
		log.Printf("[WARN] event queue is full, dropped %v\n", event)
	}
}
