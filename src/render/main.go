package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
	"github.com/jinjor/mono-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

const numChannels = 2

type renderOptions struct {
	note         int
	velocity     int
	duration     float64 // sec
	releaseAfter float64 // sec
	blockSize    int
}

func main() {
	cfg := audio.DefaultConfig()
	opts := renderOptions{}
	flag.IntVar(&opts.note, "note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	flag.IntVar(&opts.velocity, "velocity", 100, "MIDI velocity (0-127), accepted but not used")
	flag.Float64Var(&opts.duration, "duration", 2.0, "duration in seconds")
	flag.Float64Var(&opts.releaseAfter, "release-after", 1.0, "send note off after this many seconds (negative: never)")
	flag.IntVar(&opts.blockSize, "block-size", 512, "frames per block; events are applied at block starts")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "sample rate in Hz")
	flag.BoolVar(&cfg.SmoothRelease, "smooth-release", cfg.SmoothRelease, "keep sounding through the release phase after note off")
	volume := flag.Float64("volume", 0.5, "volume (0-1)")
	attack := flag.Float64("attack", 0.01, "attack in seconds")
	decay := flag.Float64("decay", 0.1, "decay in seconds")
	sustain := flag.Float64("sustain", 0.5, "sustain level (0-1)")
	release := flag.Float64("release", 0.1, "release in seconds")
	output := flag.String("output", "output.wav", "output WAV file path")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	a, err := audio.NewOfflineAudio(cfg)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer a.Close()
	for key, value := range map[string]float64{
		"volume":  *volume,
		"attack":  *attack,
		"decay":   *decay,
		"sustain": *sustain,
		"release": *release,
	} {
		if err := a.Params.SetByName(key, float32(value)); err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}

	log.Printf("rendering note %d for %.2f seconds at %d Hz...\n", opts.note, opts.duration, cfg.SampleRate)
	samples, err := render(context.Background(), a, opts)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	if err := writeWAV(*output, samples, cfg.SampleRate); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("saved %s\n", *output)
}

// render returns interleaved stereo samples.
func render(ctx context.Context, a *audio.Audio, opts renderOptions) ([]float32, error) {
	if opts.blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", opts.blockSize)
	}
	totalFrames := int(float64(a.SampleRate()) * opts.duration)
	releaseAt := -1
	if opts.releaseAfter >= 0 {
		releaseAt = int(float64(a.SampleRate()) * opts.releaseAfter)
	}

	blocks := make(chan []float32, 16)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(blocks)
		a.NoteOn(opts.note, opts.velocity)
		released := false
		outputs := make([][]float32, numChannels)
		for pos := 0; pos < totalFrames; pos += opts.blockSize {
			frames := opts.blockSize
			if pos+frames > totalFrames {
				frames = totalFrames - pos
			}
			if !released && releaseAt >= 0 && pos+frames > releaseAt {
				a.NoteOff(opts.note)
				released = true
			}
			for ch := range outputs {
				outputs[ch] = make([]float32, frames)
			}
			a.Process(outputs)
			select {
			case blocks <- interleave(outputs):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	samples := make([]float32, 0, totalFrames*numChannels)
	g.Go(func() error {
		for block := range blocks {
			samples = append(samples, block...)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

func interleave(outputs [][]float32) []float32 {
	frames := len(outputs[0])
	data := make([]float32, frames*len(outputs))
	for i := 0; i < frames; i++ {
		for ch, samples := range outputs {
			data[i*len(outputs)+ch] = samples[i]
		}
	}
	return data
}

func writeWAV(path string, samples []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			SampleRate:  sampleRate,
			NumChannels: numChannels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return enc.Close()
}
