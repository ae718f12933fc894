package audio

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn ...
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			// rtmidi reuses data
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI IN buffer is full")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// decodeMidi returns noteOn, noteOff or nil. Note on with velocity 0 is a
// note off, as most keyboards send it that way.
func decodeMidi(data []byte) interface{} {
	if len(data) < 3 {
		return nil
	}
	note := int(data[1])
	velocity := int(data[2])
	switch data[0] >> 4 {
	case 0x8:
		return noteOff{note: note}
	case 0x9:
		if velocity == 0 {
			return noteOff{note: note}
		}
		return noteOn{note: note, velocity: velocity}
	}
	return nil
}

// ----- Event Queue ----- //

// eventQueue hands events from control goroutines to the audio goroutine.
// Neither side ever blocks.
type eventQueue struct {
	ch chan interface{}
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{
		ch: make(chan interface{}, size),
	}
}

func (q *eventQueue) push(event interface{}) bool {
	select {
	case q.ch <- event:
		return true
	default:
		return false
	}
}

// drainTo applies every queued event to v in arrival order.
func (q *eventQueue) drainTo(v *voice) {
	for {
		select {
		case e := <-q.ch:
			v.apply(e)
		default:
			return
		}
	}
}
