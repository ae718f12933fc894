package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/mono-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := audio.DefaultConfig()
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "output sample rate in Hz")
	flag.BoolVar(&cfg.SmoothRelease, "smooth-release", cfg.SmoothRelease, "keep sounding through the release phase after note off")
	sockFileName := flag.String("sock", "/tmp/mono-synth.sock", "unix socket for UI commands")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	audio, err := audio.NewAudio(cfg)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer audio.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Start(ctx)
	})
	g.Go(func() error {
		return receiveMidi(ctx, audio)
	})
	g.Go(func() error {
		return withIPCConnection(ctx, *sockFileName, func(conn net.Conn) error {
			// reports stop when the UI hangs up, playback goes on
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return receiveCommands(ctx, conn, audio.CommandCh)
			})
			g.Go(func() error {
				return sendReports(ctx, conn, audio)
			})
			return g.Wait()
		})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func receiveMidi(ctx context.Context, a *audio.Audio) error {
	for data := range audio.ListenToMidiIn(ctx) {
		a.AddMidiEvent(data)
	}
	log.Println("receiveMidi() ended.")
	return nil
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", sockFileName, err)
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	go func() {
		// unblock Accept
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	go func() {
		// unblock ReadLine
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			log.Printf("invalid command %q: %v\n", string(line), err)
		} else {
			commandCh <- command
			log.Printf("received: %s\n", string(line))
		}
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(strings.TrimSpace(line), " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, audio *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			if audio.Changes.Has("params") {
				audio.Changes.Delete("params")
				data, err := audio.ParamsJSON()
				if err != nil {
					log.Printf("failed to report params: %v\n", err)
				} else if _, err := conn.Write([]byte("params " + string(data) + "\n")); err != nil {
					log.Printf("failed to send report: %v\n", err)
					break loop
				}
			}
			result := audio.GetFFT()
			s := "fft"
			for _, value := range result {
				s += " " + strconv.FormatFloat(value, 'f', 6, 64)
			}
			if _, err := conn.Write([]byte(s + "\n")); err != nil {
				log.Printf("failed to send report: %v\n", err)
				break loop
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
