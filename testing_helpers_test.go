package main

import (
	"math"
	"sync"
	"testing"
	"time"

	"sori/audio"
	"sori/dispatch"
	"sori/transcriber"
)

// eventSink records everything it is told, for assertions.
type eventSink struct {
	mu     sync.Mutex
	events []string

	results  chan dispatch.Result
	errs     chan error
	noSpeech chan struct{}
	started  chan struct{}
	stopped  chan struct{}
	busy     chan struct{}
	short    chan struct{}
	devices  chan string
}

func newEventSink() *eventSink {
	return &eventSink{
		results:  make(chan dispatch.Result, 16),
		errs:     make(chan error, 16),
		noSpeech: make(chan struct{}, 16),
		started:  make(chan struct{}, 16),
		stopped:  make(chan struct{}, 16),
		busy:     make(chan struct{}, 16),
		short:    make(chan struct{}, 16),
		devices:  make(chan string, 16),
	}
}

func (s *eventSink) add(ev string) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *eventSink) Status(text string)          { s.add("status:" + text) }
func (s *eventSink) Level(float64)               {}
func (s *eventSink) RecordingTick(time.Duration) {}
func (s *eventSink) ModeLine(text string)        { s.add("mode:" + text) }

func (s *eventSink) RecordingStarted() {
	s.add("started")
	s.started <- struct{}{}
}

func (s *eventSink) RecordingStopped(time.Duration) {
	s.add("stopped")
	s.stopped <- struct{}{}
}

func (s *eventSink) Busy() {
	s.add("busy")
	s.busy <- struct{}{}
}

func (s *eventSink) TooShort(time.Duration) {
	s.add("too_short")
	s.short <- struct{}{}
}

func (s *eventSink) NoSpeech() {
	s.add("no_speech")
	s.noSpeech <- struct{}{}
}

func (s *eventSink) NoVoiceWarning(active bool) {
	if active {
		s.add("no_voice")
	} else {
		s.add("no_voice_clear")
	}
}

func (s *eventSink) Result(r dispatch.Result, _ transcriber.Result) {
	s.add("result:" + r.Kind.String())
	s.results <- r
}

func (s *eventSink) Error(err error) {
	s.add("error")
	s.errs <- err
}

func (s *eventSink) DeviceLine(text string) {
	s.add("device:" + text)
	s.devices <- text
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

// tonePCM returns S16LE mono PCM: a sine at amp for toneDur, then silence.
func tonePCM(rate int, toneDur, silenceDur time.Duration) []byte {
	n := int(int64(rate) * int64(toneDur+silenceDur) / int64(time.Second))
	toneN := int(int64(rate) * int64(toneDur) / int64(time.Second))
	samples := make([]int16, n)
	for i := 0; i < toneN; i++ {
		samples[i] = int16(0.3 * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return audio.EncodePCM16(samples)
}
