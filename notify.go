package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/beeep"

	"sori/beep"
	"sori/dispatch"
	"sori/log"
	"sori/transcriber"
)

// Sink receives status, level and result events for presentation. Level,
// RecordingStarted, RecordingTick and RecordingStopped are called from the
// audio ingest goroutine and must not block.
type Sink interface {
	Status(text string)
	Level(rms float64)
	RecordingStarted()
	RecordingTick(elapsed time.Duration)
	RecordingStopped(captured time.Duration)
	Busy()
	TooShort(captured time.Duration)
	NoSpeech()
	NoVoiceWarning(active bool)
	Result(r dispatch.Result, tr transcriber.Result)
	Error(err error)
	DeviceLine(text string)
	ModeLine(text string)
}

// nopSink lets partial sinks implement only what they care about.
type nopSink struct{}

func (nopSink) Status(string)                              {}
func (nopSink) Level(float64)                              {}
func (nopSink) RecordingStarted()                          {}
func (nopSink) RecordingTick(time.Duration)                {}
func (nopSink) RecordingStopped(time.Duration)             {}
func (nopSink) Busy()                                      {}
func (nopSink) TooShort(time.Duration)                     {}
func (nopSink) NoSpeech()                                  {}
func (nopSink) NoVoiceWarning(bool)                        {}
func (nopSink) Result(dispatch.Result, transcriber.Result) {}
func (nopSink) Error(error)                                {}
func (nopSink) DeviceLine(string)                          {}
func (nopSink) ModeLine(string)                            {}

// fanout delivers every event to each sink in order.
type fanout []Sink

func newFanout(sinks ...Sink) fanout {
	var f fanout
	for _, s := range sinks {
		if s != nil {
			f = append(f, s)
		}
	}
	return f
}

func (f fanout) Status(text string) {
	for _, s := range f {
		s.Status(text)
	}
}

func (f fanout) Level(rms float64) {
	for _, s := range f {
		s.Level(rms)
	}
}

func (f fanout) RecordingStarted() {
	for _, s := range f {
		s.RecordingStarted()
	}
}

func (f fanout) RecordingTick(elapsed time.Duration) {
	for _, s := range f {
		s.RecordingTick(elapsed)
	}
}

func (f fanout) RecordingStopped(captured time.Duration) {
	for _, s := range f {
		s.RecordingStopped(captured)
	}
}

func (f fanout) Busy() {
	for _, s := range f {
		s.Busy()
	}
}

func (f fanout) TooShort(captured time.Duration) {
	for _, s := range f {
		s.TooShort(captured)
	}
}

func (f fanout) NoSpeech() {
	for _, s := range f {
		s.NoSpeech()
	}
}

func (f fanout) NoVoiceWarning(active bool) {
	for _, s := range f {
		s.NoVoiceWarning(active)
	}
}

func (f fanout) Result(r dispatch.Result, tr transcriber.Result) {
	for _, s := range f {
		s.Result(r, tr)
	}
}

func (f fanout) Error(err error) {
	for _, s := range f {
		s.Error(err)
	}
}

func (f fanout) DeviceLine(text string) {
	for _, s := range f {
		s.DeviceLine(text)
	}
}

func (f fanout) ModeLine(text string) {
	for _, s := range f {
		s.ModeLine(text)
	}
}

// logSink writes status events to the diagnostics log. Level and tick events
// are dropped; they arrive ten times a second.
type logSink struct{ nopSink }

func (logSink) Status(text string) { log.Info(text) }

func (logSink) RecordingStarted() { log.Info("recording_start") }

func (logSink) RecordingStopped(captured time.Duration) {
	log.Infof("recording_stop captured=%.2fs", captured.Seconds())
}

func (logSink) Busy() { log.Info("busy_rejected") }

func (logSink) TooShort(captured time.Duration) {
	log.Infof("too_short captured=%.2fs", captured.Seconds())
}

func (logSink) NoSpeech() { log.Info("no_speech") }

func (logSink) NoVoiceWarning(active bool) {
	if active {
		log.Info("no_voice_warning")
	} else {
		log.Info("no_voice_cleared")
	}
}

func (logSink) Error(err error) { log.Errorf("processing error: %v", err) }

func (logSink) DeviceLine(text string) { log.Info("device: " + text) }

// cueSink plays audible cues. It never blocks: beep playback is queued.
type cueSink struct{ nopSink }

// newCueSink renders the cues and opens the output up front so the first
// cue is not late.
func newCueSink() cueSink {
	beep.Init()
	return cueSink{}
}

func (cueSink) RecordingStarted()              { beep.PlayStart() }
func (cueSink) RecordingStopped(time.Duration) { beep.PlayEnd() }
func (cueSink) Busy()                          { beep.PlayBusy() }
func (cueSink) Error(error)                    { beep.PlayError() }

func (cueSink) NoVoiceWarning(active bool) {
	if active {
		beep.PlayError()
	}
}

func (cueSink) Result(r dispatch.Result, _ transcriber.Result) {
	if r.Err != nil {
		beep.PlayError()
	}
}

const appName = "sori"

// desktopSink raises OS notifications for results and errors.
type desktopSink struct {
	nopSink
	notify func(title, message string) error
}

func newDesktopSink() *desktopSink {
	return &desktopSink{notify: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (d *desktopSink) send(title, message string) {
	go func() {
		if err := d.notify(title, message); err != nil {
			log.Warnf("desktop notification failed: %v", err)
		}
	}()
}

func (d *desktopSink) Result(r dispatch.Result, _ transcriber.Result) {
	d.send(appName, describeResult(r))
}

func (d *desktopSink) Error(err error) {
	d.send(appName+" error", err.Error())
}

func (d *desktopSink) Busy() {
	d.send(appName, busyText)
}

const busyText = "still processing previous request"

// consoleSink prints one line per event for runs without the TUI.
type consoleSink struct {
	nopSink
	w io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink { return &consoleSink{w: w} }

func (c *consoleSink) Status(text string)     { fmt.Fprintln(c.w, text) }
func (c *consoleSink) Busy()                  { fmt.Fprintln(c.w, busyText) }
func (c *consoleSink) NoSpeech()              { fmt.Fprintln(c.w, "(no speech detected)") }
func (c *consoleSink) Error(err error)        { fmt.Fprintf(c.w, "error: %v\n", err) }
func (c *consoleSink) DeviceLine(text string) { fmt.Fprintln(c.w, text) }
func (c *consoleSink) ModeLine(text string)   { fmt.Fprintln(c.w, text) }

func (c *consoleSink) NoVoiceWarning(active bool) {
	if active {
		fmt.Fprintln(c.w, "no voice detected, check your microphone")
	}
}

func (c *consoleSink) Result(r dispatch.Result, _ transcriber.Result) {
	fmt.Fprintln(c.w, describeResult(r))
}

// describeResult renders one dispatch outcome as a single line.
func describeResult(r dispatch.Result) string {
	var s string
	switch r.Kind {
	case dispatch.KindEnter:
		s = "⏎ enter"
	case dispatch.KindCommand, dispatch.KindOpenApp:
		s = fmt.Sprintf("%s → %s", r.Text, r.Action)
	case dispatch.KindTyped:
		if r.Changed() {
			s = fmt.Sprintf("%s → %s", r.Text, r.Transformed)
		} else {
			s = r.Text
		}
	default:
		s = r.Text
	}
	if r.Err != nil {
		s += " (failed: " + r.Err.Error() + ")"
	}
	return s
}

// asyncSink decouples producers from the sinks behind it. Producing never
// blocks, so the audio ingest goroutine can emit any event. Level and tick
// events are dropped once asyncQueue events are waiting; everything else is
// always queued. One goroutine delivers, so sinks see events in order.
type asyncSink struct {
	next    Sink
	wake    chan struct{}
	done    chan struct{}
	dropped atomic.Int64

	mu    sync.Mutex
	queue []func(Sink)
}

const asyncQueue = 256

func newAsyncSink(next Sink) *asyncSink {
	return &asyncSink{
		next: next,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run delivers events until ctx is done, then flushes what is queued.
func (a *asyncSink) Run(ctx context.Context) {
	defer close(a.done)
	for {
		a.flush()
		select {
		case <-a.wake:
		case <-ctx.Done():
			a.flush()
			return
		}
	}
}

func (a *asyncSink) flush() {
	for {
		a.mu.Lock()
		batch := a.queue
		a.queue = nil
		a.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn(a.next)
		}
	}
}

// Done is closed once Run has returned.
func (a *asyncSink) Done() <-chan struct{} { return a.done }

func (a *asyncSink) push(fn func(Sink), lossy bool) {
	select {
	case <-a.done:
		return
	default:
	}
	a.mu.Lock()
	if lossy && len(a.queue) >= asyncQueue {
		a.mu.Unlock()
		a.dropped.Add(1)
		return
	}
	a.queue = append(a.queue, fn)
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *asyncSink) post(fn func(Sink)) { a.push(fn, false) }

func (a *asyncSink) Status(text string) { a.post(func(s Sink) { s.Status(text) }) }
func (a *asyncSink) Level(rms float64)  { a.push(func(s Sink) { s.Level(rms) }, true) }
func (a *asyncSink) RecordingStarted()  { a.post(func(s Sink) { s.RecordingStarted() }) }

func (a *asyncSink) RecordingTick(elapsed time.Duration) {
	a.push(func(s Sink) { s.RecordingTick(elapsed) }, true)
}

func (a *asyncSink) RecordingStopped(captured time.Duration) {
	a.post(func(s Sink) { s.RecordingStopped(captured) })
}

func (a *asyncSink) Busy() { a.post(func(s Sink) { s.Busy() }) }

func (a *asyncSink) TooShort(captured time.Duration) {
	a.post(func(s Sink) { s.TooShort(captured) })
}

func (a *asyncSink) NoSpeech() { a.post(func(s Sink) { s.NoSpeech() }) }

func (a *asyncSink) NoVoiceWarning(active bool) {
	a.post(func(s Sink) { s.NoVoiceWarning(active) })
}

func (a *asyncSink) Result(r dispatch.Result, tr transcriber.Result) {
	a.post(func(s Sink) { s.Result(r, tr) })
}

func (a *asyncSink) Error(err error)        { a.post(func(s Sink) { s.Error(err) }) }
func (a *asyncSink) DeviceLine(text string) { a.post(func(s Sink) { s.DeviceLine(text) }) }
func (a *asyncSink) ModeLine(text string)   { a.post(func(s Sink) { s.ModeLine(text) }) }
