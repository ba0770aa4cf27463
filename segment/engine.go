package segment

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"sori/audio"
)

type Mode int

const (
	ModePushToTalk Mode = iota
	ModeContinuous
)

func (m Mode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "push_to_talk"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "push_to_talk", "ptt":
		return ModePushToTalk, nil
	case "continuous", "vad":
		return ModeContinuous, nil
	}
	return 0, fmt.Errorf("unknown segmentation mode %q", s)
}

// Submitter is the processing side of the handoff. Busy reports whether an
// utterance is in flight; Submit takes ownership of u or returns an error.
type Submitter interface {
	Busy() bool
	Submit(u *Utterance) error
}

// Observer receives engine events. Every method is called from the audio
// ingest goroutine and must return without blocking.
type Observer interface {
	Level(rms float64)
	RecordingStarted()
	RecordingTick(elapsed time.Duration, f audio.Frame)
	RecordingStopped(captured time.Duration)
	// Busy is a start request refused because an utterance is in flight.
	Busy()
	TooShort(captured time.Duration)
	Submitted(u *Utterance)
	Dropped(u *Utterance, err error)
}

type request int

const (
	reqStart request = iota + 1
	reqStop
	reqCancel
)

type Option func(*Engine)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine binds a segmentation strategy to the capture callback. It is the
// single writer of the accumulation buffer: trigger goroutines never touch
// it, they queue start and stop requests that the next frame applies.
type Engine struct {
	mode   Mode
	framer *audio.Framer
	cont   *Continuous
	ptt    *PushToTalk
	sub    Submitter
	obs    Observer
	now    func() time.Time

	reqs      chan request
	recording atomic.Bool
}

func NewEngine(mode Mode, cfg Config, framer *audio.Framer, sub Submitter, obs Observer, opts ...Option) *Engine {
	e := &Engine{
		mode:   mode,
		framer: framer,
		cont:   NewContinuous(cfg),
		ptt:    NewPushToTalk(cfg),
		sub:    sub,
		obs:    obs,
		now:    time.Now,
		reqs:   make(chan request, 8),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Mode() Mode { return e.mode }

// Recording reports whether a push-to-talk recording is open. Safe to call
// from any goroutine.
func (e *Engine) Recording() bool { return e.recording.Load() }

// Callback adapts the engine to a capture device.
func (e *Engine) Callback() audio.DataCallback {
	return func(data []byte, _ uint32) { e.Write(data) }
}

// Write feeds raw S16LE capture data.
func (e *Engine) Write(pcm []byte) {
	e.framer.Write(pcm, e.OnFrame)
}

// RequestStart asks the engine to open a recording on the next frame. It
// never blocks; false means the request queue is full and it was dropped.
func (e *Engine) RequestStart() bool { return e.request(reqStart) }

func (e *Engine) RequestStop() bool { return e.request(reqStop) }

// RequestCancel discards an open recording without submitting it.
func (e *Engine) RequestCancel() bool { return e.request(reqCancel) }

func (e *Engine) request(r request) bool {
	if e.mode != ModePushToTalk {
		return false
	}
	select {
	case e.reqs <- r:
		return true
	default:
		return false
	}
}

// OnFrame processes one frame. Level is always reported; audio is only
// buffered while nothing is in flight.
func (e *Engine) OnFrame(f audio.Frame) {
	now := e.now()
	e.obs.Level(f.Level())
	e.drain(now)

	switch e.mode {
	case ModeContinuous:
		if e.sub.Busy() {
			return
		}
		if u := e.cont.OnFrame(f, now); u != nil {
			e.submit(u)
		}
	case ModePushToTalk:
		if !e.ptt.Recording() {
			return
		}
		if !e.sub.Busy() {
			e.ptt.Append(f)
		}
		e.obs.RecordingTick(e.ptt.Elapsed(now), f)
	}
}

func (e *Engine) drain(now time.Time) {
	for {
		select {
		case r := <-e.reqs:
			e.apply(r, now)
		default:
			return
		}
	}
}

func (e *Engine) apply(r request, now time.Time) {
	switch r {
	case reqStart:
		if e.sub.Busy() {
			e.obs.Busy()
			return
		}
		if e.ptt.Start(now) {
			e.recording.Store(true)
			e.obs.RecordingStarted()
		}
	case reqStop:
		captured := e.ptt.Buffered()
		u, err := e.ptt.Stop()
		if errors.Is(err, ErrNotRecording) {
			return
		}
		e.recording.Store(false)
		e.obs.RecordingStopped(captured)
		if err != nil {
			e.obs.TooShort(captured)
			return
		}
		e.submit(u)
	case reqCancel:
		if !e.ptt.Recording() {
			return
		}
		captured := e.ptt.Buffered()
		e.ptt.Cancel()
		e.recording.Store(false)
		e.obs.RecordingStopped(captured)
	}
}

func (e *Engine) submit(u *Utterance) {
	if err := e.sub.Submit(u); err != nil {
		e.obs.Dropped(u, err)
		return
	}
	e.obs.Submitted(u)
}
