package main

import (
	"errors"
	"time"

	"sori/audio"
	"sori/segment"
	"sori/supervisor"
)

// ingestObserver receives segmentation events on the audio ingest goroutine
// and turns them into sink events. It also runs the no-voice monitor over
// open push-to-talk recordings. Nothing here blocks or logs; the sink is an
// asyncSink.
type ingestObserver struct {
	sink   Sink
	vad    *voiceDetector // nil disables the no-voice monitor
	cancel func() bool

	tick       time.Duration
	warnAfter  time.Duration
	autoCancel bool
	mon        *noVoiceMonitor
}

func newIngestObserver(sink Sink, vad *voiceDetector, tick, warnAfter time.Duration, autoCancel bool) *ingestObserver {
	if warnAfter <= 0 {
		vad = nil
	}
	return &ingestObserver{
		sink:       sink,
		vad:        vad,
		tick:       tick,
		warnAfter:  warnAfter,
		autoCancel: autoCancel,
	}
}

// bind connects the observer to the engine it watches.
func (o *ingestObserver) bind(e *segment.Engine) {
	o.cancel = e.RequestCancel
}

func (o *ingestObserver) Level(rms float64) { o.sink.Level(rms) }

func (o *ingestObserver) RecordingStarted() {
	if o.vad != nil {
		o.vad.Reset()
		o.mon = newNoVoiceMonitor(o.tick, o.warnAfter, o.autoCancel)
	}
	o.sink.RecordingStarted()
}

func (o *ingestObserver) RecordingTick(elapsed time.Duration, f audio.Frame) {
	o.sink.RecordingTick(elapsed)
	if o.mon == nil {
		return
	}
	o.vad.Feed(f.Samples)
	switch o.mon.Tick(o.vad.Spoke()) {
	case voiceWarn, voiceRepeat:
		o.sink.NoVoiceWarning(true)
	case voiceCleared:
		o.sink.NoVoiceWarning(false)
	case voiceCancel:
		o.mon = nil
		if o.cancel != nil {
			o.cancel()
		}
	}
}

func (o *ingestObserver) RecordingStopped(captured time.Duration) {
	if o.mon != nil && o.mon.Warned() {
		o.sink.NoVoiceWarning(false)
	}
	o.mon = nil
	o.sink.RecordingStopped(captured)
}

func (o *ingestObserver) Busy() { o.sink.Busy() }

func (o *ingestObserver) TooShort(captured time.Duration) { o.sink.TooShort(captured) }

// Submitted is logged by the worker when it picks the utterance up.
func (o *ingestObserver) Submitted(*segment.Utterance) {}

func (o *ingestObserver) Dropped(_ *segment.Utterance, err error) {
	if errors.Is(err, supervisor.ErrBusy) {
		o.sink.Busy()
		return
	}
	o.sink.Error(err)
}
