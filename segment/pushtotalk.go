package segment

import (
	"fmt"
	"time"

	"sori/audio"
)

// PushToTalk accumulates frames between an explicit Start and Stop. Stop is
// authoritative, so no silence timer applies, but the minimum duration does.
type PushToTalk struct {
	cfg Config

	recording bool
	buf       []audio.Frame
	rate      int
	startedAt time.Time
}

func NewPushToTalk(cfg Config) *PushToTalk {
	return &PushToTalk{cfg: cfg}
}

func (p *PushToTalk) Recording() bool { return p.recording }

func (p *PushToTalk) State() State {
	if p.recording {
		return StateRecording
	}
	return StateIdle
}

// Start begins a fresh recording. It returns false when one is already in
// progress.
func (p *PushToTalk) Start(now time.Time) bool {
	if p.recording {
		return false
	}
	p.recording = true
	p.buf = nil
	p.rate = 0
	p.startedAt = now
	return true
}

// Append adds f to the recording. Frames arriving while idle are dropped.
func (p *PushToTalk) Append(f audio.Frame) bool {
	if !p.recording {
		return false
	}
	p.buf = append(p.buf, f)
	p.rate = f.SampleRate
	return true
}

// Elapsed is wall time since Start, for display.
func (p *PushToTalk) Elapsed(now time.Time) time.Duration {
	if !p.recording {
		return 0
	}
	return now.Sub(p.startedAt)
}

// Buffered is the audio duration captured so far.
func (p *PushToTalk) Buffered() time.Duration {
	return samplesDuration(countSamples(p.buf), p.rate)
}

// Stop ends the recording and hands over the buffer. A recording shorter
// than the minimum returns an error wrapping ErrTooShort and is discarded.
func (p *PushToTalk) Stop() (*Utterance, error) {
	if !p.recording {
		return nil, ErrNotRecording
	}
	frames, rate, started := p.buf, p.rate, p.startedAt
	p.Cancel()

	d := samplesDuration(countSamples(frames), rate)
	if d < p.cfg.MinUtterance || len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s < %s", ErrTooShort, d.Round(time.Millisecond), p.cfg.MinUtterance)
	}
	return newUtterance(frames, rate, started), nil
}

// Cancel discards the recording without producing an utterance.
func (p *PushToTalk) Cancel() {
	p.recording = false
	p.buf = nil
	p.rate = 0
	p.startedAt = time.Time{}
}
