package segment

import (
	"time"

	"sori/audio"
)

type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateSilencePending
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateSilencePending:
		return "silence-pending"
	case StateRecording:
		return "recording"
	}
	return "unknown"
}

// Continuous segments a frame stream by energy: speech opens an utterance and
// a long enough run of silence closes it. Not safe for concurrent use; the
// ingest goroutine is its only caller.
type Continuous struct {
	cfg Config

	state        State
	buf          []audio.Frame
	startedAt    time.Time
	silenceStart time.Time
}

func NewContinuous(cfg Config) *Continuous {
	return &Continuous{cfg: cfg}
}

func (c *Continuous) State() State { return c.state }

// Buffered reports the duration currently held in the accumulation buffer.
func (c *Continuous) Buffered() time.Duration {
	if len(c.buf) == 0 {
		return 0
	}
	return samplesDuration(countSamples(c.buf), c.buf[0].SampleRate)
}

// OnFrame feeds one frame observed at now. It returns a finalized utterance
// when trailing silence exceeds the configured duration and the buffered
// audio is long enough; otherwise nil.
func (c *Continuous) OnFrame(f audio.Frame, now time.Time) *Utterance {
	if f.Level() > c.cfg.SilenceThreshold {
		if c.state == StateIdle {
			// new speech never appends to stale audio
			c.buf = nil
			c.startedAt = now
		}
		c.state = StateAccumulating
		c.buf = append(c.buf, f)
		c.silenceStart = time.Time{}
		return nil
	}

	if c.state == StateIdle {
		return nil
	}

	// keep trailing room tone
	c.buf = append(c.buf, f)
	if c.silenceStart.IsZero() {
		c.silenceStart = now
		c.state = StateSilencePending
		return nil
	}
	if now.Sub(c.silenceStart) <= c.cfg.SilenceDuration {
		return nil
	}

	frames, started := c.buf, c.startedAt
	c.Reset()
	if samplesDuration(countSamples(frames), f.SampleRate) < c.cfg.MinUtterance {
		return nil
	}
	return newUtterance(frames, f.SampleRate, started)
}

// Reset drops any partial utterance and returns to idle.
func (c *Continuous) Reset() {
	c.state = StateIdle
	c.buf = nil
	c.startedAt = time.Time{}
	c.silenceStart = time.Time{}
}
