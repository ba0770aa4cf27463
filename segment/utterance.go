// Package segment decides which contiguous span of captured audio forms one
// utterance. It has two engines, one driven by an energy threshold and one
// bounded by an explicit trigger, plus the Engine that binds either of them to
// the processing pipeline.
package segment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"sori/audio"
)

var (
	ErrTooShort     = errors.New("utterance too short")
	ErrNotRecording = errors.New("not recording")
)

// Config holds the segmentation thresholds. Durations are wall time, so the
// values stay valid when the sample rate changes.
type Config struct {
	SilenceThreshold float64       // RMS at or below which a frame is silent
	SilenceDuration  time.Duration // trailing silence that ends an utterance
	MinUtterance     time.Duration // shorter utterances are discarded
}

func DefaultConfig() Config {
	return Config{
		SilenceThreshold: 0.008,
		SilenceDuration:  time.Second,
		MinUtterance:     300 * time.Millisecond,
	}
}

// Utterance is one finalized span of audio. Ownership passes to the consumer
// when it is emitted; the engine keeps no reference to it.
type Utterance struct {
	ID         string
	Frames     []audio.Frame
	SampleRate int
	StartedAt  time.Time
}

func newUtterance(frames []audio.Frame, sampleRate int, started time.Time) *Utterance {
	return &Utterance{
		ID:         uuid.NewString(),
		Frames:     frames,
		SampleRate: sampleRate,
		StartedAt:  started,
	}
}

func (u *Utterance) SampleCount() int {
	return countSamples(u.Frames)
}

func (u *Utterance) Duration() time.Duration {
	return samplesDuration(u.SampleCount(), u.SampleRate)
}

// Samples returns the frames flattened into a new slice.
func (u *Utterance) Samples() []float32 {
	out := make([]float32, 0, u.SampleCount())
	for _, f := range u.Frames {
		out = append(out, f.Samples...)
	}
	return out
}

// PCM16 returns the samples as 16-bit PCM for the upload encoders.
func (u *Utterance) PCM16() []int16 {
	return audio.ToInt16(u.Samples())
}

func countSamples(frames []audio.Frame) int {
	n := 0
	for _, f := range frames {
		n += len(f.Samples)
	}
	return n
}

func samplesDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
