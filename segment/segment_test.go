package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sori/audio"
)

const (
	testRate  = 16000
	frameSize = testRate / 10 // 100ms
	frameDur  = 100 * time.Millisecond
)

func constFrame(v float32) audio.Frame {
	s := make([]float32, frameSize)
	for i := range s {
		s[i] = v
	}
	return audio.Frame{Samples: s, SampleRate: testRate}
}

var (
	speech  = constFrame(0.1)
	silence = constFrame(0.001)
)

// feed sends n copies of f starting at *now and advances the clock per frame.
func feed(c *Continuous, f audio.Frame, n int, now *time.Time) []*Utterance {
	var out []*Utterance
	for i := 0; i < n; i++ {
		if u := c.OnFrame(f, *now); u != nil {
			out = append(out, u)
		}
		*now = now.Add(frameDur)
	}
	return out
}

func TestContinuousAllSilence(t *testing.T) {
	c := NewContinuous(DefaultConfig())
	now := time.Unix(0, 0)
	assert.Empty(t, feed(c, silence, 100, &now))
	assert.Equal(t, StateIdle, c.State())
}

func TestContinuousSpeechThenSilence(t *testing.T) {
	c := NewContinuous(DefaultConfig())
	now := time.Unix(0, 0)

	require.Empty(t, feed(c, speech, 20, &now))
	assert.Equal(t, StateAccumulating, c.State())

	got := feed(c, silence, 20, &now)
	require.Len(t, got, 1)
	u := got[0]
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, testRate, u.SampleRate)
	// two seconds of speech plus the trailing silence kept before finalizing
	assert.GreaterOrEqual(t, u.Duration(), 2*time.Second)
	assert.LessOrEqual(t, u.Duration(), 3500*time.Millisecond)
	assert.Equal(t, StateIdle, c.State())
}

func TestContinuousSilenceBoundaryIsStrict(t *testing.T) {
	c := NewContinuous(DefaultConfig())
	now := time.Unix(0, 0)
	feed(c, speech, 5, &now)

	// first silent frame starts the timer; exactly 1s later is not enough
	assert.Nil(t, c.OnFrame(silence, now))
	assert.Equal(t, StateSilencePending, c.State())
	assert.Nil(t, c.OnFrame(silence, now.Add(time.Second)))
	assert.NotNil(t, c.OnFrame(silence, now.Add(time.Second+time.Millisecond)))
}

func TestContinuousShortBurstDiscarded(t *testing.T) {
	c := NewContinuous(Config{
		SilenceThreshold: 0.008,
		SilenceDuration:  200 * time.Millisecond,
		MinUtterance:     time.Second,
	})
	now := time.Unix(0, 0)
	feed(c, speech, 2, &now)
	assert.Empty(t, feed(c, silence, 10, &now))
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.Buffered())
}

func TestContinuousSpeechResumesWithinGap(t *testing.T) {
	c := NewContinuous(DefaultConfig())
	now := time.Unix(0, 0)
	feed(c, speech, 5, &now)
	feed(c, silence, 5, &now)
	feed(c, speech, 5, &now)

	// resumed speech extends the same utterance instead of starting over
	assert.Equal(t, 1500*time.Millisecond, c.Buffered())

	got := feed(c, silence, 20, &now)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Duration(), 1500*time.Millisecond)
}

func TestContinuousBurstCount(t *testing.T) {
	// trailing silence counts toward the length, so the minimum sits above
	// a short burst plus its closing gap
	c := NewContinuous(Config{
		SilenceThreshold: 0.008,
		SilenceDuration:  time.Second,
		MinUtterance:     1500 * time.Millisecond,
	})
	now := time.Unix(0, 0)
	var got []*Utterance
	for _, burst := range []int{10, 2, 8} {
		got = append(got, feed(c, speech, burst, &now)...)
		got = append(got, feed(c, silence, 15, &now)...)
	}
	assert.Len(t, got, 2)
}

func TestUtteranceSamplesAreCopied(t *testing.T) {
	u := newUtterance([]audio.Frame{speech, silence}, testRate, time.Time{})
	s := u.Samples()
	require.Len(t, s, 2*frameSize)
	s[0] = 9
	assert.Equal(t, float32(0.1), u.Frames[0].Samples[0])
	assert.Equal(t, 2*frameSize, u.SampleCount())
	assert.Equal(t, int16(3276), u.PCM16()[0])
}

func TestPushToTalkLifecycle(t *testing.T) {
	p := NewPushToTalk(DefaultConfig())
	start := time.Unix(0, 0)

	assert.False(t, p.Append(speech), "idle append must be ignored")
	_, err := p.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)

	require.True(t, p.Start(start))
	assert.False(t, p.Start(start.Add(time.Second)), "second press is a no-op")
	for i := 0; i < 5; i++ {
		p.Append(silence)
	}
	assert.Equal(t, 2*time.Second, p.Elapsed(start.Add(2*time.Second)))

	u, err := p.Stop()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, u.Duration())
	assert.Equal(t, start, u.StartedAt)
	assert.False(t, p.Recording())
}

func TestPushToTalkTooShort(t *testing.T) {
	p := NewPushToTalk(DefaultConfig())
	p.Start(time.Unix(0, 0))
	p.Append(speech)
	u, err := p.Stop()
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("continuous")
	require.NoError(t, err)
	assert.Equal(t, ModeContinuous, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePushToTalk, m)
	_, err = ParseMode("toggle")
	assert.Error(t, err)
}
