// Package beep plays the short audible cues that mark recording start and
// stop, a rejected utterance and a failed command.
package beep

import (
	"math"
	"sync/atomic"
)

const sampleRate = 44100

type Cue int

const (
	Start Cue = iota
	End
	// Busy is a rejected utterance while another one is still processing.
	Busy
	Error
)

func (c Cue) String() string {
	switch c {
	case Start:
		return "start"
	case End:
		return "end"
	case Busy:
		return "busy"
	case Error:
		return "error"
	}
	return "unknown"
}

type tone struct {
	freq     float64
	duration float64 // seconds per tick
	volume   float64
	decay    float64
	repeat   int
	gap      float64 // seconds between ticks
}

// Start is high and short, End a little lower, Busy a quick high pair and
// Error a low double beep.
var tones = map[Cue]tone{
	Start: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60, repeat: 1},
	End:   {freq: 900, duration: 0.2, volume: 0.5, decay: 40, repeat: 1},
	Busy:  {freq: 1500, duration: 0.04, volume: 0.4, decay: 80, repeat: 2, gap: 0.04},
	Error: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 2, gap: 0.05},
}

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

// Play queues cue for playback and returns immediately. Failures are silent.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	if _, ok := tones[c]; !ok {
		return
	}
	play(c)
}

func PlayStart() { Play(Start) }
func PlayEnd()   { Play(End) }
func PlayBusy()  { Play(Busy) }
func PlayError() { Play(Error) }

// samples renders t as mono 16-bit PCM.
func (t tone) samples(rate int) []int16 {
	n := int(float64(rate) * t.duration)
	tick := make([]int16, n)
	for i := range tick {
		x := float64(i) / float64(rate)
		env := math.Exp(-x * t.decay)
		tick[i] = int16(math.Sin(2*math.Pi*t.freq*x) * 32767 * t.volume * env)
	}
	if t.repeat <= 1 {
		return tick
	}
	gap := make([]int16, int(float64(rate)*t.gap))
	out := make([]int16, 0, t.repeat*len(tick)+(t.repeat-1)*len(gap))
	for i := 0; i < t.repeat; i++ {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, tick...)
	}
	return out
}
