package main

import "time"

const (
	noVoiceCancelAfter = 30 * time.Second
	warnBelowShare     = 0.10
	clearAtShare       = 0.25 // above warnBelowShare so VAD noise cannot flap the warning
)

type voiceEvent int

const (
	voiceOK      voiceEvent = iota
	voiceWarn               // no voice in the last warn window
	voiceCleared            // speech resumed after a warning
	voiceRepeat             // warning still standing, cue again
	voiceCancel             // recording abandoned after a long silence
)

// speechRing holds the last len(marks) speech decisions.
type speechRing struct {
	marks  []bool
	pushed int
	speech int // true marks currently held
}

func (r *speechRing) push(v bool) {
	i := r.pushed % len(r.marks)
	if r.pushed >= len(r.marks) && r.marks[i] {
		r.speech--
	}
	r.marks[i] = v
	if v {
		r.speech++
	}
	r.pushed++
}

func (r *speechRing) full() bool { return r.pushed >= len(r.marks) }

// recent is the speech share of the last k decisions.
func (r *speechRing) recent(k int) float64 {
	k = min(k, r.pushed, len(r.marks))
	if k == 0 {
		return 1
	}
	n := 0
	for i := 1; i <= k; i++ {
		if r.marks[(r.pushed-i)%len(r.marks)] {
			n++
		}
	}
	return float64(n) / float64(k)
}

func (r *speechRing) share() float64 {
	return float64(r.speech) / float64(len(r.marks))
}

// noVoiceMonitor watches an open push-to-talk recording for a held trigger
// with nobody speaking, usually a muted or wrong microphone. It takes one
// speech decision per frame tick.
type noVoiceMonitor struct {
	ring       speechRing
	warnTicks  int
	autoCancel bool

	warned  bool
	lastCue int
}

// newNoVoiceMonitor warns once less than 10% of the last warnAfter was
// speech. With autoCancel the warning repeats every warnAfter and 30s of
// near silence cancels the recording.
func newNoVoiceMonitor(tick, warnAfter time.Duration, autoCancel bool) *noVoiceMonitor {
	warnTicks := max(int(warnAfter/tick), 1)
	size := max(int(noVoiceCancelAfter/tick), warnTicks)
	return &noVoiceMonitor{
		ring:       speechRing{marks: make([]bool, size)},
		warnTicks:  warnTicks,
		autoCancel: autoCancel,
	}
}

func (m *noVoiceMonitor) Tick(speech bool) voiceEvent {
	m.ring.push(speech)
	ticks := m.ring.pushed
	share := m.ring.recent(m.warnTicks)

	switch {
	case !m.warned && ticks >= m.warnTicks && share < warnBelowShare:
		m.warned = true
		m.lastCue = ticks
		return voiceWarn
	case m.warned && share >= clearAtShare:
		m.warned = false
		return voiceCleared
	case !m.autoCancel:
		return voiceOK
	case m.ring.full() && m.ring.share() < warnBelowShare:
		// a long silence ends with a cancel, not one more cue
		return voiceCancel
	case m.warned && ticks-m.lastCue >= m.warnTicks:
		m.lastCue = ticks
		return voiceRepeat
	}
	return voiceOK
}

// Warned reports whether a warning is standing.
func (m *noVoiceMonitor) Warned() bool { return m.warned }
