package main

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"sori/audio"
)

const (
	vadAggressiveness = 3
	vadFrameDuration  = 20 * time.Millisecond
	voiceConfirmRun   = 3    // consecutive speech frames before a voice counts as heard
	speechShare       = 0.10 // share of frames in a window that must be speech
)

// voiceDetector runs the WebRTC voice activity detector over a recording.
// It answers two questions for the no-voice monitor: has a voice been heard
// since Reset, and was the audio since the last Spoke call speech.
// Utterance boundaries come from the RMS threshold in segment, not from here.
type voiceDetector struct {
	vad   *webrtcvad.VAD
	rate  int
	frame int // samples per detector frame

	mu      sync.Mutex
	pending []int16
	pcm     []byte
	run     int
	heard   bool
	last    time.Time
	window  speechWindow
}

type speechWindow struct{ frames, speech int }

func (w speechWindow) mostlySpeech() bool {
	return w.frames > 0 && float64(w.speech)/float64(w.frames) >= speechShare
}

func newVoiceDetector(sampleRate int) (*voiceDetector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadAggressiveness); err != nil {
		return nil, err
	}
	frame := int(int64(sampleRate) * int64(vadFrameDuration) / int64(time.Second))
	if !v.ValidRateAndFrameLength(sampleRate, frame) {
		return nil, fmt.Errorf("voice detection does not support %d Hz", sampleRate)
	}
	return &voiceDetector{
		vad:   v,
		rate:  sampleRate,
		frame: frame,
		pcm:   make([]byte, frame*2),
	}, nil
}

// Feed adds normalized samples. Leftovers shorter than a detector frame wait
// for the next call.
func (d *voiceDetector) Feed(samples []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, audio.ToInt16(samples)...)
	n := 0
	for ; len(d.pending)-n >= d.frame; n += d.frame {
		for i, s := range d.pending[n : n+d.frame] {
			binary.LittleEndian.PutUint16(d.pcm[i*2:], uint16(s))
		}
		active, err := d.vad.Process(d.rate, d.pcm)
		if err != nil {
			continue
		}
		d.observe(active)
	}
	d.pending = append(d.pending[:0], d.pending[n:]...)
}

func (d *voiceDetector) observe(active bool) {
	d.window.frames++
	if !active {
		d.run = 0
		return
	}
	d.window.speech++
	d.run++
	if d.heard || d.run >= voiceConfirmRun {
		d.heard = true
		d.last = time.Now()
	}
}

// Heard reports whether a voice has been confirmed since Reset.
func (d *voiceDetector) Heard() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heard
}

func (d *voiceDetector) LastHeard() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Spoke reports whether the audio fed since the previous call was speech,
// and starts a new window.
func (d *voiceDetector) Spoke() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.window
	d.window = speechWindow{}
	return w.mostlySpeech()
}

func (d *voiceDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = d.pending[:0]
	d.run = 0
	d.heard = false
	d.last = time.Time{}
	d.window = speechWindow{}
}
