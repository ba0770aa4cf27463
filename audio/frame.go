package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Frame is one fixed-length block of normalized mono samples in [-1, 1].
// A Frame is never mutated after the Framer emits it.
type Frame struct {
	Samples    []float32
	SampleRate int
}

func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// Level is the RMS energy of the frame.
func (f Frame) Level() float64 {
	return RMS(f.Samples)
}

// RMS returns the root-mean-square energy of samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Framer re-chunks capture callbacks of arbitrary size into frames of a fixed
// sample count. It is owned by the capture callback and not safe for
// concurrent use.
type Framer struct {
	size    int
	rate    int
	pending []float32
	odd     []byte
}

func NewFramer(sampleRate int, period time.Duration) *Framer {
	size := int(int64(sampleRate) * int64(period) / int64(time.Second))
	if size < 1 {
		size = 1
	}
	return &Framer{
		size:    size,
		rate:    sampleRate,
		pending: make([]float32, 0, size),
	}
}

func (f *Framer) FrameSize() int { return f.size }

func (f *Framer) SampleRate() int { return f.rate }

// Write decodes S16LE pcm and calls emit once per completed frame.
func (f *Framer) Write(pcm []byte, emit func(Frame)) {
	if len(f.odd) > 0 {
		pcm = append(f.odd, pcm...)
		f.odd = nil
	}
	n := len(pcm) &^ 1
	for i := 0; i < n; i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		f.pending = append(f.pending, float32(s)/32768.0)
		if len(f.pending) == f.size {
			emit(Frame{Samples: f.pending, SampleRate: f.rate})
			f.pending = make([]float32, 0, f.size)
		}
	}
	if n < len(pcm) {
		f.odd = []byte{pcm[n]}
	}
}

// Reset drops any partially filled frame.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
	f.odd = nil
}

// ToInt16 converts normalized samples to 16-bit PCM, clamping out-of-range values.
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = clampInt16(int32(float64(s) * 32767))
	}
	return out
}

// EncodePCM16 converts int16 samples to S16LE bytes.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
