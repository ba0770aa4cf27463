package encoder

import (
	"fmt"
	"sync"
	"time"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns 16-bit mono PCM blocks into an upload container.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
	// Ext is the file extension the transcription APIs expect.
	Ext() string
	ContentType() string
}

// New returns the encoder for format ("wav" or "flac").
func New(format string, sampleRate int) (Encoder, error) {
	switch format {
	case "", "wav":
		return NewWav(sampleRate), nil
	case "flac":
		return NewFlac(sampleRate)
	}
	return nil, fmt.Errorf("unknown format %q (want wav or flac)", format)
}

// EncodeAll feeds samples to enc in BlockSize blocks and closes it.
func EncodeAll(enc Encoder, samples []int16) error {
	start := time.Now()
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return err
		}
	}
	err := enc.Close()
	enc.AddEncodeTime(time.Since(start))
	return err
}

// meter holds the bookkeeping every encoder reports.
type meter struct {
	mu     sync.Mutex
	frames uint64
	spent  time.Duration
}

func (m *meter) count(n int) {
	m.mu.Lock()
	m.frames += uint64(n)
	m.mu.Unlock()
}

func (m *meter) TotalFrames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func (m *meter) AddEncodeTime(d time.Duration) {
	m.mu.Lock()
	m.spent += d
	m.mu.Unlock()
}

func (m *meter) EncodeTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent
}
