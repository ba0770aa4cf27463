package encoder

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavEncoder buffers PCM and writes a RIFF/WAVE file on Close. The header
// needs the final data size, so nothing is written before then.
type WavEncoder struct {
	meter
	sampleRate int

	bufMu   sync.Mutex
	samples []int
	out     seekBuffer
	closed  bool
}

func NewWav(sampleRate int) *WavEncoder {
	return &WavEncoder{sampleRate: sampleRate}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.bufMu.Lock()
	defer e.bufMu.Unlock()
	if e.closed {
		return errors.New("wav encoder closed")
	}
	for _, s := range block {
		e.samples = append(e.samples, int(s))
	}
	e.count(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.bufMu.Lock()
	defer e.bufMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	enc := wav.NewEncoder(&e.out, e.sampleRate, BitsPerSample, Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: e.sampleRate},
		Data:           e.samples,
		SourceBitDepth: BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

func (e *WavEncoder) Bytes() []byte { return e.out.buf }

func (e *WavEncoder) Ext() string { return "wav" }

func (e *WavEncoder) ContentType() string { return "audio/wav" }

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.buf) {
		b.buf = append(b.buf, make([]byte, need-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("seekBuffer: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("seekBuffer: negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
