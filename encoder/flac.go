package encoder

import (
	"bytes"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder writes a FLAC stream into memory, one frame per block.
// Subframes start out verbatim and the library's prediction analysis
// replaces them with fixed or LPC ones when that is smaller; speech at
// 16 kHz usually shrinks by half.
type FlacEncoder struct {
	meter
	buf  bytes.Buffer
	enc  *flac.Encoder
	rate uint32
	work []int32
}

func NewFlac(sampleRate int) (*FlacEncoder, error) {
	e := &FlacEncoder{rate: uint32(sampleRate)}
	enc, err := flac.NewEncoder(&e.buf, &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  BlockSize,
		SampleRate:    e.rate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

// EncodeBlock writes block as one or more frames. Blocks over BlockSize are
// split to honour the stream header.
func (e *FlacEncoder) EncodeBlock(block []int16) error {
	for len(block) > 0 {
		n := min(len(block), BlockSize)
		if err := e.writeFrame(block[:n]); err != nil {
			return err
		}
		e.count(n)
		block = block[n:]
	}
	return nil
}

func (e *FlacEncoder) writeFrame(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// the encoder keeps no reference to the subframe samples once the frame
	// is written, so one buffer serves every frame
	e.work = e.work[:0]
	for _, s := range block {
		e.work = append(e.work, int32(s))
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    e.rate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   e.work,
			NSamples:  len(block),
		}},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}

func (e *FlacEncoder) Close() error { return e.enc.Close() }

func (e *FlacEncoder) Bytes() []byte { return e.buf.Bytes() }

func (e *FlacEncoder) Ext() string { return "flac" }

func (e *FlacEncoder) ContentType() string { return "audio/flac" }
