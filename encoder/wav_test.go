package encoder

import (
	"bytes"
	"io"
	"testing"

	"github.com/go-audio/wav"
)

func TestWavEncoderRoundTrip(t *testing.T) {
	samples := make([]int16, BlockSize+BlockSize/3)
	for i := range samples {
		samples[i] = int16((i % 200) * 100)
	}

	enc := NewWav(16000)
	if err := EncodeAll(enc, samples); err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}

	data := enc.Bytes()
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}

	d := wav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.SampleRate != 16000 || d.BitDepth != 16 || d.NumChans != 1 {
		t.Errorf("format = %d Hz %d-bit %d ch", d.SampleRate, d.BitDepth, d.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, s := range samples {
		if buf.Data[i] != int(s) {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], s)
		}
	}
}

func TestWavEncoderRejectsWritesAfterClose(t *testing.T) {
	enc := NewWav(16000)
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := enc.EncodeBlock([]int16{1}); err == nil {
		t.Error("expected error writing to closed encoder")
	}
	if err := enc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSeekBuffer(t *testing.T) {
	var b seekBuffer
	b.Write([]byte("abcdef"))
	if _, err := b.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("XY"))
	if _, err := b.Seek(0, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("!"))
	if got := string(b.buf); got != "abXYef!" {
		t.Errorf("buf = %q", got)
	}
	if _, err := b.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative seek")
	}
}

func TestNew(t *testing.T) {
	for _, tt := range []struct{ format, ext string }{
		{"", "wav"},
		{"wav", "wav"},
		{"flac", "flac"},
	} {
		enc, err := New(tt.format, 16000)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.format, err)
		}
		if enc.Ext() != tt.ext {
			t.Errorf("New(%q).Ext() = %q, want %q", tt.format, enc.Ext(), tt.ext)
		}
	}
	if _, err := New("mp3", 16000); err == nil {
		t.Error("expected error for mp3")
	}
}
