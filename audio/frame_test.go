package audio

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func TestFramerEmitsFixedFrames(t *testing.T) {
	f := NewFramer(16000, 100*time.Millisecond)
	if f.FrameSize() != 1600 {
		t.Fatalf("FrameSize = %d, want 1600", f.FrameSize())
	}

	pcm := EncodePCM16(make([]int16, 4000))
	var frames []Frame
	// feed in uneven chunks, including odd byte boundaries
	for _, n := range []int{1, 999, 3001, 3999} {
		f.Write(pcm[:n], func(fr Frame) { frames = append(frames, fr) })
		pcm = pcm[n:]
	}

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	for i, fr := range frames {
		if len(fr.Samples) != 1600 {
			t.Errorf("frame %d: %d samples", i, len(fr.Samples))
		}
		if fr.Duration() != 100*time.Millisecond {
			t.Errorf("frame %d: duration %v", i, fr.Duration())
		}
	}
}

func TestFramerFramesAreIndependent(t *testing.T) {
	f := NewFramer(1000, 10*time.Millisecond)
	in := make([]int16, 20)
	for i := range in {
		in[i] = int16(i * 100)
	}
	var frames []Frame
	f.Write(EncodePCM16(in), func(fr Frame) { frames = append(frames, fr) })
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Samples[0] == frames[1].Samples[0] {
		t.Error("frames share backing storage")
	}
}

func TestFramerReset(t *testing.T) {
	f := NewFramer(1000, 10*time.Millisecond)
	var n int
	f.Write(EncodePCM16(make([]int16, 7)), func(Frame) { n++ })
	f.Reset()
	f.Write(EncodePCM16(make([]int16, 7)), func(Frame) { n++ })
	if n != 0 {
		t.Errorf("emitted %d frames after reset, want 0", n)
	}
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("RMS(nil) != 0")
	}
	got := RMS([]float32{0.5, -0.5, 0.5, -0.5})
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("RMS = %f, want 0.5", got)
	}
}

func TestToInt16Clamps(t *testing.T) {
	got := ToInt16([]float32{0, 1, -1, 2, -2})
	want := []int16{0, 32767, -32767, 32767, -32768}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToInt16[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEncodePCM16RoundTrip(t *testing.T) {
	f := NewFramer(4, time.Second)
	var fr Frame
	f.Write(EncodePCM16([]int16{-32768, -1, 0, 16384}), func(x Frame) { fr = x })
	want := []float32{-1, -1.0 / 32768, 0, 0.5}
	for i := range want {
		if fr.Samples[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, fr.Samples[i], want[i])
		}
	}
}

func TestIsBluetooth(t *testing.T) {
	cases := map[string]bool{
		"AirPods Pro":                      true,
		"Galaxy Buds2 Pro":                 true,
		"Jabra Evolve 65":                  true,
		"Headset (BT) Hands-Free":          true,
		"bluez_input.40_72_18_AA_BB_CC.0":  true,
		"Headset Microphone (Hands-Free)":  true,
		"Built-in Microphone":              false,
		"USB Audio Device":                 false,
		"Rode NT-USB":                      false,
		"Monitor of Built-in Audio Stereo": false,
	}
	for name, want := range cases {
		if got := IsBluetooth(name); got != want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPickerNavigation(t *testing.T) {
	p := &picker{devices: []DeviceInfo{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	input := bytes.NewReader([]byte("jj\x1b[Ak\r"))
	// the picker reads up to three bytes at a time; feed one key per read
	r := &oneKeyReader{data: input}
	idx, err := p.run(r, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Errorf("cursor = %d, want 0", idx)
	}
}

func TestPickerCancel(t *testing.T) {
	p := &picker{devices: []DeviceInfo{{Name: "a"}, {Name: "b"}}}
	_, err := p.run(&oneKeyReader{data: bytes.NewReader([]byte{3})}, &bytes.Buffer{})
	if err != ErrSelectionCancelled {
		t.Errorf("err = %v, want ErrSelectionCancelled", err)
	}
}

// oneKeyReader returns a single key per Read, keeping escape sequences whole.
type oneKeyReader struct {
	data *bytes.Reader
}

func (r *oneKeyReader) Read(p []byte) (int, error) {
	b, err := r.data.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0x1b {
		p[0] = b
		return 1, nil
	}
	p[0] = b
	n := 1
	for n < 3 {
		c, err := r.data.ReadByte()
		if err != nil {
			break
		}
		p[n] = c
		n++
	}
	return n, nil
}
