//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	rendered  map[Cue][]byte
	soundOnce sync.Once

	// read from the device callback
	playing atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func pcmBytes(mono []int16) []byte {
	out := make([]byte, len(mono)*2)
	for i, s := range mono {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func initSound() {
	rendered = make(map[Cue][]byte, len(tones))
	for c, t := range tones {
		rendered[c] = pcmBytes(t.samples(sampleRate))
	}

	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		malgoCtx = nil
		return
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	device, err = malgo.InitDevice(malgoCtx.Context, cfg, malgo.DeviceCallbacks{Data: dataCallback})
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx = nil
		device = nil
	}
}

func Init() { soundOnce.Do(initSound) }

func dataCallback(out, _ []byte, frameCount uint32) {
	clear(out)
	samples := playing.Load()
	if samples == nil {
		return
	}
	pos := playPos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		playing.Store(nil)
		return
	}
	n := min(frameCount*2, remaining)
	copy(out[:n], (*samples)[pos:pos+n])
	playPos.Store(pos + n)
}

func play(c Cue) {
	soundOnce.Do(initSound)
	if device == nil {
		return
	}
	samples := rendered[c]
	playMu.Lock()
	defer playMu.Unlock()
	playPos.Store(0)
	playing.Store(&samples)
	if !device.IsStarted() {
		_ = device.Start()
	}
}
