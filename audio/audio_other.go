//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// malgoContext captures through miniaudio: CoreAudio on darwin, WASAPI on
// windows.
type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("miniaudio: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

// Devices lists capture devices. IDs are the hex form of miniaudio's opaque
// device ID so they survive a round trip through config.
func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("miniaudio devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		devices = append(devices, DeviceInfo{ID: hex.EncodeToString(d.ID.Pointer()[:]), Name: d.Name()})
	}
	return devices, nil
}

func parseDeviceID(id string) (malgo.DeviceID, error) {
	var dev malgo.DeviceID
	raw, err := hex.DecodeString(id)
	if err != nil {
		return dev, fmt.Errorf("invalid device ID %q: %w", id, err)
	}
	if len(raw) > len(dev) {
		return dev, fmt.Errorf("invalid device ID %q: %d bytes", id, len(raw))
	}
	copy(dev[:], raw)
	return dev, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	dc := malgo.DefaultDeviceConfig(malgo.Capture)
	dc.Capture.Format = malgo.FormatS16
	dc.Capture.Channels = config.Channels
	dc.SampleRate = config.SampleRate

	if device != nil {
		id, err := parseDeviceID(device.ID)
		if err != nil {
			return nil, err
		}
		dc.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{device: device, gain: max(config.Gain, 1)}
	dev, err := malgo.InitDevice(m.ctx.Context, dc, malgo.DeviceCallbacks{Data: c.onData})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", c.DeviceName(), err)
	}
	c.dev = dev
	return c, nil
}

func (m *malgoContext) Close() {
	_ = m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	dev      *malgo.Device
	device   *DeviceInfo
	gain     int32
	callback atomic.Pointer[DataCallback]
	closed   sync.Once
}

// onData runs on the miniaudio thread. Gain is applied in place; the
// buffer belongs to miniaudio and is not kept past the callback.
func (c *malgoCapture) onData(_, data []byte, frameCount uint32) {
	cb := c.callback.Load()
	if cb == nil {
		return
	}
	if c.gain > 1 {
		for i := 0; i+1 < len(data); i += 2 {
			s := int32(int16(binary.LittleEndian.Uint16(data[i:])))
			binary.LittleEndian.PutUint16(data[i:], uint16(clampInt16(s*c.gain)))
		}
	}
	(*cb)(data, frameCount)
}

func (c *malgoCapture) Start() error {
	if err := c.dev.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", c.DeviceName(), err)
	}
	return nil
}

func (c *malgoCapture) Stop() { _ = c.dev.Stop() }

func (c *malgoCapture) Close() {
	c.closed.Do(func() {
		c.callback.Store(nil)
		c.dev.Uninit()
	})
}

func (c *malgoCapture) SetCallback(cb DataCallback) { c.callback.Store(&cb) }

func (c *malgoCapture) ClearCallback() { c.callback.Store(nil) }

func (c *malgoCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
