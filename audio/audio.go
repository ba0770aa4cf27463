// Package audio captures microphone input as 16-bit mono PCM through
// PulseAudio on Linux and miniaudio elsewhere, and frames it for the
// segmentation engine.
package audio

// DataCallback receives S16LE mono PCM from the capture thread. It runs on the
// real-time audio path and must return without blocking.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	Gain       int32 // integer software gain; values below 1 mean unity
}

// DeviceInfo names one input device. ID is opaque and only meaningful to the
// Context that listed it.
type DeviceInfo struct {
	ID   string
	Name string
}

// Context enumerates input devices and opens captures on them. A nil device
// opens the system default.
type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

// CaptureDevice delivers PCM to its callback between Start and Stop.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice looks a device up by its display name. An empty name, or one
// that is not connected, yields nil so callers fall back to the default.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i, d := range devices {
		if d.Name == name {
			return &devices[i], nil
		}
	}
	return nil, nil
}

func clampInt16(v int32) int16 {
	return int16(min(max(v, -32768), 32767))
}
