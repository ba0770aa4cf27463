//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// pulseContext captures through the PulseAudio (or PipeWire-pulse) server.
type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("sori"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

// Devices lists capture sources. Monitor sources, which loop back what the
// speakers play, are not microphones and are left out.
func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		if strings.HasSuffix(s.ID(), ".monitor") {
			continue
		}
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return devices, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	gain := config.Gain
	if gain < 1 {
		gain = 1
	}
	return &pulseCapture{client: p.client, device: device, rate: int(config.SampleRate), gain: gain}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client *pulse.Client
	device *DeviceInfo
	rate   int
	gain   int32

	callback atomic.Pointer[DataCallback]
	scratch  []byte // only touched on the pulse read goroutine

	mu      sync.Mutex
	running *pulseRun
}

// pulseRun is one started stream.
type pulseRun struct {
	stream *pulse.RecordStream
	stop   chan struct{}
	done   chan struct{}
}

// write converts a pulse buffer to S16LE with gain applied and hands it to
// the callback. The byte slice is reused between calls.
func (c *pulseCapture) write(buf []int16) (int, error) {
	cb := c.callback.Load()
	if cb == nil || len(buf) == 0 {
		return len(buf), nil
	}
	if cap(c.scratch) < len(buf)*2 {
		c.scratch = make([]byte, len(buf)*2)
	}
	data := c.scratch[:len(buf)*2]
	for i, s := range buf {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(clampInt16(int32(s)*c.gain)))
	}
	(*cb)(data, uint32(len(buf)))
	return len(buf), nil
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running != nil {
		return nil
	}

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(c.rate),
		pulse.RecordLatency(0.05),
		pulse.RecordMediaName("sori voice input"),
		pulse.RecordRawOption(func(r *proto.CreateRecordStream) {
			r.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	}
	if c.device != nil {
		source, err := c.client.SourceByID(c.device.ID)
		if err != nil {
			return fmt.Errorf("pulse source %q: %w", c.device.Name, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	stream, err := c.client.NewRecord(pulse.Int16Writer(c.write), opts...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", err)
	}
	run := &pulseRun{stream: stream, stop: make(chan struct{}), done: make(chan struct{})}
	c.running = run

	go func() {
		defer close(run.done)
		run.stream.Start()
		<-run.stop
		run.stream.Stop()
		run.stream.Close()
	}()
	return nil
}

func (c *pulseCapture) Stop() {
	c.mu.Lock()
	run := c.running
	c.running = nil
	c.mu.Unlock()
	if run == nil {
		return
	}
	close(run.stop)
	<-run.done
}

func (c *pulseCapture) Close() { c.Stop() }

func (c *pulseCapture) SetCallback(cb DataCallback) { c.callback.Store(&cb) }

func (c *pulseCapture) ClearCallback() { c.callback.Store(nil) }

func (c *pulseCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
