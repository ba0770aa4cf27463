package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"sori/audio"
	"sori/log"
)

const devicePollInterval = 3 * time.Second

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

// deviceManager owns the capture device. It opens the chosen microphone,
// falls back to the system default when it disappears and switches back
// when it returns.
type deviceManager struct {
	actx audio.Context
	cfg  audio.CaptureConfig
	cb   audio.DataCallback
	sink Sink

	mu        sync.Mutex
	capture   audio.CaptureDevice
	selected  *audio.DeviceInfo
	preferred string
	last      []string
	failing   bool // a switch failed and capture is down
}

func newDeviceManager(actx audio.Context, cfg audio.CaptureConfig, cb audio.DataCallback, sink Sink) *deviceManager {
	return &deviceManager{actx: actx, cfg: cfg, cb: cb, sink: sink}
}

// Open starts capturing from dev, nil meaning the system default. dev also
// becomes the preferred device for reconnects.
func (m *deviceManager) Open(dev *audio.DeviceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dev != nil {
		m.preferred = dev.Name
	}
	return m.switchLocked(dev)
}

func (m *deviceManager) switchLocked(dev *audio.DeviceInfo) error {
	if m.capture != nil {
		m.capture.ClearCallback()
		m.capture.Close()
		m.capture = nil
	}
	capture, err := m.actx.NewCapture(dev, m.cfg)
	if err != nil {
		return err
	}
	capture.SetCallback(m.cb)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return err
	}
	m.capture = capture
	m.selected = dev
	m.sink.DeviceLine(deviceLineText(dev))
	return nil
}

// Prefer sets the device to reconnect to when it shows up, for a configured
// name that was absent at startup.
func (m *deviceManager) Prefer(name string) {
	m.mu.Lock()
	m.preferred = name
	m.mu.Unlock()
}

// Selected returns the device in use, nil for the system default.
func (m *deviceManager) Selected() *audio.DeviceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Close stops capture. The callback is cleared first so no frame arrives
// after Close returns.
func (m *deviceManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capture != nil {
		m.capture.ClearCallback()
		m.capture.Stop()
		m.capture.Close()
		m.capture = nil
	}
}

// Watch polls the device list until ctx is done.
func (m *deviceManager) Watch(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.poll(); err != nil {
				log.Warnf("device poll: %v", err)
			}
		}
	}
}

func (m *deviceManager) poll() error {
	devices, err := m.actx.Devices()
	if err != nil {
		return err
	}
	names := make([]string, len(devices))
	for i := range devices {
		names[i] = devices[i].Name
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Equal(m.last, names) && m.capture != nil {
		return nil
	}
	m.last = names

	sel := ""
	if m.selected != nil {
		sel = m.selected.Name
	}
	switch {
	case sel != "" && !slices.Contains(names, sel):
		log.Info("device_disconnected: " + sel)
		err = m.switchLocked(nil)
	case sel == "" && m.preferred != "" && slices.Contains(names, m.preferred):
		log.Info("device_reconnected: " + m.preferred)
		dev := devices[slices.Index(names, m.preferred)]
		err = m.switchLocked(&dev)
	case m.capture == nil:
		err = m.switchLocked(m.selected)
	}
	return m.settleLocked(err)
}

// settleLocked reports the first failed switch to the sink and arranges a
// retry on the next poll. Later failures of the same outage are only logged.
func (m *deviceManager) settleLocked(err error) error {
	if err == nil {
		m.failing = false
		return nil
	}
	m.last = nil
	if !m.failing {
		m.failing = true
		m.sink.Error(fmt.Errorf("microphone unavailable: %w", err))
	}
	return err
}

// resolveDevice picks the capture device: by name when one is configured,
// through the interactive picker with setup, else the system default.
func resolveDevice(actx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		dev, err := audio.FindDevice(actx, name)
		if err != nil {
			return nil, err
		}
		if dev == nil {
			log.Warnf("device %q not found, using system default", name)
		}
		return dev, nil
	}
	if !setup {
		return nil, nil
	}
	dev, err := audio.SelectDevice(actx)
	if errors.Is(err, audio.ErrSelectionCancelled) {
		return nil, nil
	}
	return dev, err
}
