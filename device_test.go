package main

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"sori/audio"
)

// switchableContext is an audio.Context whose device list the test edits.
type switchableContext struct {
	mu          sync.Mutex
	devices     []audio.DeviceInfo
	opened      []string
	failDefault bool
}

func (c *switchableContext) setFailDefault(v bool) {
	c.mu.Lock()
	c.failDefault = v
	c.mu.Unlock()
}

func (c *switchableContext) set(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = nil
	for _, n := range names {
		c.devices = append(c.devices, audio.DeviceInfo{ID: n, Name: n})
	}
}

func (c *switchableContext) Devices() ([]audio.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.devices), nil
}

func (c *switchableContext) NewCapture(dev *audio.DeviceInfo, _ audio.CaptureConfig) (audio.CaptureDevice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := ""
	if dev != nil {
		name = dev.Name
	}
	c.opened = append(c.opened, name)
	if dev == nil && c.failDefault {
		return nil, errors.New("default source unavailable")
	}
	return &nullCapture{}, nil
}

func (c *switchableContext) Close() {}

func (c *switchableContext) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.opened)
}

type nullCapture struct{ cb audio.DataCallback }

func (n *nullCapture) Start() error                      { return nil }
func (n *nullCapture) Stop()                             {}
func (n *nullCapture) Close()                            {}
func (n *nullCapture) SetCallback(cb audio.DataCallback) { n.cb = cb }
func (n *nullCapture) ClearCallback()                    { n.cb = nil }
func (n *nullCapture) DeviceName() string                { return "null" }

func TestDeviceFallbackAndReconnect(t *testing.T) {
	actx := &switchableContext{}
	actx.set("Built-in Microphone", "USB Mic")
	sink := newEventSink()
	m := newDeviceManager(actx, audio.CaptureConfig{SampleRate: 16000, Channels: 1}, func([]byte, uint32) {}, sink)

	usb := &audio.DeviceInfo{ID: "USB Mic", Name: "USB Mic"}
	if err := m.Open(usb); err != nil {
		t.Fatal(err)
	}
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}

	actx.set("Built-in Microphone")
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}
	if m.Selected() != nil {
		t.Fatalf("selected = %v after unplug, want system default", m.Selected())
	}

	actx.set("Built-in Microphone", "USB Mic")
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}
	if sel := m.Selected(); sel == nil || sel.Name != "USB Mic" {
		t.Fatalf("selected = %v after replug, want USB Mic", sel)
	}

	want := []string{"USB Mic", "", "USB Mic"}
	if got := actx.Opened(); !slices.Equal(got, want) {
		t.Errorf("opened = %q, want %q", got, want)
	}
	lines := sink.Events()
	if len(lines) != 3 || lines[1] != "device:mic: system default" {
		t.Errorf("device lines = %v", lines)
	}
	m.Close()
}

func TestDeviceFailedFallbackIsReportedAndRetried(t *testing.T) {
	actx := &switchableContext{}
	actx.set("Built-in Microphone", "USB Mic")
	sink := newEventSink()
	m := newDeviceManager(actx, audio.CaptureConfig{}, func([]byte, uint32) {}, sink)
	if err := m.Open(&audio.DeviceInfo{ID: "USB Mic", Name: "USB Mic"}); err != nil {
		t.Fatal(err)
	}
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}

	actx.setFailDefault(true)
	actx.set("Built-in Microphone")
	if err := m.poll(); err == nil {
		t.Fatal("poll succeeded with no usable source")
	}
	err := waitFor(t, sink.errs, "microphone error")
	if !strings.Contains(err.Error(), "default source unavailable") {
		t.Errorf("err = %v", err)
	}

	// the device list is unchanged, but capture is down so the switch is retried
	if err := m.poll(); err == nil {
		t.Fatal("retry succeeded with no usable source")
	}
	if n := len(sink.errs); n != 0 {
		t.Errorf("%d more errors reported for the same outage", n)
	}

	actx.setFailDefault(false)
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}
	if m.Selected() != nil {
		t.Errorf("selected = %v, want system default", m.Selected())
	}
	want := []string{"USB Mic", "", "", ""}
	if got := actx.Opened(); !slices.Equal(got, want) {
		t.Errorf("opened = %q, want %q", got, want)
	}
	events := sink.Events()
	if last := events[len(events)-1]; last != "device:mic: system default" {
		t.Errorf("last event = %q, want the default device line", last)
	}
	m.Close()
}

func TestDevicePreferredAppearsLater(t *testing.T) {
	actx := &switchableContext{}
	actx.set("Built-in Microphone")
	m := newDeviceManager(actx, audio.CaptureConfig{}, func([]byte, uint32) {}, newEventSink())
	if err := m.Open(nil); err != nil {
		t.Fatal(err)
	}
	m.Prefer("AirPods Pro")

	actx.set("Built-in Microphone", "AirPods Pro")
	if err := m.poll(); err != nil {
		t.Fatal(err)
	}
	if sel := m.Selected(); sel == nil || sel.Name != "AirPods Pro" {
		t.Errorf("selected = %v, want AirPods Pro", sel)
	}
}

func TestDeviceUnchangedListIsIgnored(t *testing.T) {
	actx := &switchableContext{}
	actx.set("A")
	m := newDeviceManager(actx, audio.CaptureConfig{}, func([]byte, uint32) {}, newEventSink())
	m.Open(nil)
	m.poll()
	m.poll()
	if n := len(actx.Opened()); n != 1 {
		t.Errorf("opened %d times, want 1", n)
	}
}

func TestDeviceLineText(t *testing.T) {
	cases := map[string]*audio.DeviceInfo{
		"mic: system default":    nil,
		"mic: USB Mic":           {Name: "USB Mic"},
		"mic: AirPods Pro (BT!)": {Name: "AirPods Pro"},
	}
	for want, dev := range cases {
		if got := deviceLineText(dev); got != want {
			t.Errorf("deviceLineText(%v) = %q, want %q", dev, got, want)
		}
	}
}

func TestResolveDevice(t *testing.T) {
	actx := &switchableContext{}
	actx.set("Built-in Microphone", "USB Mic")

	dev, err := resolveDevice(actx, "USB Mic", false)
	if err != nil || dev == nil || dev.Name != "USB Mic" {
		t.Errorf("resolveDevice(USB Mic) = %v, %v", dev, err)
	}
	dev, err = resolveDevice(actx, "Missing", false)
	if err != nil || dev != nil {
		t.Errorf("resolveDevice(Missing) = %v, %v, want system default", dev, err)
	}
	dev, err = resolveDevice(actx, "", false)
	if err != nil || dev != nil {
		t.Errorf("resolveDevice(\"\") = %v, %v, want system default", dev, err)
	}
}
