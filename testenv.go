package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sori/audio"
	"sori/beep"
	"sori/clipboard"
	"sori/command"
	"sori/config"
	"sori/dispatch"
	"sori/log"
	"sori/segment"
	"sori/transcriber"
	"sori/trigger"
)

type testFlags struct {
	realtime bool
	paste    bool
	fakeText string
}

// settleSink signals once the outcome of a recording is known, whichever
// way it ended.
type settleSink struct {
	nopSink
	settled chan struct{}
}

func newSettleSink() *settleSink {
	return &settleSink{settled: make(chan struct{}, 16)}
}

func (s *settleSink) signal() {
	select {
	case s.settled <- struct{}{}:
	default:
	}
}

func (s *settleSink) TooShort(time.Duration)                     { s.signal() }
func (s *settleSink) NoSpeech()                                  { s.signal() }
func (s *settleSink) Result(dispatch.Result, transcriber.Result) { s.signal() }
func (s *settleSink) Error(error)                                { s.signal() }
func (s *settleSink) Busy()                                      { s.signal() }

// fakeCaptures hands out the capture the app opens, so the driver can wait
// for the file to play out.
type fakeCaptures struct {
	*audio.FakeContext
	opened chan *audio.FakeCapture
}

func (f *fakeCaptures) NewCapture(dev *audio.DeviceInfo, cfg audio.CaptureConfig) (audio.CaptureDevice, error) {
	c, err := f.FakeContext.NewCapture(dev, cfg)
	if err != nil {
		return nil, err
	}
	if fc, ok := c.(*audio.FakeCapture); ok {
		select {
		case f.opened <- fc:
		default:
		}
	}
	return c, nil
}

func runTestMode(ctx context.Context, cfg *config.Config, wavPath string, tf testFlags, stdin io.Reader) error {
	beep.Disable()
	cfg.Beep = false
	cfg.Notify.Desktop = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	fake, err := audio.NewFakeContext(wavPath, tf.realtime)
	if err != nil {
		return fmt.Errorf("loading WAV: %w", err)
	}
	actx := &fakeCaptures{FakeContext: fake, opened: make(chan *audio.FakeCapture, 1)}

	var tr transcriber.Transcriber
	if tf.fakeText != "" {
		tr = transcriber.NewFake(tf.fakeText, nil)
	} else if tr, err = transcriber.New(cfg.Transcribe.Provider, cfg.Transcribe.Format, os.Getenv); err != nil {
		return err
	}

	settle := newSettleSink()
	deps := appDeps{
		Audio:       actx,
		Transcriber: tr,
		Executor:    command.NewRecorder(),
		Injector:    &dryInjector{},
		Completer:   newCompleter(cfg),
		History:     openHistory(cfg),
		Sinks:       []Sink{settle},
	}
	if tf.paste {
		if err := clipboard.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
		deps.Injector = clipboard.NewSystemInjector()
	}

	var tc trigger.Config
	src := trigger.NewFakeSource()
	if cfg.SegmentMode() == segment.ModePushToTalk {
		if tc, err = trigger.Parse(cfg.Trigger); err != nil {
			return err
		}
		deps.Source = src
	}

	app, err := newApp(cfg, deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	appErr := make(chan error, 1)
	go func() { appErr <- app.Run(ctx) }()

	var capture *audio.FakeCapture
	select {
	case capture = <-actx.opened:
	case err := <-appErr:
		return err
	}

	d := &testDriver{
		press:   func() { src.Press(tc) },
		release: func() { src.Release(tc) },
		settled: settle.settled,
		played:  capture.AudioDone,
	}
	d.run(ctx, stdin)

	cancel()
	return <-appErr
}

// testDriver reads one command per line until QUIT or end of input.
type testDriver struct {
	press   func()
	release func()
	settled <-chan struct{}
	played  func() <-chan struct{}
}

func (d *testDriver) run(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch strings.ToUpper(cmd) {
		case "":
		case "PRESS", "KEYDOWN":
			d.press()
		case "RELEASE", "KEYUP":
			d.release()
		case "WAIT":
			select {
			case <-d.settled:
			case <-ctx.Done():
				return
			}
		case "WAIT_AUDIO_DONE":
			select {
			case <-d.played():
			case <-ctx.Done():
				return
			}
		case "QUIT":
			return
		default:
			if ms, ok := strings.CutPrefix(strings.ToUpper(cmd), "SLEEP "); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(ms)); err == nil {
					time.Sleep(time.Duration(n) * time.Millisecond)
					continue
				}
			}
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
}
