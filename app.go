package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sori/audio"
	"sori/command"
	"sori/config"
	"sori/dispatch"
	"sori/encoder"
	"sori/history"
	"sori/log"
	"sori/segment"
	"sori/stylist"
	"sori/supervisor"
	"sori/transcriber"
	"sori/trigger"
)

var errSourceClosed = errors.New("trigger source closed")

// appDeps are the collaborators the app is built from. Production wiring
// lives in main.go; test mode and the tests swap in fakes.
type appDeps struct {
	Audio       audio.Context
	Device      *audio.DeviceInfo
	Source      trigger.Source // required in push-to-talk mode
	Transcriber transcriber.Transcriber
	Executor    command.Executor
	Injector    dispatch.Injector
	Completer   stylist.Completer
	History     *history.Store // nil disables history
	Sinks       []Sink
}

// App wires capture, segmentation, the trigger and the processing pipeline
// together and owns their lifecycle.
type App struct {
	cfg  *config.Config
	mode segment.Mode

	sink       *asyncSink
	sup        *supervisor.Supervisor
	engine     *segment.Engine
	controller *trigger.Controller
	source     trigger.Source
	devices    *deviceManager
	device     *audio.DeviceInfo

	tr      transcriber.Transcriber
	style   *stylist.Stylist
	disp    *dispatch.Dispatcher
	history *history.Store

	processed atomic.Int64
}

func newApp(cfg *config.Config, deps appDeps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		mode:    cfg.SegmentMode(),
		device:  deps.Device,
		tr:      deps.Transcriber,
		history: deps.History,
	}

	style, err := stylist.New(deps.Completer, cfg.StyleMode(), cfg.Style.CacheSize)
	if err != nil {
		return nil, err
	}
	a.style = style
	a.disp = dispatch.New(deps.Executor, deps.Injector, style, dispatch.Options{
		Table:     dispatch.Build(cfg.Dispatch.Extended),
		OpenApp:   cfg.OpenAppMode(),
		Whitelist: cfg.Dispatch.OpenAppWhitelist,
	})

	sinks := append([]Sink{logSink{}}, deps.Sinks...)
	if cfg.Beep {
		sinks = append(sinks, newCueSink())
	}
	if cfg.Notify.Desktop {
		sinks = append(sinks, newDesktopSink())
	}
	a.sink = newAsyncSink(newFanout(sinks...))

	a.sup = supervisor.New(a.process, supervisor.Options{
		Timeout: 2 * cfg.Transcribe.Timeout,
		OnError: func(_ *segment.Utterance, err error) { a.sink.Error(err) },
	})

	var vad *voiceDetector
	if a.mode == segment.ModePushToTalk && cfg.Segment.NoVoiceWarning > 0 {
		if vad, err = newVoiceDetector(cfg.Audio.SampleRate); err != nil {
			log.Warnf("no-voice warning disabled: %v", err)
			vad = nil
		}
	}
	obs := newIngestObserver(a.sink, vad, cfg.FramePeriod(), cfg.Segment.NoVoiceWarning, cfg.Segment.NoVoiceCancel)
	framer := audio.NewFramer(cfg.Audio.SampleRate, cfg.FramePeriod())
	a.engine = segment.NewEngine(a.mode, cfg.SegmentConfig(), framer, a.sup, obs)
	obs.bind(a.engine)

	if a.mode == segment.ModePushToTalk {
		if deps.Source == nil {
			return nil, errors.New("push-to-talk needs a trigger source")
		}
		tc, err := trigger.Parse(cfg.Trigger)
		if err != nil {
			return nil, fmt.Errorf("%w: trigger: %v", config.ErrInvalid, err)
		}
		a.controller = trigger.NewController(tc, a.sup.Busy)
		a.source = deps.Source
	}

	a.devices = newDeviceManager(deps.Audio, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   encoder.Channels,
		Gain:       int32(cfg.Audio.Gain),
	}, a.engine.Callback(), a.sink)
	if deps.Device == nil && cfg.Audio.Device != "" {
		a.devices.Prefer(cfg.Audio.Device)
	}
	return a, nil
}

func (a *App) modeLine() string {
	label := a.tr.Name()
	if lang := a.cfg.Transcribe.Language; lang != "" {
		label += " (" + lang + ")"
	}
	style := a.style.Style().DisplayName()
	if !a.style.Enabled() {
		style = "as spoken"
	}
	return fmt.Sprintf("[%s | %s | %s | %s]", a.mode, a.cfg.Transcribe.Format, label, style)
}

// TriggerName is the trigger as shown to the user, empty in continuous mode.
func (a *App) TriggerName() string {
	if a.controller == nil {
		return ""
	}
	return a.controller.Config().Name()
}

// Run captures and processes until ctx is done. On the way out the audio
// source and trigger stop first, then the in-flight utterance, if any, is
// allowed to finish.
func (a *App) Run(ctx context.Context) error {
	sinkCtx, stopSink := context.WithCancel(context.Background())
	go a.sink.Run(sinkCtx)
	defer func() {
		stopSink()
		<-a.sink.Done()
	}()

	log.SessionStart(a.tr.Name(), a.mode.String(), string(a.style.Style()))
	a.sink.ModeLine(a.modeLine())

	if err := a.devices.Open(a.device); err != nil {
		a.sup.Close()
		a.closeHistory()
		return fmt.Errorf("opening capture device: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.devices.Watch(gctx, devicePollInterval) })
	if a.controller != nil {
		if err := a.source.Start(gctx); err != nil {
			a.devices.Close()
			a.sup.Close()
			a.closeHistory()
			return fmt.Errorf("starting trigger listener: %w", err)
		}
		g.Go(func() error {
			err := a.controller.Run(gctx, a.source)
			switch {
			case errors.Is(err, context.Canceled):
				return nil
			case err == nil && gctx.Err() == nil:
				return errSourceClosed
			}
			return err
		})
		g.Go(func() error {
			a.forwardSignals(gctx)
			return nil
		})
		a.sink.Status(fmt.Sprintf("hold %s to talk", a.TriggerName()))
	} else {
		a.sink.Status("listening")
	}

	<-gctx.Done()
	a.devices.Close()
	if a.source != nil {
		a.source.Close()
	}
	err := g.Wait()
	a.sup.Close()
	a.closeHistory()
	log.SessionEnd(int(a.processed.Load()))
	return err
}

func (a *App) closeHistory() {
	if a.history == nil {
		return
	}
	if err := a.history.Close(); err != nil {
		log.Warnf("closing history: %v", err)
	}
}

// forwardSignals turns trigger signals into engine requests. The engine
// applies them on its next frame.
func (a *App) forwardSignals(ctx context.Context) {
	signals := a.controller.Signals()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-signals:
			switch s {
			case trigger.SignalStart:
				if !a.engine.RequestStart() {
					log.Warn("start request dropped")
				}
			case trigger.SignalStop:
				if !a.engine.RequestStop() {
					log.Warn("stop request dropped")
				}
			case trigger.SignalBusy:
				a.sink.Busy()
			}
		}
	}
}

// process is the supervisor task for one utterance: transcribe, dispatch,
// report, record.
func (a *App) process(ctx context.Context, u *segment.Utterance) error {
	log.Utterance(u.ID, u.Duration(), a.mode.String())

	res, err := a.tr.Transcribe(ctx, u.Samples(), u.SampleRate, a.cfg.Transcribe.Language)
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	a.logTranscription(res)

	text := strings.TrimSpace(res.Text)
	if res.NoSpeech || text == "" {
		a.sink.NoSpeech()
		return nil
	}
	log.TranscriptionText(text)

	r := a.disp.Dispatch(ctx, text)
	log.Dispatch(u.ID, r.Kind.String(), r.Action.String(), r.Changed(), r.Err)
	a.sink.Result(r, res)
	a.record(ctx, u.ID, r)
	a.processed.Add(1)
	return nil
}

func (a *App) logTranscription(res transcriber.Result) {
	if res.RateLimit != "" && res.RateLimit != "?/?" {
		log.Info("rate_limit: " + res.RateLimit)
	}
	s := res.Stats
	if s == nil {
		return
	}
	log.TranscriptionMetrics(log.Metrics{
		AudioLengthS:     s.AudioLengthS,
		RawSizeKB:        s.RawSizeKB,
		CompressedSizeKB: s.CompressedSizeKB,
		CompressionPct:   s.CompressionPct,
		EncodeTimeMs:     s.EncodeTimeMs,
		DNSTimeMs:        s.DNSTimeMs,
		TLSTimeMs:        s.TLSTimeMs,
		TTFBMs:           s.TTFBMs,
		TotalTimeMs:      s.TotalTimeMs,
		MemoryAllocMB:    res.MemoryAllocMB,
		MemoryPeakMB:     res.MemoryPeakMB,
	}, a.mode.String(), a.cfg.Transcribe.Format, a.tr.Name(), s.ConnReused, s.TLSProtocol)
	log.Confidence(s.Confidence)
}

func (a *App) record(ctx context.Context, utteranceID string, r dispatch.Result) {
	if a.history == nil {
		return
	}
	e := history.Entry{
		UtteranceID: utteranceID,
		UserInput:   r.Text,
		Success:     r.Err == nil,
	}
	switch r.Kind {
	case dispatch.KindTyped:
		e.Response = r.Transformed
	default:
		e.Command = r.Action.Kind.String()
		e.Response = r.Action.String()
	}
	if r.Err != nil {
		e.Response = r.Err.Error()
	}
	if err := a.history.Record(ctx, e); err != nil {
		log.Warnf("history: %v", err)
	}
}

// dryInjector logs what would have been typed.
type dryInjector struct {
	typed []string
}

func (d *dryInjector) Inject(_ context.Context, text string) error {
	d.typed = append(d.typed, text)
	log.Info("dry_run_type: " + text)
	return nil
}
