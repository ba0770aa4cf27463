// Package doctor runs interactive checks of everything sori needs from the
// machine: the trigger, the microphone, the providers and the clipboard.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sori/audio"
	"sori/clipboard"
	"sori/config"
	"sori/encoder"
	"sori/history"
	"sori/segment"
	"sori/stylist"
	"sori/transcriber"
	"sori/trigger"
)

const (
	triggerTimeout = 10 * time.Second
	recordFor      = 3 * time.Second
	// quieter than this over a whole recording means a muted or dead mic
	silentPeak = 0.003
)

var errSkipped = errors.New("skipped")

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Doctor walks the user through the checks.
type Doctor struct {
	cfg    *config.Config
	in     *bufio.Reader
	out    io.Writer
	getenv func(string) string

	// samples recorded by the microphone check, reused for transcription
	samples []float32
	tty     *terminalGuard
}

func New(cfg *config.Config, in io.Reader, out io.Writer) *Doctor {
	return &Doctor{cfg: cfg, in: bufio.NewReader(in), out: out, getenv: os.Getenv}
}

// Run executes every check and returns the number that failed.
func Run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) int {
	d := New(cfg, in, out)
	d.tty = guardTerminal(os.Stdin)
	defer d.tty.restore()

	fmt.Fprintln(out, "sori doctor - interactive system diagnostics")
	fmt.Fprintln(out, "============================================")

	return d.runChecks(ctx, d.checks())
}

func (d *Doctor) checks() []check {
	return []check{
		{"Configuration", d.checkConfig},
		{"Trigger", d.checkTrigger},
		{"Microphone", d.checkMicrophone},
		{"Transcription", d.checkTranscription},
		{"Style model", d.checkStylist},
		{"Keystroke output", d.checkPaste},
		{"Clipboard", d.checkClipboard},
		{"History", d.checkHistory},
	}
}

func (d *Doctor) runChecks(ctx context.Context, checks []check) int {
	failed := 0
	for i, c := range checks {
		fmt.Fprintf(d.out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(d.out, "  Interrupted")
			return failed + len(checks) - i
		}
		msg, err := c.run(ctx)
		switch {
		case errors.Is(err, errSkipped):
			fmt.Fprintf(d.out, "  SKIP: %s\n", msg)
		case err != nil:
			fmt.Fprintf(d.out, "  FAIL: %v\n", err)
			failed++
		default:
			fmt.Fprintf(d.out, "  PASS: %s\n", msg)
		}
	}

	fmt.Fprintln(d.out)
	if failed == 0 {
		fmt.Fprintln(d.out, "All checks passed!")
	} else {
		fmt.Fprintln(d.out, "Some checks failed. See details above.")
	}
	return failed
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (d *Doctor) confirm(question string) bool {
	fmt.Fprintf(d.out, "%s [y/n]: ", question)
	answer, _ := d.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *Doctor) checkConfig(context.Context) (string, error) {
	if err := d.cfg.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s mode, %s via %s", d.cfg.Segment.Mode, d.cfg.Transcribe.Format, d.cfg.Transcribe.Provider), nil
}

func (d *Doctor) checkTrigger(ctx context.Context) (string, error) {
	if d.cfg.SegmentMode() != segment.ModePushToTalk {
		return "continuous mode needs no trigger", errSkipped
	}
	tc, err := trigger.Parse(d.cfg.Trigger)
	if err != nil {
		return "", err
	}
	info, err := trigger.Diagnose(tc)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(d.out, "  %s\n", info)
	fmt.Fprintf(d.out, "Press %s...\n", tc.Name())

	src := trigger.NewSource(tc)
	ctx, cancel := context.WithTimeout(ctx, triggerTimeout)
	defer cancel()
	if err := src.Start(ctx); err != nil {
		return "", fmt.Errorf("could not start listener: %w", err)
	}
	defer src.Close()

	ctl := trigger.NewController(tc, func() bool { return false })
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timeout waiting for %s", tc.Name())
		case ev, ok := <-src.Events():
			if !ok {
				return "", errors.New("listener closed")
			}
			if s, ok := ctl.Handle(ev); ok && s == trigger.SignalStart {
				d.tty.restore()
				return tc.Name() + " detected", nil
			}
		}
	}
}

func (d *Doctor) checkMicrophone(ctx context.Context) (string, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	dev, err := audio.FindDevice(actx, d.cfg.Audio.Device)
	if err != nil {
		return "", err
	}
	name := "system default"
	if dev != nil {
		name = audio.DescribeDevice(*dev)
	}
	fmt.Fprintf(d.out, "Using device: %s\n", name)
	fmt.Fprintf(d.out, "Press Enter and speak for %d seconds...", int(recordFor.Seconds()))
	d.in.ReadString('\n')

	samples, peak, err := d.record(ctx, actx, dev)
	if err != nil {
		return "", err
	}
	d.samples = samples

	if peak < silentPeak {
		return "", fmt.Errorf("no sound picked up (peak level %.4f); check the input volume", peak)
	}
	return fmt.Sprintf("%.1fs recorded, peak level %.3f", float64(len(samples))/float64(d.cfg.Audio.SampleRate), peak), nil
}

// record captures for recordFor and returns the samples with the loudest
// frame level.
func (d *Doctor) record(ctx context.Context, actx audio.Context, dev *audio.DeviceInfo) ([]float32, float64, error) {
	capture, err := actx.NewCapture(dev, audio.CaptureConfig{
		SampleRate: uint32(d.cfg.Audio.SampleRate),
		Channels:   encoder.Channels,
		Gain:       int32(d.cfg.Audio.Gain),
	})
	if err != nil {
		return nil, 0, err
	}
	defer capture.Close()

	frames := make(chan audio.Frame, 64)
	framer := audio.NewFramer(d.cfg.Audio.SampleRate, d.cfg.FramePeriod())
	capture.SetCallback(func(data []byte, _ uint32) {
		framer.Write(data, func(f audio.Frame) {
			select {
			case frames <- f:
			default:
			}
		})
	})
	if err := capture.Start(); err != nil {
		return nil, 0, err
	}

	fmt.Fprint(d.out, "  Recording")
	var samples []float32
	var peak float64
	deadline := time.After(recordFor)
	dots := time.NewTicker(500 * time.Millisecond)
	defer dots.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			capture.ClearCallback()
			capture.Stop()
			return nil, 0, ctx.Err()
		case f := <-frames:
			samples = append(samples, f.Samples...)
			peak = max(peak, f.Level())
		case <-dots.C:
			fmt.Fprint(d.out, ".")
		case <-deadline:
			break loop
		}
	}
	capture.ClearCallback()
	capture.Stop()
	fmt.Fprintln(d.out, " done")

	if len(samples) == 0 {
		return nil, 0, errors.New("no audio captured")
	}
	return samples, peak, nil
}

func (d *Doctor) checkTranscription(ctx context.Context) (string, error) {
	if len(d.samples) == 0 {
		return "no recording to transcribe", errSkipped
	}
	tr, err := transcriber.New(d.cfg.Transcribe.Provider, d.cfg.Transcribe.Format, d.getenv)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Transcribe.Timeout)
	defer cancel()

	fmt.Fprintf(d.out, "  Transcribing with %s...\n", tr.Name())
	res, err := tr.Transcribe(ctx, d.samples, d.cfg.Audio.SampleRate, d.cfg.Transcribe.Language)
	if err != nil {
		return "", err
	}
	for _, line := range res.Metrics {
		fmt.Fprintf(d.out, "  %s\n", line)
	}
	text := strings.TrimSpace(res.Text)
	if res.NoSpeech || text == "" {
		text = "(no speech detected)"
	}
	fmt.Fprintf(d.out, "\n  Transcribed text: %s\n\n", text)
	if !d.confirm("Is this correct?") {
		return "", errors.New("transcription not confirmed")
	}
	return "transcription verified by user", nil
}

func (d *Doctor) checkStylist(ctx context.Context) (string, error) {
	c, err := stylist.NewCompleter(d.cfg.Style.Provider, d.cfg.Style.Model, d.getenv)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "style provider disabled", errSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Transcribe.Timeout)
	defer cancel()

	system, temp := d.cfg.StyleMode().Prompt()
	out, err := c.Complete(ctx, system, "안녕하세요 반갑습니다", temp)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Name(), err)
	}
	return fmt.Sprintf("%s answered %q", c.Name(), out), nil
}

func (d *Doctor) checkPaste(context.Context) (string, error) {
	msg, err := clipboard.Verify()
	if err != nil {
		return "", err
	}
	return msg, nil
}

func (d *Doctor) checkClipboard(ctx context.Context) (string, error) {
	if clipboard.Unsupported() {
		return "", errors.New("no clipboard utility found (install wl-clipboard, xclip or xsel)")
	}
	return roundTrip(ctx, clipboard.System{}, fmt.Sprintf("sori-doctor-%d", time.Now().UnixNano()))
}

// roundTrip writes probe to board and reads it back, restoring what was there.
// Clipboard helpers can hang when the compositor is unreachable, so it gives
// up after three seconds.
func roundTrip(ctx context.Context, board clipboard.Board, probe string) (string, error) {
	type result struct {
		got   string
		err   error
		phase string
	}
	ch := make(chan result, 1)
	go func() {
		saved, _ := board.Read()
		if err := board.Write(probe); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := board.Read()
		board.Write(saved)
		ch <- result{got: got, err: err, phase: "read"}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("clipboard %s failed: %w", r.phase, r.err)
		}
		if r.got != probe {
			return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", probe, r.got)
		}
		return "clipboard write/read verified", nil
	case <-time.After(3 * time.Second):
		return "", errors.New("clipboard timed out (compositor not accessible?)")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Doctor) checkHistory(ctx context.Context) (string, error) {
	if !d.cfg.History.Enabled {
		return "history disabled", errSkipped
	}
	store, err := history.Open(d.cfg.History.Path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	top, err := store.TopCommands(ctx, 1)
	if err != nil {
		return "", err
	}
	msg := d.cfg.History.Path
	if len(top) > 0 {
		msg += fmt.Sprintf(" (most used: %s, %d times)", top[0].Command, top[0].UseCount)
	}
	return msg, nil
}
