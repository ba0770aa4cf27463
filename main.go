package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"sori/audio"
	"sori/clipboard"
	"sori/command"
	"sori/config"
	"sori/dispatch"
	"sori/history"
	"sori/log"
	"sori/segment"
	"sori/shutdown"
	"sori/stylist"
	"sori/transcriber"
	"sori/trigger"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logPath    string
}

type runFlags struct {
	setup   bool
	tui     bool
	dryRun  bool
	profile string
}

func newRootCmd() *cobra.Command {
	var rf rootFlags
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "sori",
		Short: "Korean voice input and voice commands",
		Long: `sori listens to the microphone, transcribes what you say and either runs it
as a voice command or types it into the focused window.`,
		Example: `  # Hold the trigger key to talk
  sori

  # Hands-free, with a polite speaking style
  sori --mode continuous --style polite`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogDir(rf.logPath)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssistant(cmd, rf, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "configuration file (default: <config dir>/sori/config.yaml)")
	pf.StringVar(&rf.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")

	f := cmd.Flags()
	f.String("device", "", "use named microphone device")
	f.String("mode", "", "capture mode: push_to_talk or continuous")
	f.String("style", "", "speaking style applied to typed text")
	f.String("lang", "", "language code for transcription (default from config, ko)")
	f.String("provider", "", "transcription provider: openai, groq or deepgram")
	f.BoolVar(&flags.setup, "setup", false, "select microphone device interactively")
	f.BoolVar(&flags.tui, "tui", true, "run with terminal UI")
	f.BoolVar(&flags.dryRun, "dry-run", false, "log commands and text instead of performing them")
	f.StringVar(&flags.profile, "profile", "", "enable pprof server (e.g. localhost:6060)")

	cmd.AddCommand(newDevicesCmd())
	cmd.AddCommand(newDoctorCmd(&rf))
	cmd.AddCommand(newHistoryCmd(&rf))
	cmd.AddCommand(newConfigCmd(&rf))
	cmd.AddCommand(newTestCmd(&rf))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// execute runs the command line and returns the process exit code.
func execute() int {
	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func setupLogDir(flagPath string) error {
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return fmt.Errorf("resolving log directory: %w", err)
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
	return nil
}

func startProfiler(addr string) {
	if addr == "" {
		return
	}
	go func() {
		fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
		}
	}()
}

func runAssistant(cmd *cobra.Command, rf rootFlags, flags runFlags) error {
	cfg, err := config.Load(rf.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	startProfiler(flags.profile)

	actx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()

	dev, err := resolveDevice(actx, cfg.Audio.Device, flags.setup)
	if err != nil {
		return err
	}

	tr, err := transcriber.New(cfg.Transcribe.Provider, cfg.Transcribe.Format, os.Getenv)
	if err != nil {
		return err
	}
	if w, ok := tr.(interface{ Warm() }); ok {
		w.Warm()
	}

	deps := appDeps{
		Audio:       actx,
		Device:      dev,
		Transcriber: tr,
		Completer:   newCompleter(cfg),
		History:     openHistory(cfg),
	}
	deps.Executor, deps.Injector = newOutputs(flags.dryRun)

	var triggerName string
	if cfg.SegmentMode() == segment.ModePushToTalk {
		tc, err := trigger.Parse(cfg.Trigger)
		if err != nil {
			return fmt.Errorf("%w: trigger: %v", config.ErrInvalid, err)
		}
		deps.Source = trigger.NewSource(tc)
		triggerName = tc.Name()
	}

	if !flags.tui {
		deps.Sinks = []Sink{newConsoleSink(cmd.OutOrStdout())}
		app, err := newApp(cfg, deps)
		if err != nil {
			return err
		}
		return app.Run(cmd.Context())
	}

	p := NewTUIProgram(triggerName)
	deps.Sinks = []Sink{tuiSink{p: p}}
	app, err := newApp(cfg, deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	appErr := make(chan error, 1)
	go func() {
		err := app.Run(ctx)
		p.Quit()
		appErr <- err
	}()

	_, tuiErr := p.Run()
	cancel()
	if err := <-appErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return tuiErr
}

func newCompleter(cfg *config.Config) stylist.Completer {
	c, err := stylist.NewCompleter(cfg.Style.Provider, cfg.Style.Model, os.Getenv)
	if err != nil {
		log.Warnf("style transform disabled: %v", err)
		return nil
	}
	return c
}

func openHistory(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warnf("history disabled: %v", err)
		return nil
	}
	return store
}

func newOutputs(dryRun bool) (command.Executor, dispatch.Injector) {
	if dryRun {
		return command.NewRecorder(), &dryInjector{}
	}
	if err := clipboard.Init(); err != nil {
		log.Warnf("paste init failed: %v", err)
	}
	return command.NewNative(), clipboard.NewSystemInjector()
}
