package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sori/audio"
	"sori/config"
	"sori/doctor"
	"sori/history"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List microphone devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actx, err := audio.NewContext()
			if err != nil {
				return fmt.Errorf("initializing audio: %w", err)
			}
			defer actx.Close()

			devices, err := actx.Devices()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "no capture devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Fprintln(out, audio.DescribeDevice(d))
			}
			return nil
		},
	}
}

func newDoctorCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run interactive system diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rf.configPath, nil)
			if err != nil {
				return err
			}
			if code := doctor.Run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout()); code != 0 {
				return fmt.Errorf("%d check(s) failed", code)
			}
			return nil
		},
	}
}

func newHistoryCmd(rf *rootFlags) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent utterances and the most used commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rf.configPath, nil)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			recent, err := store.Recent(ctx, n)
			if err != nil {
				return err
			}
			top, err := store.TopCommands(ctx, 5)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tINPUT\tCOMMAND\tRESULT")
			for _, e := range recent {
				status := e.Response
				if !e.Success {
					status = "FAILED " + status
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ExecutedAt.Local().Format("01-02 15:04:05"), e.UserInput, e.Command, status)
			}
			if len(top) > 0 {
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "COMMAND\tUSES\tLAST USED")
				for _, s := range top {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Command, s.UseCount, s.LastUsed.Local().Format("2006-01-02 15:04"))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newConfigCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Example: `  # Write a default configuration
  sori config init

  # Show the effective configuration
  sori config show`,
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := rf.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rf.configPath, nil)
			if err != nil {
				return err
			}
			return config.Show(cmd.OutOrStdout(), cfg)
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the path to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := rf.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, pathCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sori %s\n", version)
		},
	}
}

func newTestCmd(rf *rootFlags) *cobra.Command {
	var tf testFlags
	cmd := &cobra.Command{
		Use:   "test <wav>",
		Short: "Replay a WAV file headless, driven by commands on stdin",
		Long: `Replays a 16-bit WAV file as the microphone. Commands are read from stdin,
one per line: PRESS, RELEASE, WAIT, WAIT_AUDIO_DONE, SLEEP <ms> and QUIT.`,
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rf.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runTestMode(cmd.Context(), cfg, args[0], tf, cmd.InOrStdin())
		},
	}
	f := cmd.Flags()
	f.String("mode", "", "capture mode: push_to_talk or continuous")
	f.String("style", "", "speaking style applied to typed text")
	f.String("lang", "", "language code for transcription")
	f.String("provider", "", "transcription provider: openai, groq or deepgram")
	f.BoolVar(&tf.realtime, "realtime", false, "pace the WAV in real time")
	f.BoolVar(&tf.paste, "paste", false, "paste into the focused window instead of logging")
	f.StringVar(&tf.fakeText, "fake", "", "skip the provider and transcribe every utterance as this text")
	return cmd
}
