// Package config loads the sori configuration from defaults, an optional
// YAML file, SORI_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sori/segment"
	"sori/stylist"
	"sori/trigger"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Segment    SegmentConfig    `mapstructure:"segment" yaml:"segment"`
	Trigger    trigger.Spec     `mapstructure:"trigger" yaml:"trigger"`
	Transcribe TranscribeConfig `mapstructure:"transcribe" yaml:"transcribe"`
	Style      StyleConfig      `mapstructure:"style" yaml:"style"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch" yaml:"dispatch"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Notify     NotifyConfig     `mapstructure:"notify" yaml:"notify"`
	Beep       bool             `mapstructure:"beep" yaml:"beep"`
}

type AudioConfig struct {
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	FrameMS    int    `mapstructure:"frame_ms" yaml:"frame_ms"`
	Device     string `mapstructure:"device" yaml:"device,omitempty"`
	Gain       int    `mapstructure:"gain" yaml:"gain"`
}

type SegmentConfig struct {
	Mode             string        `mapstructure:"mode" yaml:"mode"`
	SilenceThreshold float64       `mapstructure:"silence_threshold" yaml:"silence_threshold"`
	SilenceDuration  time.Duration `mapstructure:"silence_duration" yaml:"silence_duration"`
	MinUtterance     time.Duration `mapstructure:"min_utterance" yaml:"min_utterance"`
	// NoVoiceWarning flags a push-to-talk recording with no speech after
	// this long; zero disables it.
	NoVoiceWarning time.Duration `mapstructure:"no_voice_warning" yaml:"no_voice_warning"`
	NoVoiceCancel  bool          `mapstructure:"no_voice_cancel" yaml:"no_voice_cancel"`
}

type TranscribeConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"`
	Language string        `mapstructure:"language" yaml:"language"`
	Format   string        `mapstructure:"format" yaml:"format"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type StyleConfig struct {
	Mode      string `mapstructure:"mode" yaml:"mode"`
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model,omitempty"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
}

type DispatchConfig struct {
	OpenApp          string   `mapstructure:"open_app" yaml:"open_app"`
	OpenAppWhitelist []string `mapstructure:"open_app_whitelist" yaml:"open_app_whitelist,omitempty"`
	Extended         bool     `mapstructure:"extended" yaml:"extended"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop" yaml:"desktop"`
}

// Default returns the built-in configuration.
func Default() *Config {
	seg := segment.DefaultConfig()
	return &Config{
		Audio: AudioConfig{SampleRate: 16000, FrameMS: 100, Gain: 1},
		Segment: SegmentConfig{
			Mode:             "push_to_talk",
			SilenceThreshold: seg.SilenceThreshold,
			SilenceDuration:  seg.SilenceDuration,
			MinUtterance:     seg.MinUtterance,
			NoVoiceWarning:   3 * time.Second,
		},
		Trigger: trigger.DefaultSpec(),
		Transcribe: TranscribeConfig{
			Provider: "openai",
			Language: "ko",
			Format:   "wav",
			Timeout:  30 * time.Second,
		},
		Style: StyleConfig{
			Mode:      string(stylist.Normal),
			Provider:  "openai",
			CacheSize: 128,
		},
		Dispatch: DispatchConfig{OpenApp: "loose"},
		History:  HistoryConfig{Enabled: true},
		Beep:     true,
	}
}

// Dir is the per-user configuration directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sori"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "sori"), nil
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// flagKeys binds command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"device":   "audio.device",
	"mode":     "segment.mode",
	"style":    "style.mode",
	"lang":     "transcribe.language",
	"provider": "transcribe.provider",
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.frame_ms", d.Audio.FrameMS)
	v.SetDefault("audio.device", d.Audio.Device)
	v.SetDefault("audio.gain", d.Audio.Gain)

	v.SetDefault("segment.mode", d.Segment.Mode)
	v.SetDefault("segment.silence_threshold", d.Segment.SilenceThreshold)
	v.SetDefault("segment.silence_duration", d.Segment.SilenceDuration)
	v.SetDefault("segment.min_utterance", d.Segment.MinUtterance)
	v.SetDefault("segment.no_voice_warning", d.Segment.NoVoiceWarning)
	v.SetDefault("segment.no_voice_cancel", d.Segment.NoVoiceCancel)

	v.SetDefault("trigger.type", d.Trigger.Type)
	v.SetDefault("trigger.button", d.Trigger.Button)
	v.SetDefault("trigger.alias_ctrl_cmd", false)

	v.SetDefault("transcribe.provider", d.Transcribe.Provider)
	v.SetDefault("transcribe.language", d.Transcribe.Language)
	v.SetDefault("transcribe.format", d.Transcribe.Format)
	v.SetDefault("transcribe.timeout", d.Transcribe.Timeout)

	v.SetDefault("style.mode", d.Style.Mode)
	v.SetDefault("style.provider", d.Style.Provider)
	v.SetDefault("style.model", d.Style.Model)
	v.SetDefault("style.cache_size", d.Style.CacheSize)

	v.SetDefault("dispatch.open_app", d.Dispatch.OpenApp)
	v.SetDefault("dispatch.extended", d.Dispatch.Extended)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("notify.desktop", d.Notify.Desktop)
	v.SetDefault("beep", d.Beep)
}

// Load reads the configuration. An empty path means DefaultPath, which may be
// absent; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SORI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.History.Path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.History.Path = filepath.Join(dir, "history.db")
	}
	return &cfg, nil
}
