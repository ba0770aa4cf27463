package config

import (
	"fmt"
	"time"

	"sori/dispatch"
	"sori/segment"
	"sori/stylist"
	"sori/trigger"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks every value that would otherwise fail after listeners have
// started.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		return invalid("audio.sample_rate %d out of range [8000, 48000]", c.Audio.SampleRate)
	}
	if c.Audio.FrameMS < 10 || c.Audio.FrameMS > 1000 {
		return invalid("audio.frame_ms %d out of range [10, 1000]", c.Audio.FrameMS)
	}
	if c.Audio.Gain < 1 {
		return invalid("audio.gain must be at least 1")
	}

	if _, err := segment.ParseMode(c.Segment.Mode); err != nil {
		return invalid("segment.mode: %v", err)
	}
	if c.Segment.SilenceThreshold <= 0 || c.Segment.SilenceThreshold >= 1 {
		return invalid("segment.silence_threshold %g out of range (0, 1)", c.Segment.SilenceThreshold)
	}
	if c.Segment.SilenceDuration <= 0 {
		return invalid("segment.silence_duration must be positive")
	}
	if c.Segment.MinUtterance < 0 {
		return invalid("segment.min_utterance must not be negative")
	}
	if c.Segment.NoVoiceWarning < 0 {
		return invalid("segment.no_voice_warning must not be negative")
	}

	if _, err := trigger.Parse(c.Trigger); err != nil {
		return invalid("trigger: %v", err)
	}

	switch c.Transcribe.Provider {
	case "openai", "groq", "deepgram":
	default:
		return invalid("transcribe.provider %q (want openai, groq or deepgram)", c.Transcribe.Provider)
	}
	switch c.Transcribe.Format {
	case "wav", "flac":
	default:
		return invalid("transcribe.format %q (want wav or flac)", c.Transcribe.Format)
	}
	if c.Transcribe.Timeout < time.Second {
		return invalid("transcribe.timeout must be at least 1s")
	}

	if _, err := stylist.ParseStyle(c.Style.Mode); err != nil {
		return invalid("style.mode: %v", err)
	}
	switch c.Style.Provider {
	case "openai", "anthropic", "none", "":
	default:
		return invalid("style.provider %q (want openai, anthropic or none)", c.Style.Provider)
	}
	if c.Style.CacheSize < 0 {
		return invalid("style.cache_size must not be negative")
	}

	mode, err := dispatch.ParseOpenAppMode(c.Dispatch.OpenApp)
	if err != nil {
		return invalid("dispatch.open_app: %v", err)
	}
	if mode == dispatch.OpenAppWhitelist && len(c.Dispatch.OpenAppWhitelist) == 0 {
		return invalid("dispatch.open_app is whitelist but dispatch.open_app_whitelist is empty")
	}
	return nil
}

// SegmentMode returns the parsed segmentation mode. Call Validate first.
func (c *Config) SegmentMode() segment.Mode {
	m, _ := segment.ParseMode(c.Segment.Mode)
	return m
}

func (c *Config) SegmentConfig() segment.Config {
	return segment.Config{
		SilenceThreshold: c.Segment.SilenceThreshold,
		SilenceDuration:  c.Segment.SilenceDuration,
		MinUtterance:     c.Segment.MinUtterance,
	}
}

func (c *Config) FramePeriod() time.Duration {
	return time.Duration(c.Audio.FrameMS) * time.Millisecond
}

// OpenAppMode returns the parsed dispatch.open_app. Call Validate first.
func (c *Config) OpenAppMode() dispatch.OpenAppMode {
	m, _ := dispatch.ParseOpenAppMode(c.Dispatch.OpenApp)
	return m
}

// StyleMode returns the parsed style.mode. Call Validate first.
func (c *Config) StyleMode() stylist.Style {
	s, _ := stylist.ParseStyle(c.Style.Mode)
	return s
}
