package log

import "time"

// Metrics is one upload's timing and size breakdown.
type Metrics struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	CompressionPct   float64
	EncodeTimeMs     float64
	DNSTimeMs        float64
	TLSTimeMs        float64
	TTFBMs           float64
	TotalTimeMs      float64
	MemoryAllocMB    float64
	MemoryPeakMB     float64
}

func TranscriptionMetrics(m Metrics, mode, format, provider string, connReused bool, tlsProto string) {
	conn := "new"
	if connReused {
		conn = "reused"
	}
	ev := logger().Info().
		Str("mode", mode).
		Str("format", format).
		Str("provider", provider).
		Str("conn", conn)
	if tlsProto != "" {
		ev = ev.Str("tls_proto", tlsProto)
	}
	ev.Float64("audio_s", m.AudioLengthS).
		Float64("raw_kb", m.RawSizeKB).
		Float64("compressed_kb", m.CompressedSizeKB).
		Float64("compression_pct", m.CompressionPct).
		Float64("encode_ms", m.EncodeTimeMs).
		Float64("dns_ms", m.DNSTimeMs).
		Float64("tls_ms", m.TLSTimeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalTimeMs).
		Float64("mem_mb", m.MemoryAllocMB).
		Float64("peak_mb", m.MemoryPeakMB).
		Msg("transcription")
}

// Confidence records the provider's confidence when it reports one.
func Confidence(c float64) {
	if c > 0 {
		logger().Info().Float64("confidence", c).Msg("api_confidence")
	}
}

// Utterance records a segment handed to the worker.
func Utterance(id string, duration time.Duration, mode string) {
	logger().Info().
		Str("id", id).
		Str("mode", mode).
		Float64("audio_s", duration.Seconds()).
		Msg("utterance")
}

// Dispatch records what was done with recognized text. Failures are logged
// at warn level.
func Dispatch(id, kind, action string, transformed bool, err error) {
	ev := logger().Info()
	if err != nil {
		ev = logger().Warn().Err(err)
	}
	ev.Str("id", id).
		Str("kind", kind).
		Str("action", action).
		Bool("transformed", transformed).
		Msg("dispatch")
}

func SessionStart(provider, mode, style string) {
	logger().Info().
		Str("provider", provider).
		Str("mode", mode).
		Str("style", style).
		Msg("session_start")
}

func SessionEnd(count int) {
	logger().Info().Int("count", count).Msg("session_end")
}
