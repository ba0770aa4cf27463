package transcriber

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"sori/audio"
	"sori/encoder"
)

// silenceFloor is the loudest 100 ms window RMS below which audio is treated
// as silent and never uploaded.
const silenceFloor = 0.005

func (r *Result) captureMemStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocMB = float64(m.Alloc) / 1024 / 1024
	r.MemoryPeakMB = float64(m.TotalAlloc) / 1024 / 1024
}

// Silent reports whether no window of samples rises above the floor.
func Silent(samples []float32, sampleRate int) bool {
	win := max(sampleRate/10, 1)
	for i := 0; i < len(samples); i += win {
		if audio.RMS(samples[i:min(i+win, len(samples))]) >= silenceFloor {
			return false
		}
	}
	return true
}

// upload encodes samples, hands them to post and folds the network metrics
// into a Result.
func upload(ctx context.Context, format string, samples []float32, sampleRate int, lang string, post poster) (Result, error) {
	if Silent(samples, sampleRate) {
		r := Result{NoSpeech: true}
		r.captureMemStats()
		return r, nil
	}

	enc, err := encoder.New(format, sampleRate)
	if err != nil {
		return Result{}, err
	}
	if err := encoder.EncodeAll(enc, audio.ToInt16(samples)); err != nil {
		return Result{}, fmt.Errorf("encoding %s: %w", enc.Ext(), err)
	}

	resp, err := post(ctx, enc.Bytes(), enc.Ext(), enc.ContentType(), lang)
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimSpace(resp.Text)
	rawSize := enc.TotalFrames() * 2
	encodedSize := uint64(len(enc.Bytes()))
	compressionPct := (1.0 - float64(encodedSize)/float64(rawSize)) * 100
	audioDuration := float64(enc.TotalFrames()) / float64(sampleRate)
	net := resp.Metrics
	if net == nil {
		net = &NetworkMetrics{}
	}

	r := Result{
		Text:      text,
		NoSpeech:  text == "",
		RateLimit: resp.RateLimit,
		Segments:  resp.Segments,
		Stats: &Stats{
			AudioLengthS:     audioDuration,
			RawSizeKB:        float64(rawSize) / 1024,
			CompressedSizeKB: float64(encodedSize) / 1024,
			CompressionPct:   compressionPct,
			EncodeTimeMs:     float64(enc.EncodeTime().Milliseconds()),
			DNSTimeMs:        float64(net.DNS.Milliseconds()),
			TLSTimeMs:        float64(net.TLS.Milliseconds()),
			TTFBMs:           float64(net.TTFB.Milliseconds()),
			TotalTimeMs:      float64(net.Sum().Milliseconds()),
			ConnReused:       net.ConnReused,
			TLSProtocol:      net.TLSProtocol,
			Confidence:       resp.Confidence,
		},
		Metrics: formatMetrics(enc, rawSize, encodedSize, compressionPct, audioDuration, net, resp),
	}
	r.captureMemStats()
	return r, nil
}

func formatMetrics(enc encoder.Encoder, rawSize, encodedSize uint64, compressionPct, audioDuration float64, metrics *NetworkMetrics, resp *response) []string {
	reusedStatus := ""
	if metrics.ConnReused {
		reusedStatus = " (reused)"
	}

	lines := []string{
		fmt.Sprintf("audio:      %.1fs | %.1f KB → %.1f KB (%.0f%% smaller)",
			audioDuration, float64(rawSize)/1024, float64(encodedSize)/1024, compressionPct),
		fmt.Sprintf("format:     %s", enc.Ext()),
		fmt.Sprintf("encode:     %dms", enc.EncodeTime().Milliseconds()),
		fmt.Sprintf("conn_wait:  %dms%s", metrics.ConnWait.Milliseconds(), reusedStatus),
		fmt.Sprintf("dns:        %dms", metrics.DNS.Milliseconds()),
		fmt.Sprintf("tcp:        %dms", metrics.TCP.Milliseconds()),
		fmt.Sprintf("tls:        %dms", metrics.TLS.Milliseconds()),
		fmt.Sprintf("req_head:   %dms", metrics.ReqHeaders.Milliseconds()),
		fmt.Sprintf("req_body:   %dms", metrics.ReqBody.Milliseconds()),
		fmt.Sprintf("ttfb:       %dms", metrics.TTFB.Milliseconds()),
		fmt.Sprintf("download:   %dms", metrics.Download.Milliseconds()),
		fmt.Sprintf("total:      %dms", metrics.Sum().Milliseconds()),
	}
	if resp.Duration > 0 {
		lines = append(lines, fmt.Sprintf("api_dur:    %.2fs", resp.Duration))
	}
	if resp.Confidence > 0 {
		lines = append(lines, fmt.Sprintf("confidence: %.4f", resp.Confidence))
	}
	return lines
}
