//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	rendered map[Cue][]int16
	pending  = make(chan Cue, 4)
	initOnce sync.Once
)

// Init renders the cues and starts the player goroutine. Cues are played one
// after another on a single PulseAudio connection.
func Init() {
	initOnce.Do(func() {
		rendered = make(map[Cue][]int16, len(tones))
		for c, t := range tones {
			rendered[c] = t.samples(sampleRate)
		}
		go player()
	})
}

// play drops the cue when several are already waiting.
func play(c Cue) {
	Init()
	select {
	case pending <- c:
	default:
	}
}

func player() {
	var client *pulse.Client
	for c := range pending {
		if client == nil {
			var err error
			if client, err = pulse.NewClient(pulse.ClientApplicationName("sori")); err != nil {
				continue
			}
		}
		// a failed stream usually means the server went away; reconnect next time
		if err := playOn(client, rendered[c]); err != nil {
			client.Close()
			client = nil
		}
	}
}

func playOn(client *pulse.Client, samples []int16) error {
	pos := 0
	src := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := client.NewPlayback(src,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("sori cue"),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return err
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	stream.Stop()
	return stream.Error()
}
