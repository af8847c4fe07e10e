package audio

import (
	"encoding/binary"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/soulframe/internal/logger"
)

// mixReader adapts Mixer.Mix into an io.Reader of signed 16-bit PCM,
// the format oto's output context expects, pulling one mix block at a
// time. This is the real-time callback boundary: each Read allocates a
// fresh mix block (via Mixer.Mix) and a PCM byte slice (encodePCM16),
// and blocks on nothing but the mixer's short mutex.
type mixReader struct {
	mixer      *Mixer
	blockSize  int
	sampleRate int
	pending    []byte
}

func newMixReader(mixer *Mixer, blockSize, sampleRate int) *mixReader {
	return &mixReader{mixer: mixer, blockSize: blockSize, sampleRate: sampleRate}
}

// Read implements io.Reader, satisfying exactly len(p) bytes per call
// by pulling additional mix blocks as needed and buffering any excess.
func (r *mixReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			samples := r.mixer.Mix(r.blockSize, r.sampleRate)
			r.pending = encodePCM16(samples)
		}
		copied := copy(p[n:], r.pending)
		r.pending = r.pending[copied:]
		n += copied
	}
	return n, nil
}

func encodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Device owns the oto output context and a continuous player reading
// from the mixer via mixReader.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
	log    *logger.Logger
}

// OpenDevice opens the system audio output and starts continuous
// playback of mixer's output. deviceNameSubstring is accepted for
// parity with the original device-selection knob but oto, unlike
// sounddevice, does not expose device enumeration — the system default
// output is always used, and a mismatch is only logged.
func OpenDevice(mixer *Mixer, sampleRate, channels, blockSize int, deviceNameSubstring string, log *logger.Logger) (*Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	if deviceNameSubstring != "" && log != nil {
		log.Info("using system default audio output (device-name filtering %q not supported by this backend)",
			deviceNameSubstring)
	}

	reader := newMixReader(mixer, blockSize, sampleRate)
	player := ctx.NewPlayer(reader)
	player.Play()

	if log != nil {
		log.Info("audio output stream opened and started (rate=%d, channels=%d, block=%d)",
			sampleRate, channels, blockSize)
	}

	return &Device{ctx: ctx, player: player, log: log}, nil
}

// Close stops playback and releases the player.
func (d *Device) Close() error {
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	return d.player.Close()
}
