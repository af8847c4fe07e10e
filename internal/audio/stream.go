// Package audio implements the streaming/mixing engine (C7-C9): a
// looping PCM stream with fades and optional bass-boost EQ, a
// thread-safe summing mixer, and a command dispatcher that maps
// domain.Command values onto mixer operations.
package audio

import (
	"os"

	"github.com/hammamikhairi/soulframe/internal/logger"
)

// Stream is a single loopable stereo audio source with volume fading
// and an optional bass-boost filter applied once at load time.
type Stream struct {
	name   string
	frames [][]float32 // always stereo after load
	loop   bool

	position int
	finished bool

	volume     float64
	fadeTarget float64
	fadeRate   float64 // volume units per second
	fading     bool
}

// LoadStreamOptions configures Stream loading.
type LoadStreamOptions struct {
	Loop              bool
	BassBoost         bool
	BassCenterHz      float64
	BassQ             float64
	BassGainDb        float64
	OutputSampleRate  int
}

// LoadStream reads and decodes a WAV file into a ready-to-play Stream.
// Mono files are duplicated to stereo; files with more than two
// channels keep only the first two. A sample-rate mismatch against the
// output device is logged but never fatal — resampling is out of
// scope, so playback will be pitch-shifted.
func LoadStream(path string, opts LoadStreamOptions, log *logger.Logger) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeWav(data)
	if err != nil {
		return nil, err
	}

	frames := toStereo(decoded)

	if opts.OutputSampleRate > 0 && decoded.sampleRate != opts.OutputSampleRate && log != nil {
		log.Warn("sample-rate mismatch: %s is %d Hz, output is %d Hz — playback will be pitch-shifted",
			path, decoded.sampleRate, opts.OutputSampleRate)
	}

	if opts.BassBoost && len(frames) > 0 {
		applyBassBoost(frames, 2, opts.BassCenterHz, opts.BassQ, opts.BassGainDb, decoded.sampleRate)
	}

	s := &Stream{
		name:     path,
		frames:   frames,
		loop:     opts.Loop,
		finished: len(frames) == 0,
	}
	if len(frames) == 0 && log != nil {
		log.Warn("audio file has zero frames: %s", path)
	}
	return s, nil
}

func toStereo(d decodedWav) [][]float32 {
	out := make([][]float32, len(d.frames))
	switch d.channels {
	case 1:
		for i, f := range d.frames {
			out[i] = []float32{f[0], f[0]}
		}
	case 2:
		for i, f := range d.frames {
			out[i] = []float32{f[0], f[1]}
		}
	default:
		for i, f := range d.frames {
			out[i] = []float32{f[0], f[1]}
		}
	}
	return out
}

// GetSamples returns the next n stereo frames starting from the
// current play cursor as an interleaved [L0,R0,L1,R1,...] slice. On
// reaching the end it either wraps (loop) or zero-fills the remainder
// and marks the stream finished.
func (s *Stream) GetSamples(n int) []float32 {
	out := make([]float32, n*2)

	if len(s.frames) == 0 {
		s.finished = true
		return out
	}

	remaining := n
	writePos := 0
	numFrames := len(s.frames)

	for remaining > 0 {
		available := numFrames - s.position
		if available <= 0 {
			if s.loop {
				s.position = 0
				available = numFrames
			} else {
				s.finished = true
				break
			}
		}

		chunk := remaining
		if available < chunk {
			chunk = available
		}
		for i := 0; i < chunk; i++ {
			frame := s.frames[s.position+i]
			out[(writePos+i)*2] = frame[0]
			out[(writePos+i)*2+1] = frame[1]
		}
		s.position += chunk
		writePos += chunk
		remaining -= chunk

		if s.position >= numFrames && s.loop {
			s.position = 0
		}
	}

	return out
}

// SetVolume immediately snaps the playback volume to v, clamped to
// [0,1], and cancels any in-progress fade.
func (s *Stream) SetVolume(v float64) {
	s.volume = clamped01(v)
	s.fadeTarget = s.volume
	s.fading = false
}

// SetFade begins (or, for a non-positive duration, snaps) a linear
// transition to targetVolume over durationMs milliseconds.
func (s *Stream) SetFade(targetVolume float64, durationMs float64) {
	targetVolume = clamped01(targetVolume)
	if durationMs <= 0 {
		s.SetVolume(targetVolume)
		return
	}
	if abs(s.volume-targetVolume) < 1e-6 {
		s.volume = targetVolume
		s.fadeTarget = targetVolume
		s.fading = false
		return
	}
	s.fadeTarget = targetVolume
	durationS := durationMs / 1000.0
	s.fadeRate = (targetVolume - s.volume) / durationS
	s.fading = true
}

// Update advances the fade animation by dt seconds. Safe to call every
// mix block; a no-op when no fade is in progress.
func (s *Stream) Update(dt float64) {
	if !s.fading {
		return
	}
	s.volume += s.fadeRate * dt
	if s.fadeRate > 0 && s.volume >= s.fadeTarget-1e-9 {
		s.volume = s.fadeTarget
		s.fading = false
	} else if s.fadeRate < 0 && s.volume <= s.fadeTarget+1e-9 {
		s.volume = s.fadeTarget
		s.fading = false
	}
	s.volume = clamped01(s.volume)
}

// CurrentVolume returns the current effective volume.
func (s *Stream) CurrentVolume() float64 { return s.volume }

// IsFading reports whether a fade is currently in progress.
func (s *Stream) IsFading() bool { return s.fading }

// Reset restarts playback from the beginning of the decoded data.
func (s *Stream) Reset() {
	s.position = 0
	s.finished = len(s.frames) == 0
}

// IsActive reports whether the stream is audible or fading toward
// audible: false once finished (non-looping, ran out of data); true if
// volume > 0, or fading with a positive target.
func (s *Stream) IsActive() bool {
	if s.finished {
		return false
	}
	if s.volume > 0 {
		return true
	}
	if s.fading && s.fadeTarget > 0 {
		return true
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
