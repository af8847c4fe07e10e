package audio

import (
	"fmt"
	"sync"

	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/logger"
)

// retireFadeMs is the quick fade-out duration given to a stream bumped
// into a retiring slot by AddStream, so a same-named replacement never
// clicks.
const retireFadeMs = 200.0

// Mixer sums named streams into a single stereo output buffer.
// All mutating operations take a short-held mutex; Mix additionally
// advances every stream's fade so fade state only ever mutates on the
// callback thread.
type Mixer struct {
	mu           sync.Mutex
	streams      map[string]*Stream
	masterVolume float64
	retireSeq    uint64
	log          *logger.Logger
}

// NewMixer builds an empty mixer at full master volume.
func NewMixer(log *logger.Logger) *Mixer {
	return &Mixer{streams: make(map[string]*Stream), masterVolume: 1.0, log: log}
}

// AddStream registers stream under name. If a stream is already
// registered under name and still active, it is re-keyed to a
// temporary retiring slot and given a quick fade-out instead of being
// dropped outright, so a replacement arriving mid-fade never clicks.
func (m *Mixer) AddStream(name string, stream *Stream) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.streams[name]; ok && old.IsActive() {
		m.retireSeq++
		retireName := fmt.Sprintf("_retiring_%s_%d", name, m.retireSeq)
		old.SetFade(0, retireFadeMs)
		m.streams[retireName] = old
	}
	m.streams[name] = stream
	if m.log != nil {
		m.log.Debug("added stream %q", name)
	}
}

// RemoveStream removes and discards the stream under name, if any.
func (m *Mixer) RemoveStream(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.streams[name]; ok {
		delete(m.streams, name)
		if m.log != nil {
			m.log.Debug("removed stream %q", name)
		}
	}
}

// GetStream returns the stream registered under name, or
// (nil, domain.ErrStreamNotFound).
func (m *Mixer) GetStream(name string) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[name]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	return s, nil
}

// SetStreamFade starts a fade on the named stream. Returns
// domain.ErrStreamNotFound if no such stream is registered.
func (m *Mixer) SetStreamFade(name string, targetVolume, durationMs float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[name]
	if !ok {
		return domain.ErrStreamNotFound
	}
	s.SetFade(targetVolume, durationMs)
	return nil
}

// SetStreamVolume snaps the named stream's volume. Returns
// domain.ErrStreamNotFound if no such stream is registered.
func (m *Mixer) SetStreamVolume(name string, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[name]
	if !ok {
		return domain.ErrStreamNotFound
	}
	s.SetVolume(volume)
	return nil
}

// SetMasterVolume sets the master output gain, clamped to [0,1].
func (m *Mixer) SetMasterVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamped01(v)
}

// FadeAll starts a fade on every currently registered stream.
func (m *Mixer) FadeAll(targetVolume, durationMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.streams {
		s.SetFade(targetVolume, durationMs)
	}
}

// StopAll immediately discards every stream.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = make(map[string]*Stream)
	if m.log != nil {
		m.log.Debug("all streams stopped and removed")
	}
}

// StreamCount returns the number of currently registered streams
// (including retiring slots).
func (m *Mixer) StreamCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// RemoveInactive drops every stream that has finished fading out
// (IsActive false and volume already at zero). Meant to be polled
// periodically by the command thread, never by the callback.
func (m *Mixer) RemoveInactive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var toRemove []string
	for name, s := range m.streams {
		if !s.IsActive() && s.CurrentVolume() <= 0 {
			toRemove = append(toRemove, name)
		}
	}
	for _, name := range toRemove {
		delete(m.streams, name)
	}
	if len(toRemove) > 0 && m.log != nil {
		m.log.Debug("removed %d inactive stream(s)", len(toRemove))
	}
	return len(toRemove)
}

// Mix produces an interleaved stereo float32 buffer of numFrames mixed
// samples at sampleRate, advancing every stream's fade by
// dt = numFrames/sampleRate in the same critical section so fade state
// mutates only here, on the callback thread. Output is scaled by the
// master volume and clamped to [-1, 1]. Each call allocates the returned
// buffer plus one sample buffer per audible stream (Stream.GetSamples),
// and blocks on nothing but the mixer's own short mutex.
func (m *Mixer) Mix(numFrames, sampleRate int) []float32 {
	buf := make([]float32, numFrames*2)
	dt := float64(numFrames) / float64(sampleRate)

	m.mu.Lock()
	for _, s := range m.streams {
		s.Update(dt)
		if !s.IsActive() {
			continue
		}
		vol := s.CurrentVolume()
		if vol <= 0 {
			continue
		}
		samples := s.GetSamples(numFrames)
		for i := range buf {
			buf[i] += samples[i] * float32(vol)
		}
	}
	master := float32(m.masterVolume)
	m.mu.Unlock()

	for i := range buf {
		buf[i] = encodeSampleClamp(buf[i] * master)
	}
	return buf
}
