package audio

import (
	"math"
	"os"
	"testing"

	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/logger"
)

func testMixerLogger() *logger.Logger {
	return logger.New(logger.LevelOff, os.Stderr)
}

func constStream() *Stream {
	return &Stream{frames: testFrames(4096), loop: true, volume: 1.0}
}

func TestMixer_MixClampsToUnitRange(t *testing.T) {
	m := NewMixer(testMixerLogger())
	loud := &Stream{frames: [][]float32{{1, -1}, {1, -1}, {1, -1}, {1, -1}}, loop: true, volume: 1.0}
	m.AddStream("a", loud)
	m.AddStream("b", loud)

	out := m.Mix(4, 44100)
	for _, v := range out {
		if v > 1.0 || v < -1.0 {
			t.Fatalf("mixed sample %v out of [-1,1] range", v)
		}
	}
}

func TestMixer_RemoveInactiveIsIdempotent(t *testing.T) {
	m := NewMixer(testMixerLogger())
	s := &Stream{frames: testFrames(4), loop: false}
	s.SetVolume(0)
	m.AddStream("s", s)

	n1 := m.RemoveInactive()
	if n1 != 1 {
		t.Fatalf("first RemoveInactive() = %d, want 1", n1)
	}
	n2 := m.RemoveInactive()
	if n2 != 0 {
		t.Fatalf("second RemoveInactive() = %d, want 0 (idempotent)", n2)
	}
	if m.StreamCount() != 0 {
		t.Fatalf("StreamCount() = %d, want 0", m.StreamCount())
	}
}

func TestMixer_AddStreamRetiresPriorActiveStream(t *testing.T) {
	m := NewMixer(testMixerLogger())
	first := constStream()
	m.AddStream("ambient", first)

	second := constStream()
	m.AddStream("ambient", second)

	if m.StreamCount() != 2 {
		t.Fatalf("StreamCount() = %d, want 2 (new stream + retiring old one)", m.StreamCount())
	}
	current, err := m.GetStream("ambient")
	if err != nil || current != second {
		t.Fatal("GetStream(\"ambient\") should return the newly added stream")
	}
}

func TestMixer_SetFadeOnUnknownStreamReturnsError(t *testing.T) {
	m := NewMixer(testMixerLogger())
	if err := m.SetStreamFade("missing", 1.0, 500); err != domain.ErrStreamNotFound {
		t.Fatalf("SetStreamFade on unknown name = %v, want ErrStreamNotFound", err)
	}
	if err := m.SetStreamVolume("missing", 1.0); err != domain.ErrStreamNotFound {
		t.Fatalf("SetStreamVolume on unknown name = %v, want ErrStreamNotFound", err)
	}
}

func TestMixer_StopAllClearsEverything(t *testing.T) {
	m := NewMixer(testMixerLogger())
	m.AddStream("a", constStream())
	m.AddStream("b", constStream())
	m.StopAll()
	if m.StreamCount() != 0 {
		t.Fatalf("StreamCount() after StopAll = %d, want 0", m.StreamCount())
	}
}

// Mixer fade completion over ten 100ms blocks at
// 44100 Hz totals ~1s, matching a 1000ms fade.
func TestScenario_MixerFadeCompletion(t *testing.T) {
	m := NewMixer(testMixerLogger())
	s := constStream()
	s.SetVolume(0)
	m.AddStream("s", s)
	if err := m.SetStreamFade("s", 1.0, 1000); err != nil {
		t.Fatal(err)
	}

	const blockFrames = 44100 / 10
	var prevMagnitude float64
	for i := 0; i < 10; i++ {
		out := m.Mix(blockFrames, 44100)
		var magnitude float64
		for _, v := range out {
			magnitude += math.Abs(float64(v))
		}
		if i > 0 && magnitude < prevMagnitude {
			t.Fatalf("mix %d: magnitude decreased (%v -> %v) during a fade-in", i, prevMagnitude, magnitude)
		}
		prevMagnitude = magnitude
	}

	got, err := m.GetStream("s")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.CurrentVolume()-1.0) > 1e-6 {
		t.Fatalf("CurrentVolume() after 1s of fade = %v, want 1.0", got.CurrentVolume())
	}
	if got.IsFading() {
		t.Fatal("fading should be false once the target volume is reached")
	}
}
