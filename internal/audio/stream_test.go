package audio

import (
	"math"
	"testing"
)

func testFrames(n int) [][]float32 {
	frames := make([][]float32, n)
	for i := range frames {
		frames[i] = []float32{0.5, -0.5}
	}
	return frames
}

func TestStream_GetSamplesLoopsWhenConfigured(t *testing.T) {
	s := &Stream{frames: testFrames(4), loop: true}
	out := s.GetSamples(6) // longer than the underlying 4 frames
	if len(out) != 12 {
		t.Fatalf("len(out) = %d, want 12", len(out))
	}
	for i := 0; i < len(out); i += 2 {
		if out[i] != 0.5 || out[i+1] != -0.5 {
			t.Fatalf("frame %d = (%v, %v), want (0.5, -0.5)", i/2, out[i], out[i+1])
		}
	}
	if s.finished {
		t.Fatal("a looping stream should never finish")
	}
}

func TestStream_GetSamplesZeroFillsWhenNotLooping(t *testing.T) {
	s := &Stream{frames: testFrames(2), loop: false}
	out := s.GetSamples(4)
	if out[0] != 0.5 || out[1] != -0.5 || out[2] != 0.5 || out[3] != -0.5 {
		t.Fatalf("first two frames should be real data, got %v", out[:4])
	}
	if out[4] != 0 || out[5] != 0 || out[6] != 0 || out[7] != 0 {
		t.Fatalf("remaining frames should be zero-filled, got %v", out[4:])
	}
	if !s.finished {
		t.Fatal("a non-looping stream that ran out of data should be marked finished")
	}
}

func TestStream_GetSamplesEmptyFrames(t *testing.T) {
	s := &Stream{}
	out := s.GetSamples(4)
	if len(out) != 8 {
		t.Fatalf("len(out) = %d, want 8", len(out))
	}
	for _, v := range out {
		if v != 0 {
			t.Fatal("empty stream should produce silence")
		}
	}
	if !s.finished {
		t.Fatal("empty stream should be finished immediately")
	}
}

func TestStream_SetVolumeCancelsFade(t *testing.T) {
	s := &Stream{frames: testFrames(1)}
	s.SetFade(1.0, 1000)
	s.SetVolume(0.3)
	if s.IsFading() {
		t.Fatal("SetVolume should cancel any in-progress fade")
	}
	if s.CurrentVolume() != 0.3 {
		t.Fatalf("CurrentVolume() = %v, want 0.3", s.CurrentVolume())
	}
}

func TestStream_SetFadeThenUpdateReachesTarget(t *testing.T) {
	s := &Stream{frames: testFrames(1)}
	s.SetVolume(0)
	s.SetFade(1.0, 1000)
	for i := 0; i < 10; i++ {
		s.Update(0.1) // 10 * 0.1s = 1s, matching the 1000ms fade duration
	}
	if s.IsFading() {
		t.Fatal("fade should have completed after elapsed duration")
	}
	if math.Abs(s.CurrentVolume()-1.0) > 1e-9 {
		t.Fatalf("CurrentVolume() = %v, want 1.0", s.CurrentVolume())
	}
}

func TestStream_SetFadeNonPositiveDurationSnaps(t *testing.T) {
	s := &Stream{frames: testFrames(1)}
	s.SetVolume(0)
	s.SetFade(0.8, 0)
	if s.IsFading() {
		t.Fatal("a non-positive duration should snap immediately, not fade")
	}
	if s.CurrentVolume() != 0.8 {
		t.Fatalf("CurrentVolume() = %v, want 0.8", s.CurrentVolume())
	}
}

func TestStream_IsActive(t *testing.T) {
	s := &Stream{frames: testFrames(1)}
	s.SetVolume(0)
	if s.IsActive() {
		t.Fatal("silent, non-fading stream should not be active")
	}
	s.SetFade(1.0, 500)
	if !s.IsActive() {
		t.Fatal("fading toward positive volume should count as active")
	}
	s.finished = true
	if s.IsActive() {
		t.Fatal("a finished stream should never be active regardless of volume/fade state")
	}
}

func TestStream_Reset(t *testing.T) {
	s := &Stream{frames: testFrames(4), loop: false}
	s.GetSamples(4)
	if !s.finished {
		t.Fatal("expected stream to be finished after consuming all frames")
	}
	s.Reset()
	if s.finished {
		t.Fatal("Reset should clear the finished flag for a non-empty stream")
	}
	if s.position != 0 {
		t.Fatalf("position after Reset = %d, want 0", s.position)
	}
}

func TestToStereo_MonoDuplicatesChannel(t *testing.T) {
	d := decodedWav{channels: 1, frames: [][]float32{{0.25}, {-0.25}}}
	out := toStereo(d)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0][0] != 0.25 || out[0][1] != 0.25 {
		t.Fatalf("mono frame should duplicate to both channels, got %v", out[0])
	}
}
