package monitor

import (
	"testing"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

func TestModel_ApplyCrossfadeImage(t *testing.T) {
	m := newModel()
	m.apply(domain.CrossfadeImage("/gallery/001/image.jpg", 1500))
	if m.image != "/gallery/001/image.jpg" {
		t.Fatalf("image = %q, want the crossfaded path", m.image)
	}
}

func TestModel_ApplySetEffectThenIntensity(t *testing.T) {
	m := newModel()
	m.apply(domain.SetEffect("breathing", 0.6, 300))
	if got := m.effects["breathing"].intensity; got != 0.6 {
		t.Fatalf("breathing intensity = %v, want 0.6", got)
	}
	m.apply(domain.SetEffectIntensity("breathing", 1.0))
	if got := m.effects["breathing"].intensity; got != 1.0 {
		t.Fatalf("breathing intensity after SET_EFFECT_INTENSITY = %v, want 1.0", got)
	}
}

func TestModel_ApplyVignetteAndParallax(t *testing.T) {
	m := newModel()
	m.apply(domain.SetVignette(0.8))
	if m.vignette != 0.8 {
		t.Fatalf("vignette = %v, want 0.8", m.vignette)
	}
	m.apply(domain.SetParallax(0.3, 0.7))
	if m.parallaxX != 0.3 || m.parallaxY != 0.7 {
		t.Fatalf("parallax = (%v, %v), want (0.3, 0.7)", m.parallaxX, m.parallaxY)
	}
}

func TestModel_ApplyAmbientAndHeartbeatStreams(t *testing.T) {
	m := newModel()
	m.apply(domain.PlayAmbient("/a/ambient.wav", 500))
	if _, ok := m.streams["ambient"]; !ok {
		t.Fatal("PLAY_AMBIENT should register an \"ambient\" stream")
	}
	m.apply(domain.PlayHeartbeat("r1", "/a/heartbeat.wav", true, 500))
	if _, ok := m.streams["heartbeat_r1"]; !ok {
		t.Fatal("PLAY_HEARTBEAT should register a \"heartbeat_r1\" stream")
	}
	m.apply(domain.SetVolume("heartbeat_r1", 0.42))
	if m.streams["heartbeat_r1"] != 0.42 {
		t.Fatalf("heartbeat_r1 volume = %v, want 0.42", m.streams["heartbeat_r1"])
	}
}

func TestModel_ApplyStopAllClearsStreams(t *testing.T) {
	m := newModel()
	m.apply(domain.PlayAmbient("/a/ambient.wav", 500))
	m.apply(domain.StopAll())
	if len(m.streams) != 0 {
		t.Fatalf("len(streams) after STOP_ALL = %d, want 0", len(m.streams))
	}
}

func TestModel_LogCapsAt200Lines(t *testing.T) {
	m := newModel()
	for i := 0; i < 250; i++ {
		m.logf("line %d", i)
	}
	if len(m.log) != 200 {
		t.Fatalf("len(log) = %d, want 200 (capped)", len(m.log))
	}
	if m.log[len(m.log)-1] != "line 249" {
		t.Fatalf("last log line = %q, want \"line 249\"", m.log[len(m.log)-1])
	}
}

func TestStrValFloatVal(t *testing.T) {
	p := map[string]any{"name": "ambient", "volume": 0.5, "count": 3}
	if strVal(p, "name") != "ambient" {
		t.Fatalf("strVal = %q, want ambient", strVal(p, "name"))
	}
	if strVal(p, "missing") != "" {
		t.Fatal("strVal on a missing key should return empty string")
	}
	if floatVal(p, "volume") != 0.5 {
		t.Fatalf("floatVal(volume) = %v, want 0.5", floatVal(p, "volume"))
	}
	if floatVal(p, "count") != 3 {
		t.Fatalf("floatVal(count) = %v, want 3 (int coerced to float64)", floatVal(p, "count"))
	}
	if floatVal(p, "missing") != 0 {
		t.Fatal("floatVal on a missing key should return 0")
	}
}
