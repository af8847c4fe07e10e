package interaction

import (
	"testing"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

func alwaysHit(_ domain.Point, _ domain.Region) bool { return true }
func neverHit(_ domain.Point, _ domain.Region) bool  { return false }

func sampleAt(distanceCm float32, confidence float32) domain.FaceSample {
	return domain.FaceSample{
		NumFaces:       1,
		FaceDistance:   distanceCm,
		GazeX:          0.5,
		GazeY:          0.5,
		GazeConfidence: confidence,
	}
}

func regionWithDwell(id string, dwellMs int, minConfidence float64) domain.Region {
	return domain.Region{
		ID:    id,
		Shape: domain.RegionShape{Type: "polygon", PointsNormalized: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
		GazeTrigger: domain.GazeTrigger{
			DwellTimeMs:   dwellMs,
			MinConfidence: minConfidence,
		},
	}
}

func TestModel_DwellAccumulatesOverTicks(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{regionWithDwell("r1", 1000, 0.5)}

	res := m.Update(sampleAt(100, 0.9), regions, 0.4, alwaysHit)
	if contains(res.DwellRegions, "r1") {
		t.Fatal("should not dwell after only 0.4s against a 1000ms threshold")
	}
	if !contains(res.ActiveRegions, "r1") {
		t.Fatal("region should be active immediately on hit")
	}

	res = m.Update(sampleAt(100, 0.9), regions, 0.7, alwaysHit)
	if !contains(res.DwellRegions, "r1") {
		t.Fatal("should dwell once accumulated time crosses threshold")
	}
}

func TestModel_LowConfidenceResetsTimer(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{regionWithDwell("r1", 1000, 0.5)}

	m.Update(sampleAt(100, 0.9), regions, 0.8, alwaysHit)
	res := m.Update(sampleAt(100, 0.2), regions, 0.8, alwaysHit)
	if contains(res.DwellRegions, "r1") {
		t.Fatal("dwell timer should reset below minimum confidence")
	}

	res = m.Update(sampleAt(100, 0.9), regions, 0.8, alwaysHit)
	if contains(res.DwellRegions, "r1") {
		t.Fatal("timer should have been reset, so 0.8s is not enough to dwell again")
	}
}

func TestModel_NoFaceClearsActivity(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{regionWithDwell("r1", 500, 0.5)}

	m.Update(sampleAt(100, 0.9), regions, 1.0, alwaysHit)
	res := m.Update(domain.FaceSample{NumFaces: 0}, regions, 1.0, alwaysHit)
	if len(res.ActiveRegions) != 0 || len(res.DwellRegions) != 0 {
		t.Fatal("no detected face should clear active/dwell regions")
	}
}

func TestModel_MissTestClearsDwellTimer(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{regionWithDwell("r1", 500, 0.5)}

	m.Update(sampleAt(100, 0.9), regions, 0.4, alwaysHit)
	m.Update(sampleAt(100, 0.9), regions, 0.4, neverHit)
	res := m.Update(sampleAt(100, 0.9), regions, 0.4, alwaysHit)
	if contains(res.DwellRegions, "r1") {
		t.Fatal("timer should have been dropped while the region was not hit")
	}
}

func TestModel_DistanceFactorBoundaries(t *testing.T) {
	m := NewModel(50, 300)

	if got := m.computeDistanceFactor(sampleAt(10, 0.9)); got != 1 {
		t.Fatalf("distance under near threshold = %v, want 1", got)
	}
	if got := m.computeDistanceFactor(sampleAt(500, 0.9)); got != 0 {
		t.Fatalf("distance over far threshold = %v, want 0", got)
	}
	mid := m.computeDistanceFactor(sampleAt(175, 0.9)) // midpoint of [50,300]
	if mid < 0.49 || mid > 0.51 {
		t.Fatalf("distance factor at midpoint = %v, want ~0.5", mid)
	}
	if got := m.computeDistanceFactor(domain.FaceSample{NumFaces: 0}); got != 0 {
		t.Fatalf("no face detected should give distance factor 0, got %v", got)
	}
}

func TestModel_DistanceFactorStepWhenNearGreaterEqualFar(t *testing.T) {
	m := NewModel(100, 100)
	if got := m.computeDistanceFactor(sampleAt(99, 0.9)); got != 1 {
		t.Fatalf("at/under equal thresholds, distance factor = %v, want 1", got)
	}
	if got := m.computeDistanceFactor(sampleAt(101, 0.9)); got != 0 {
		t.Fatalf("beyond equal thresholds, distance factor = %v, want 0", got)
	}
}

func TestModel_Reset(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{regionWithDwell("r1", 500, 0.5)}
	m.Update(sampleAt(100, 0.9), regions, 0.4, alwaysHit)
	m.Reset()
	res := m.Update(sampleAt(100, 0.9), regions, 0.4, alwaysHit)
	if contains(res.DwellRegions, "r1") {
		t.Fatal("dwell timers should be cleared after Reset")
	}
}

func TestModel_MinActiveConfidenceTracksDwelledRegions(t *testing.T) {
	m := NewModel(50, 300)
	regions := []domain.Region{
		regionWithDwell("low", 100, 0.3),
		regionWithDwell("high", 100, 0.8),
	}
	res := m.Update(sampleAt(100, 0.9), regions, 0.2, alwaysHit)
	if len(res.DwellRegions) != 2 {
		t.Fatalf("expected both regions to dwell, got %v", res.DwellRegions)
	}
	if res.MinActiveConfidence != 0.3 {
		t.Fatalf("MinActiveConfidence = %v, want 0.3 (lowest among dwelled regions)", res.MinActiveConfidence)
	}
}
