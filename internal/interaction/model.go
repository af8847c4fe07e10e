// Package interaction hit-tests the smoothed gaze point against image
// regions, tracks per-region dwell time, and derives a viewer-distance
// intensity factor.
package interaction

import "github.com/hammamikhairi/soulframe/internal/domain"

// Result is the output of a single Model.Update call.
type Result struct {
	ActiveRegions       []string
	DwellRegions        []string
	DistanceFactor      float64
	MinActiveConfidence float64
}

// Model tracks dwell timers across ticks and computes distance-based
// intensity. A Model is not safe for concurrent use; the brain
// coordinator owns it exclusively.
type Model struct {
	dwellTimers map[string]float64
	prevActive  map[string]bool
	nearCm      float64
	farCm       float64
}

// NewModel builds an interaction model with the given default distance
// thresholds (overridden per image via SetDistanceThresholds).
func NewModel(defaultNearCm, defaultFarCm float64) *Model {
	return &Model{
		dwellTimers: make(map[string]float64),
		prevActive:  make(map[string]bool),
		nearCm:      defaultNearCm,
		farCm:       defaultFarCm,
	}
}

// SetDistanceThresholds overrides the near/far distance thresholds used
// by the distance factor, typically from the current image's metadata.
func (m *Model) SetDistanceThresholds(nearCm, farCm float64) {
	m.nearCm = nearCm
	m.farCm = farCm
}

// Update advances dwell tracking by dt seconds against the current gaze
// sample and region set.
func (m *Model) Update(sample domain.FaceSample, regions []domain.Region, dt float64, hitTest func(domain.Point, domain.Region) bool) Result {
	var activeIDs, dwellIDs []string

	gaze := domain.Point{X: float64(sample.GazeX), Y: float64(sample.GazeY)}
	confidence := float64(sample.GazeConfidence)

	if sample.FaceDetected() && confidence > 0 {
		for _, region := range regions {
			if len(region.Shape.PointsNormalized) == 0 {
				continue
			}
			if !hitTest(gaze, region) {
				continue
			}
			activeIDs = append(activeIDs, region.ID)

			minConf := region.GazeTrigger.MinConfidence
			if confidence >= minConf {
				m.dwellTimers[region.ID] += dt
			} else {
				m.dwellTimers[region.ID] = 0
			}

			dwellThresholdS := float64(region.GazeTrigger.DwellTimeMs) / 1000.0
			if m.dwellTimers[region.ID] >= dwellThresholdS && confidence >= minConf {
				dwellIDs = append(dwellIDs, region.ID)
			}
		}
	}

	currentActive := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		currentActive[id] = true
	}
	for id := range m.prevActive {
		if !currentActive[id] {
			delete(m.dwellTimers, id)
		}
	}
	m.prevActive = currentActive

	distanceFactor := m.computeDistanceFactor(sample)

	minActiveConfidence := 0.0
	if len(dwellIDs) > 0 {
		first := true
		for _, region := range regions {
			if !contains(dwellIDs, region.ID) {
				continue
			}
			if first || region.GazeTrigger.MinConfidence < minActiveConfidence {
				minActiveConfidence = region.GazeTrigger.MinConfidence
				first = false
			}
		}
	}

	return Result{
		ActiveRegions:       activeIDs,
		DwellRegions:        dwellIDs,
		DistanceFactor:      distanceFactor,
		MinActiveConfidence: minActiveConfidence,
	}
}

// Reset clears all dwell timers and active-region tracking, used when
// switching images.
func (m *Model) Reset() {
	m.dwellTimers = make(map[string]float64)
	m.prevActive = make(map[string]bool)
}

// computeDistanceFactor returns 0.0 at or beyond the far threshold and
// 1.0 at or within the near threshold, linearly interpolated between.
func (m *Model) computeDistanceFactor(sample domain.FaceSample) float64 {
	if !sample.FaceDetected() {
		return 0
	}
	d := float64(sample.FaceDistance)
	near, far := m.nearCm, m.farCm
	if near >= far {
		if d <= near {
			return 1
		}
		return 0
	}
	if d <= near {
		return 1
	}
	if d >= far {
		return 0
	}
	return 1 - (d-near)/(far-near)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
