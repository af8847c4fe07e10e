// Package signal smooths the noisy per-frame measurements carried over
// the vision IPC channel: gaze position via an exponential moving
// average, and face distance via a 1-D Kalman filter.
package signal

import "math"

// EMAFilter is a single-value exponential moving average. Alpha is the
// weight given to each new sample; higher alpha tracks faster but
// smooths less.
type EMAFilter struct {
	alpha   float64
	value   float64
	primed  bool
}

// NewEMAFilter builds an EMA filter with the given smoothing factor.
func NewEMAFilter(alpha float64) *EMAFilter {
	return &EMAFilter{alpha: alpha}
}

// Update feeds in a new measurement and returns the smoothed value. The
// first call seeds the filter with the raw measurement.
func (f *EMAFilter) Update(measurement float64) float64 {
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return f.value
	}
	if !f.primed {
		f.value = measurement
		f.primed = true
		return f.value
	}
	f.value = f.alpha*measurement + (1-f.alpha)*f.value
	return f.value
}

// Reset clears the filter back to an unprimed state.
func (f *EMAFilter) Reset() {
	f.value = 0
	f.primed = false
}

// Value returns the current smoothed value without updating it.
func (f *EMAFilter) Value() float64 { return f.value }

// GazeSmoother smooths the normalized (x, y) gaze point with a pair of
// independent EMA filters.
type GazeSmoother struct {
	x, y *EMAFilter
}

// NewGazeSmoother builds a gaze smoother with the given alpha, shared by
// both axes.
func NewGazeSmoother(alpha float64) *GazeSmoother {
	return &GazeSmoother{x: NewEMAFilter(alpha), y: NewEMAFilter(alpha)}
}

// Update feeds a new raw gaze point and returns the smoothed point.
func (g *GazeSmoother) Update(x, y float64) (sx, sy float64) {
	return g.x.Update(x), g.y.Update(y)
}

// Reset clears both axis filters.
func (g *GazeSmoother) Reset() {
	g.x.Reset()
	g.y.Reset()
}

// KalmanFilter is a scalar Kalman filter over a constant-position
// model: state doesn't evolve between updates except for injected
// process noise q, and each measurement carries noise variance r.
type KalmanFilter struct {
	q, r     float64
	estimate float64
	variance float64
	primed   bool
}

// NewKalmanFilter builds a scalar Kalman filter with process noise q
// and measurement noise r.
func NewKalmanFilter(q, r float64) *KalmanFilter {
	return &KalmanFilter{q: q, r: r}
}

// Update feeds a new measurement and returns the filtered estimate. The
// first valid measurement initializes x = measurement, P = r.
func (k *KalmanFilter) Update(measurement float64) float64 {
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return k.estimate
	}
	if !k.primed {
		k.estimate = measurement
		k.variance = k.r
		k.primed = true
		return k.estimate
	}

	// Predict: variance grows by process noise.
	predictedVariance := k.variance + k.q

	// Update: blend prediction with measurement weighted by the Kalman gain.
	gain := predictedVariance / (predictedVariance + k.r)
	k.estimate = k.estimate + gain*(measurement-k.estimate)
	k.variance = (1 - gain) * predictedVariance
	return k.estimate
}

// Reset clears the filter back to an unprimed state.
func (k *KalmanFilter) Reset() {
	k.estimate = 0
	k.variance = 0
	k.primed = false
}

// Value returns the current estimate without updating it.
func (k *KalmanFilter) Value() float64 { return k.estimate }

// DistanceSmoother wraps a KalmanFilter for face distance, in cm.
type DistanceSmoother struct {
	*KalmanFilter
}

// NewDistanceSmoother builds a distance smoother with process noise q
// and measurement noise r (defaults per config: q=0.5, r=5.0).
func NewDistanceSmoother(q, r float64) *DistanceSmoother {
	return &DistanceSmoother{KalmanFilter: NewKalmanFilter(q, r)}
}
