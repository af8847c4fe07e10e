package audio

import (
	"fmt"
	"math"
	"sort"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

// Curve maps a distance in cm to a volume in [0,1]: 1.0 at or within
// minDist, 0.0 at or beyond maxDist, falling off between the two per
// the curve's shape.
type Curve func(distanceCm, maxDist, minDist float64) float64

func clamped01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boundaryCheck(distanceCm, maxDist, minDist float64) (float64, bool) {
	if maxDist <= minDist {
		if distanceCm <= minDist {
			return 1, true
		}
		return 0, true
	}
	if distanceCm <= minDist {
		return 1, true
	}
	if distanceCm >= maxDist {
		return 0, true
	}
	return 0, false
}

// LinearCurve is a straight-line falloff from 1.0 at minDist to 0.0 at
// maxDist.
func LinearCurve(distanceCm, maxDist, minDist float64) float64 {
	if v, done := boundaryCheck(distanceCm, maxDist, minDist); done {
		return v
	}
	t := (distanceCm - minDist) / (maxDist - minDist)
	return clamped01(1 - t)
}

// EaseInOutCurve is a smoothstep falloff, gentle near both extremes.
func EaseInOutCurve(distanceCm, maxDist, minDist float64) float64 {
	if v, done := boundaryCheck(distanceCm, maxDist, minDist); done {
		return v
	}
	t := (distanceCm - minDist) / (maxDist - minDist)
	smooth := t * t * (3 - 2*t)
	return clamped01(1 - smooth)
}

// EaseInCurve drops slowly near minDist and faster near maxDist.
func EaseInCurve(distanceCm, maxDist, minDist float64) float64 {
	if v, done := boundaryCheck(distanceCm, maxDist, minDist); done {
		return v
	}
	t := (distanceCm - minDist) / (maxDist - minDist)
	return clamped01(1 - t*t)
}

// EaseOutCurve drops quickly near minDist and slowly near maxDist.
func EaseOutCurve(distanceCm, maxDist, minDist float64) float64 {
	if v, done := boundaryCheck(distanceCm, maxDist, minDist); done {
		return v
	}
	t := (distanceCm - minDist) / (maxDist - minDist)
	inv := 1 - t
	return clamped01(inv * inv)
}

// ExponentialCurve drops quickly then tapers, normalized so it reaches
// exactly 0.0 at maxDist.
func ExponentialCurve(distanceCm, maxDist, minDist float64) float64 {
	if v, done := boundaryCheck(distanceCm, maxDist, minDist); done {
		return v
	}
	t := (distanceCm - minDist) / (maxDist - minDist)
	raw := math.Exp(-5.0 * t)
	floor := math.Exp(-5.0)
	return clamped01((raw - floor) / (1 - floor))
}

var curves = map[string]Curve{
	"linear":      LinearCurve,
	"ease_in":     EaseInCurve,
	"ease_out":    EaseOutCurve,
	"ease_in_out": EaseInOutCurve,
	"smoothstep":  EaseInOutCurve,
	"exponential": ExponentialCurve,
	"exp":         ExponentialCurve,
}

// GetCurve looks up a curve by its short name. Returns
// domain.ErrUnknownCurve for anything not in the registry.
func GetCurve(name string) (Curve, error) {
	c, ok := curves[name]
	if !ok {
		names := make([]string, 0, len(curves))
		for n := range curves {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownCurve, name, names)
	}
	return c, nil
}
