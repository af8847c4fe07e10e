package audio

import "testing"

func TestCurves_BoundaryValues(t *testing.T) {
	for name, curve := range curves {
		if v := curve(10, 200, 50); v != 1 {
			t.Errorf("%s: at/within minDist, got %v, want 1", name, v)
		}
		if v := curve(50, 200, 50); v != 1 {
			t.Errorf("%s: exactly at minDist, got %v, want 1", name, v)
		}
		if v := curve(200, 200, 50); v != 0 {
			t.Errorf("%s: exactly at maxDist, got %v, want 0", name, v)
		}
		if v := curve(500, 200, 50); v != 0 {
			t.Errorf("%s: beyond maxDist, got %v, want 0", name, v)
		}
	}
}

func TestCurves_MonotonicNonIncreasing(t *testing.T) {
	for name, curve := range curves {
		prev := 1.0
		for d := 50.0; d <= 200.0; d += 5 {
			v := curve(d, 200, 50)
			if v > prev+1e-9 {
				t.Fatalf("%s: curve increased at d=%v (prev=%v, got=%v)", name, d, prev, v)
			}
			prev = v
		}
	}
}

func TestCurves_StepFunctionWhenMaxLEMin(t *testing.T) {
	for name, curve := range curves {
		if v := curve(40, 100, 100); v != 1 {
			t.Errorf("%s: maxDist<=minDist, distance<=minDist should give 1, got %v", name, v)
		}
		if v := curve(150, 100, 100); v != 0 {
			t.Errorf("%s: maxDist<=minDist, distance>minDist should give 0, got %v", name, v)
		}
	}
}

func TestGetCurve_KnownNames(t *testing.T) {
	for _, name := range []string{"linear", "ease_in", "ease_out", "ease_in_out", "smoothstep", "exponential", "exp"} {
		if _, err := GetCurve(name); err != nil {
			t.Errorf("GetCurve(%q) returned error: %v", name, err)
		}
	}
}

func TestGetCurve_UnknownNameReturnsError(t *testing.T) {
	c, err := GetCurve("nonexistent_curve")
	if err == nil {
		t.Fatal("expected an error for an unknown curve name")
	}
	if c != nil {
		t.Fatal("expected a nil curve on error")
	}
}
