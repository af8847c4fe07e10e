package fsm

import (
	"testing"

	"github.com/hammamikhairi/soulframe/internal/domain"
)

func newDefaultMachine() *Machine {
	return New(DefaultPresenceLostS, DefaultIdleFaceLostS, DefaultWithdrawGazeAway, DefaultIdleImageCycleS, DefaultGazeAwayConf)
}

// Presence entry at distance=250cm against P_cm=300.
func TestScenario_PresenceEntry(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 250, GazeConfidence: 0.9, Dt: 1.0 / 30})
	if res.State != domain.StatePresence || !res.Transitioned || res.From != domain.StateIdle {
		t.Fatalf("want IDLE -> PRESENCE on first tick, got state=%v transitioned=%v from=%v", res.State, res.Transitioned, res.From)
	}
}

// Close-interaction hysteresis with close_cm=80.
func TestScenario_CloseInteractionHysteresis(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StateEngaged

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 70, GazeConfidence: 0.9, Dt: 1.0 / 30})
	if res.State != domain.StateCloseInteraction {
		t.Fatalf("distance=70 < close_cm=80 should enter CLOSE_INTERACTION, got %v", res.State)
	}

	res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 100, GazeConfidence: 0.9, Dt: 1.0 / 30})
	if res.State != domain.StateCloseInteraction {
		t.Fatalf("distance=100 <= min(120,300) should stay CLOSE_INTERACTION, got %v", res.State)
	}

	res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 130, GazeConfidence: 0.9, Dt: 1.0 / 30})
	if res.State != domain.StateEngaged {
		t.Fatalf("distance=130 > min(120,300) should exit to ENGAGED, got %v", res.State)
	}
}

// Withdraw on sustained face loss from ENGAGED, then
// IDLE after the withdraw duration, with timers cleared.
func TestScenario_WithdrawOnFaceLoss(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StateEngaged

	const dt = 1.0 / 30
	var res Result
	for elapsed := 0.0; elapsed < 5.0; elapsed += dt {
		res = m.Update(Inputs{FaceDetected: false, Dt: dt})
	}
	if res.State != domain.StateWithdrawing {
		t.Fatalf("after >=5s of no face in ENGAGED, want WITHDRAWING, got %v", res.State)
	}

	for elapsed := 0.0; elapsed < 4.0+dt; elapsed += dt {
		res = m.Update(Inputs{FaceDetected: false, Dt: dt})
	}
	if res.State != domain.StateIdle {
		t.Fatalf("after W_s=4s in WITHDRAWING, want IDLE, got %v", res.State)
	}
}

func TestTransition_IdleCyclesImageAfterTimeout(t *testing.T) {
	m := New(DefaultPresenceLostS, DefaultIdleFaceLostS, DefaultWithdrawGazeAway, 1.0, DefaultGazeAwayConf)
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	res := m.Update(Inputs{FaceDetected: false, Dt: 0.5})
	if res.ShouldCycleImage {
		t.Fatal("should not cycle before idleImageCycleS elapses")
	}
	res = m.Update(Inputs{FaceDetected: false, Dt: 0.6})
	if !res.ShouldCycleImage {
		t.Fatal("should cycle once idle duration crosses the configured threshold")
	}
}

func TestTransition_PresenceToWithdrawingOnFaceLost(t *testing.T) {
	m := newDefaultMachine()
	m.state = domain.StatePresence
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	var res Result
	for elapsed := 0.0; elapsed < DefaultPresenceLostS+0.1; elapsed += 0.1 {
		res = m.Update(Inputs{FaceDetected: false, Dt: 0.1})
	}
	if res.State != domain.StateWithdrawing {
		t.Fatalf("PRESENCE should withdraw after face_lost >= %v, got %v", DefaultPresenceLostS, res.State)
	}
}

func TestTransition_PresenceToWithdrawingOnDistanceRegression(t *testing.T) {
	m := newDefaultMachine()
	m.state = domain.StatePresence
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 310, GazeConfidence: 0.9, Dt: 0.1})
	if res.State != domain.StateWithdrawing {
		t.Fatalf("distance beyond P_cm while detected should withdraw from PRESENCE, got %v", res.State)
	}
}

func TestTransition_PresenceToEngagedOnDwell(t *testing.T) {
	m := newDefaultMachine()
	m.state = domain.StatePresence
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 150, GazeConfidence: 0.9, DwellRegions: []string{"r1"}, Dt: 0.1})
	if res.State != domain.StateEngaged {
		t.Fatalf("non-empty dwell regions in PRESENCE should enter ENGAGED, got %v", res.State)
	}
}

func TestTransition_EngagedGazeAwayWithdraws(t *testing.T) {
	m := newDefaultMachine()
	m.state = domain.StateEngaged
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	var res Result
	for elapsed := 0.0; elapsed < DefaultWithdrawGazeAway+0.1; elapsed += 0.1 {
		res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 150, GazeConfidence: 0.1, Dt: 0.1})
	}
	if res.State != domain.StateWithdrawing {
		t.Fatalf("sustained gaze-away in ENGAGED should withdraw, got %v", res.State)
	}
}

// On entering ENGAGED from PRESENCE, gaze_away_timer resets; from
// CLOSE_INTERACTION it is deliberately preserved.
func TestGazeAwayTimer_PreservedOnCloseToEngaged(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StateCloseInteraction
	m.t.gazeAway = DefaultWithdrawGazeAway - 0.2

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 130, GazeConfidence: 0.1, Dt: 0.3})
	if res.State != domain.StateWithdrawing {
		t.Fatalf("preserved gaze_away_timer should push past the withdraw threshold immediately, got %v", res.State)
	}
}

func TestGazeAwayTimer_ResetOnPresenceToEngaged(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StatePresence
	m.t.gazeAway = DefaultWithdrawGazeAway - 0.2

	res := m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 150, GazeConfidence: 0.9, DwellRegions: []string{"r1"}, Dt: 0.3})
	if res.State != domain.StateEngaged {
		t.Fatalf("want ENGAGED, got %v", res.State)
	}
	res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 150, GazeConfidence: 0.1, Dt: 0.1})
	if res.State == domain.StateWithdrawing {
		t.Fatal("gaze_away_timer should have reset on PRESENCE->ENGAGED, so 0.1s of gaze-away is not enough to withdraw")
	}
}

// gaze_away_timer must reset whenever any region is actively gazed
// at with sufficient confidence, even before that region's dwell
// threshold has been met — ActiveRegions, not DwellRegions, gates it.
func TestGazeAwayTimer_ResetsOnActiveRegionBeforeDwell(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StateEngaged
	m.t.gazeAway = DefaultWithdrawGazeAway - 0.2

	res := m.Update(Inputs{
		FaceDetected:   true,
		FaceDistanceCm: 150,
		GazeConfidence: 0.9,
		ActiveRegions:  []string{"r1"},
		Dt:             0.3,
	})
	if res.State == domain.StateWithdrawing {
		t.Fatal("gazing at an active (not yet dwelled) region should reset gaze_away_timer, not let it cross the withdraw threshold")
	}
}

func TestGazeAwayTimer_AccumulatesWithActiveRegionsButLowConfidence(t *testing.T) {
	m := newDefaultMachine()
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})
	m.state = domain.StateEngaged

	var res Result
	for elapsed := 0.0; elapsed < DefaultWithdrawGazeAway+0.1; elapsed += 0.1 {
		res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 150, GazeConfidence: 0.1, Dt: 0.1})
	}
	if res.State != domain.StateWithdrawing {
		t.Fatalf("no active regions and low gaze confidence should still accumulate gaze_away_timer to withdraw, got %v", res.State)
	}
}

func TestShouldCycleImage_ClearedOnTransition(t *testing.T) {
	m := New(DefaultPresenceLostS, DefaultIdleFaceLostS, DefaultWithdrawGazeAway, 0.2, DefaultGazeAwayConf)
	m.SetThresholds(Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4})

	res := m.Update(Inputs{FaceDetected: false, Dt: 0.3})
	if !res.ShouldCycleImage {
		t.Fatal("expected should_cycle_image to be set once idle timeout elapses")
	}

	res = m.Update(Inputs{FaceDetected: true, FaceDistanceCm: 100, GazeConfidence: 0.9, Dt: 0.1})
	if res.ShouldCycleImage {
		t.Fatal("should_cycle_image must clear once a transition occurs")
	}
}
