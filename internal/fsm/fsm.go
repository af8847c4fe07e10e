// Package fsm implements the interaction state machine: five states,
// hysteresis on close-interaction exit, and a set of timers fed by the
// interaction model's per-tick output.
package fsm

import "github.com/hammamikhairi/soulframe/internal/domain"

// Default global timing constants (config may override per-install).
const (
	DefaultPresenceLostS    = 3.0
	DefaultIdleFaceLostS    = 5.0
	DefaultWithdrawGazeAway = 8.0
	DefaultIdleImageCycleS  = 300.0
	DefaultGazeAwayConf     = 0.6
)

// Thresholds are the per-image distance/duration thresholds that gate
// transitions, settable before every tick from the current image's
// metadata.
type Thresholds struct {
	PresenceCm  float64 // P_cm
	CloseCm     float64 // C_cm
	WithdrawS   float64 // W_s
}

// Inputs is everything the FSM needs from a single tick, beyond its own
// timers.
type Inputs struct {
	FaceDetected        bool
	FaceDistanceCm      float64
	GazeConfidence      float64
	ActiveRegions       []string
	DwellRegions        []string
	MinActiveConfidence float64
	Dt                  float64
}

// timers holds the FSM's own state, advanced every tick as a pure
// function of the previous timers and this tick's inputs.
type timers struct {
	faceLost       float64
	gazeAway       float64
	withdraw       float64
	idleImageCycle float64
}

// Result is returned by every Update call.
type Result struct {
	State            domain.InteractionState
	Transitioned     bool
	From             domain.InteractionState
	ShouldCycleImage bool
}

// Machine is the interaction state machine. Not safe for concurrent
// use; owned exclusively by the brain coordinator's tick.
type Machine struct {
	state domain.InteractionState
	t     timers

	thresholds Thresholds

	presenceLostS    float64
	idleFaceLostS    float64
	withdrawGazeAway float64
	idleImageCycleS  float64
	gazeAwayConfDef  float64
}

// New builds a machine starting in IDLE with the given global timing
// constants (pass the Default* constants for stock behavior).
func New(presenceLostS, idleFaceLostS, withdrawGazeAway, idleImageCycleS, gazeAwayConfDefault float64) *Machine {
	return &Machine{
		state:            domain.StateIdle,
		presenceLostS:    presenceLostS,
		idleFaceLostS:    idleFaceLostS,
		withdrawGazeAway: withdrawGazeAway,
		idleImageCycleS:  idleImageCycleS,
		gazeAwayConfDef:  gazeAwayConfDefault,
		thresholds:       Thresholds{PresenceCm: 300, CloseCm: 80, WithdrawS: 4},
	}
}

// SetThresholds overrides the per-image thresholds used by the next
// Update call.
func (m *Machine) SetThresholds(t Thresholds) {
	m.thresholds = t
}

// State returns the current state.
func (m *Machine) State() domain.InteractionState { return m.state }

// Update advances the machine by one tick.
func (m *Machine) Update(in Inputs) Result {
	if in.FaceDetected {
		m.t.faceLost = 0
	} else {
		m.t.faceLost += in.Dt
	}

	gazeAwayThreshold := m.gazeAwayConfDef
	if (m.state == domain.StateEngaged || m.state == domain.StateCloseInteraction) && in.MinActiveConfidence > 0 {
		gazeAwayThreshold = in.MinActiveConfidence
	}
	gazeActive := len(in.ActiveRegions) > 0 && in.GazeConfidence >= gazeAwayThreshold
	if gazeActive {
		m.t.gazeAway = 0
	} else {
		m.t.gazeAway += in.Dt
	}

	from := m.state
	to := from
	cycle := false

	switch from {
	case domain.StateIdle:
		if in.FaceDetected && in.FaceDistanceCm < m.thresholds.PresenceCm {
			to = domain.StatePresence
		} else {
			m.t.idleImageCycle += in.Dt
			if m.t.idleImageCycle >= m.idleImageCycleS {
				cycle = true
			}
		}

	case domain.StatePresence:
		switch {
		case m.t.faceLost >= m.presenceLostS:
			to = domain.StateWithdrawing
		case in.FaceDetected && in.FaceDistanceCm >= m.thresholds.PresenceCm:
			to = domain.StateWithdrawing
		case len(in.DwellRegions) > 0:
			to = domain.StateEngaged
		}

	case domain.StateEngaged:
		switch {
		case m.t.faceLost >= m.idleFaceLostS:
			to = domain.StateWithdrawing
		case in.FaceDetected && in.FaceDistanceCm < m.thresholds.CloseCm:
			to = domain.StateCloseInteraction
		case m.t.gazeAway >= m.withdrawGazeAway:
			to = domain.StateWithdrawing
		}

	case domain.StateCloseInteraction:
		exitDistance := m.thresholds.CloseCm * 1.5
		if exitDistance > m.thresholds.PresenceCm {
			exitDistance = m.thresholds.PresenceCm
		}
		switch {
		case m.t.faceLost >= m.idleFaceLostS:
			to = domain.StateWithdrawing
		case m.t.gazeAway >= m.withdrawGazeAway:
			to = domain.StateWithdrawing
		case in.FaceDetected && in.FaceDistanceCm > exitDistance:
			to = domain.StateEngaged
		}

	case domain.StateWithdrawing:
		m.t.withdraw += in.Dt
		if m.t.withdraw >= m.thresholds.WithdrawS {
			to = domain.StateIdle
		}
	}

	transitioned := to != from
	if transitioned {
		m.onEnter(from, to)
	}

	return Result{State: m.state, Transitioned: transitioned, From: from, ShouldCycleImage: cycle}
}

// onEnter runs the bookkeeping side effects of a state transition: reset
// or preserve timers per the transition rules, and clear should_cycle.
func (m *Machine) onEnter(from, to domain.InteractionState) {
	m.state = to
	m.t.idleImageCycle = 0

	switch to {
	case domain.StateEngaged:
		if from == domain.StatePresence {
			m.t.gazeAway = 0
		}
		// from == CLOSE_INTERACTION: gaze_away_timer is deliberately
		// preserved to prevent an oscillation exploit.
	case domain.StateWithdrawing:
		m.t.withdraw = 0
	case domain.StateIdle:
		m.t = timers{}
	}
}
