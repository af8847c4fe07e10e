// Package brain implements the 30 Hz tick coordinator: it fuses
// smoothed vision samples with the current image's metadata, drives the
// interaction model and state machine, and emits idempotent,
// rate-limited commands to the audio and display command sinks.
package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/soulframe/internal/config"
	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/fsm"
	"github.com/hammamikhairi/soulframe/internal/gallery"
	"github.com/hammamikhairi/soulframe/internal/geometry"
	"github.com/hammamikhairi/soulframe/internal/interaction"
	"github.com/hammamikhairi/soulframe/internal/logger"
	"github.com/hammamikhairi/soulframe/internal/signal"
)

// Epsilons below which a continuous update is suppressed as
// unchanged.
const (
	gazeEpsilon   = 0.005
	volumeEpsilon = 0.01
)

// Stock global gaze-away confidence. The state machine itself is built
// with cfg.GazeMinConfidence, which defaults to the same value.
const defaultGazeAwayConfidence = fsm.DefaultGazeAwayConf

// ProcessWatch lets the coordinator notice a sibling process/goroutine
// exiting, driving the liveness check in step 7 of the tick.
type ProcessWatch struct {
	Name string
	Done <-chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTickRate overrides the tick frequency (default from cfg.TickHz).
func WithTickRate(hz float64) Option {
	return func(c *Coordinator) {
		if hz > 0 {
			c.tickInterval = time.Duration(float64(time.Second) / hz)
		}
	}
}

// WithWatch registers a sibling process/goroutine to monitor for
// liveness.
func WithWatch(w ProcessWatch) Option {
	return func(c *Coordinator) { c.watches = append(c.watches, w) }
}

type heartbeatTrack struct {
	startedAt time.Time
	fadeInMs  float64
}

// Coordinator is the brain's per-tick scheduler.
type Coordinator struct {
	cfg config.Config
	log *logger.Logger

	vision      domain.VisionReader
	displaySink domain.CommandSink
	audioSink   domain.CommandSink
	gallery     *gallery.Manager

	gaze *signal.GazeSmoother
	dist *signal.DistanceSmoother
	im   *interaction.Model
	sm   *fsm.Machine

	tickInterval time.Duration
	staleTimeout time.Duration

	watches []ProcessWatch

	haveLastSample bool
	lastSample     domain.FaceSample
	lastSampleAt   time.Time
	lastTickAt     time.Time

	ambientStarted  bool
	heartbeats      map[string]heartbeatTrack
	lastParallaxX   float64
	lastParallaxY   float64
	havePrevParallax bool
	lastAmbientVol  float64
	haveAmbientVol  bool
}

// New builds a coordinator wired to its collaborators.
func New(cfg config.Config, log *logger.Logger, vision domain.VisionReader, displaySink, audioSink domain.CommandSink, gal *gallery.Manager, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:          cfg,
		log:          log,
		vision:       vision,
		displaySink:  displaySink,
		audioSink:    audioSink,
		gallery:      gal,
		gaze:         signal.NewGazeSmoother(0.25),
		dist:         signal.NewDistanceSmoother(0.5, 5.0),
		im:           interaction.NewModel(cfg.CloseInteractionDistanceCm, cfg.PresenceDistanceCm),
		sm:           fsm.New(cfg.PresenceLostTimeoutS, cfg.IdleFaceLostTimeoutS, cfg.WithdrawGazeAwayTimeoutS, cfg.IdleImageCycleSeconds, cfg.GazeMinConfidence),
		tickInterval: time.Duration(float64(time.Second) / cfg.TickHz),
		staleTimeout: time.Duration(cfg.VisionStaleTimeout * float64(time.Second)),
		heartbeats:   make(map[string]heartbeatTrack),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run blocks, ticking at the configured rate until ctx is canceled or a
// fatal condition (no loadable image, dead sibling process) ends the
// loop.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.gallery.Count() == 0 {
		if c.gallery.Scan() == 0 {
			return domain.ErrNoImages
		}
	}
	c.applyImageThresholds()

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	c.lastTickAt = time.Now()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(c.lastTickAt).Seconds()
			c.lastTickAt = now
			if err := c.tick(dt, now); err != nil {
				c.shutdown()
				return err
			}
		}
	}
}

func (c *Coordinator) shutdown() {
	c.audioSink.Send(domain.Shutdown())
	c.displaySink.Send(domain.Shutdown())
}

// tick runs one pass: read vision, update the interaction model and
// state machine, emit transition/continuous commands, and cycle the
// image when due.
func (c *Coordinator) tick(dt float64, now time.Time) error {
	sample := c.readVision(now)

	img, haveImage := c.gallery.Current()
	var regions []domain.Region
	if haveImage && c.sm.State() != domain.StateWithdrawing {
		regions = img.Regions
	}

	result := c.im.Update(sample, regions, dt, geometry.RegionHitTest)

	fsmResult := c.sm.Update(fsm.Inputs{
		FaceDetected:        sample.FaceDetected(),
		FaceDistanceCm:      float64(sample.FaceDistance),
		GazeConfidence:      float64(sample.GazeConfidence),
		ActiveRegions:       result.ActiveRegions,
		DwellRegions:        result.DwellRegions,
		MinActiveConfidence: result.MinActiveConfidence,
		Dt:                  dt,
	})

	if fsmResult.Transitioned {
		if s, ok := c.displaySink.(interface{ SetInteractionState(domain.InteractionState) }); ok {
			s.SetInteractionState(fsmResult.State)
		}
		c.emitTransition(fsmResult, result, img, haveImage)
	}

	if fsmResult.State == domain.StatePresence || fsmResult.State == domain.StateEngaged || fsmResult.State == domain.StateCloseInteraction {
		c.emitContinuous(sample, result, img, haveImage, now)
	}

	if fsmResult.ShouldCycleImage {
		c.cycleImage(img, haveImage)
	}

	if name, dead := c.checkLiveness(); dead {
		c.log.Error("sibling process %q exited; shutting down", name)
		return fmt.Errorf("sibling process %q exited", name)
	}

	return nil
}

// readVision implements tick step 1: poll the seqlock reader, apply
// stale-data handling, and feed the smoothers.
func (c *Coordinator) readVision(now time.Time) domain.FaceSample {
	sample, ok := c.vision.Read()
	if ok {
		if c.haveLastSample && now.Sub(c.lastSampleAt) > c.staleTimeout {
			c.gaze.Reset()
			c.dist.Reset()
		}
		c.lastSample = sample
		c.lastSampleAt = now
		c.haveLastSample = true
	} else if c.haveLastSample && now.Sub(c.lastSampleAt) > c.staleTimeout {
		sample = domain.FaceSample{FrameCounter: c.lastSample.FrameCounter}
		c.lastSample = sample
	} else if c.haveLastSample {
		sample = c.lastSample
	} else {
		sample = domain.FaceSample{}
	}

	sx, sy := c.gaze.Update(float64(sample.GazeX), float64(sample.GazeY))
	sd := c.dist.Update(float64(sample.FaceDistance))

	smoothed := sample
	smoothed.GazeX = float32(sx)
	smoothed.GazeY = float32(sy)
	smoothed.FaceDistance = float32(sd)
	return smoothed
}

func (c *Coordinator) applyImageThresholds() {
	img, ok := c.gallery.Current()
	if !ok {
		return
	}
	c.sm.SetThresholds(fsm.Thresholds{
		PresenceCm: orDefault(img.MinInteractionDistanceCm, c.cfg.PresenceDistanceCm),
		CloseCm:    orDefault(img.CloseInteractionDistanceCm, c.cfg.CloseInteractionDistanceCm),
		WithdrawS:  c.cfg.WithdrawFadeDurationS,
	})
	c.im.SetDistanceThresholds(
		orDefault(img.CloseInteractionDistanceCm, c.cfg.CloseInteractionDistanceCm),
		orDefault(img.MinInteractionDistanceCm, c.cfg.PresenceDistanceCm),
	)
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func (c *Coordinator) checkLiveness() (string, bool) {
	for _, w := range c.watches {
		select {
		case <-w.Done:
			return w.Name, true
		default:
		}
	}
	return "", false
}

func clamp01f(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
