package brain

import (
	"time"

	"github.com/hammamikhairi/soulframe/internal/audio"
	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/fsm"
	"github.com/hammamikhairi/soulframe/internal/interaction"
)

// Default breathing effect parameters used whenever a region's
// on_gaze_dwell visual effect doesn't specify its own.
const (
	defaultBreathingAmplitude = 0.008
	defaultBreathingFrequency = 0.25
)

// emitTransition sends the command recipe for a single FSM transition,
// in a fixed per-transition order.
func (c *Coordinator) emitTransition(r fsm.Result, result interaction.Result, img domain.ImageMetadata, haveImage bool) {
	switch {
	case r.From == domain.StateIdle && r.State == domain.StatePresence:
		if haveImage && img.Ambient != nil && img.Ambient.File != "" {
			if path, ok := c.gallery.AudioPath(img.Ambient.File); ok {
				c.audioSink.Send(domain.PlayAmbient(path, 500))
				c.ambientStarted = true
			}
		}
		c.displaySink.Send(domain.SetEffect("kenburns", 0.3, 0))
		c.displaySink.Send(domain.SetEffect("parallax", 0.2, 0))

	case r.From == domain.StatePresence && r.State == domain.StateEngaged:
		if haveImage {
			for _, region := range img.Regions {
				if !contains(result.DwellRegions, region.ID) {
					continue
				}
				for _, ve := range region.VisualEffects {
					if ve.Trigger != "on_gaze_dwell" {
						continue
					}
					cmd := domain.SetEffect(ve.Type, 0.6, float64(ve.FadeInMs))
					for k, v := range ve.Params {
						cmd.Params[k] = v
					}
					if ve.Type == "breathing" {
						if _, ok := ve.Params["amplitude"]; !ok {
							cmd.Params["amplitude"] = defaultBreathingAmplitude
						}
						if _, ok := ve.Params["frequency"]; !ok {
							cmd.Params["frequency"] = defaultBreathingFrequency
						}
					}
					c.displaySink.Send(cmd)
				}
			}
		}

	case r.From == domain.StateEngaged && r.State == domain.StateCloseInteraction:
		c.displaySink.Send(domain.SetVignette(0.8))
		c.displaySink.Send(domain.SetEffectIntensity("breathing", 1.0))

	case r.From == domain.StateCloseInteraction && r.State == domain.StateEngaged:
		c.displaySink.Send(domain.SetVignette(0.0))
		c.displaySink.Send(domain.SetEffectIntensity("breathing", 0.6))

	case r.State == domain.StateWithdrawing:
		fadeOutMs := c.cfg.DefaultFadeOutMs
		if haveImage && img.FadeOutMs > 0 {
			fadeOutMs = img.FadeOutMs
		}
		c.audioSink.Send(domain.FadeAll(0, float64(fadeOutMs)))
		c.displaySink.Send(domain.SetEffectIntensity("breathing", 0.0))
		c.displaySink.Send(domain.SetVignette(0.0))
		c.displaySink.Send(domain.SetParallax(0.5, 0.5))

	case r.From == domain.StateWithdrawing && r.State == domain.StateIdle:
		c.audioSink.Send(domain.StopAll())
		c.displaySink.Send(domain.SetEffectIntensity("kenburns", 0.0))
		c.displaySink.Send(domain.SetEffectIntensity("parallax", 0.0))
		c.ambientStarted = false
		c.heartbeats = make(map[string]heartbeatTrack)
		c.haveAmbientVol = false
		c.havePrevParallax = false
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// emitContinuous implements tick step 5: parallax, ambient volume, and
// per-region heartbeat volume, each suppressed unless it changed beyond
// its epsilon.
func (c *Coordinator) emitContinuous(sample domain.FaceSample, result interaction.Result, img domain.ImageMetadata, haveImage bool, now time.Time) {
	gx, gy := float64(sample.GazeX), float64(sample.GazeY)
	if !c.havePrevParallax || absf(gx-c.lastParallaxX) > gazeEpsilon || absf(gy-c.lastParallaxY) > gazeEpsilon {
		c.displaySink.Send(domain.SetParallax(gx, gy))
		c.lastParallaxX, c.lastParallaxY = gx, gy
		c.havePrevParallax = true
	}

	if c.ambientStarted && haveImage && img.Ambient != nil {
		vol := c.ambientVolume(sample, img)
		if !c.haveAmbientVol || absf(vol-c.lastAmbientVol) > volumeEpsilon {
			c.audioSink.Send(domain.SetVolume("ambient", vol))
			c.lastAmbientVol = vol
			c.haveAmbientVol = true
		}
	}

	if !haveImage {
		return
	}
	c.updateHeartbeats(sample, result, img, now)
}

func (c *Coordinator) ambientVolume(sample domain.FaceSample, img domain.ImageMetadata) float64 {
	curve, err := audio.GetCurve(img.Ambient.FadeCurve)
	if err != nil {
		curve = audio.EaseInOutCurve
	}
	return curve(float64(sample.FaceDistance), img.Ambient.FadeInDistanceCm, img.Ambient.FadeInCompleteCm)
}

// updateHeartbeats starts/stops per-region heartbeat streams and
// modulates their volume by distance, suppressing SET_VOLUME during
// each heartbeat's fade-in grace period so the startup fade is never
// overwritten.
func (c *Coordinator) updateHeartbeats(sample domain.FaceSample, result interaction.Result, img domain.ImageMetadata, now time.Time) {
	dwelled := make(map[string]bool, len(result.DwellRegions))
	for _, id := range result.DwellRegions {
		dwelled[id] = true
	}

	for _, region := range img.Regions {
		if region.Heartbeat == nil || region.Heartbeat.File == "" {
			continue
		}
		track, started := c.heartbeats[region.ID]

		if dwelled[region.ID] {
			if !started {
				path, ok := c.gallery.AudioPath(region.Heartbeat.File)
				if !ok {
					continue
				}
				c.audioSink.Send(domain.PlayHeartbeat(region.ID, path, region.Heartbeat.BassBoost, float64(region.Heartbeat.FadeInMs)))
				c.heartbeats[region.ID] = heartbeatTrack{startedAt: now, fadeInMs: float64(region.Heartbeat.FadeInMs)}
				continue
			}
			if now.Sub(track.startedAt) < time.Duration(track.fadeInMs)*time.Millisecond {
				continue // grace period: don't overwrite the startup fade
			}
			curve, err := audio.GetCurve(region.Heartbeat.Curve)
			if err != nil {
				curve = audio.ExponentialCurve
			}
			vol := curve(float64(sample.FaceDistance), region.Heartbeat.MaxDistanceCm, region.Heartbeat.MinDistanceCm)
			c.audioSink.Send(domain.SetVolume("heartbeat_"+region.ID, vol))
			continue
		}

		if started {
			c.audioSink.Send(domain.StopHeartbeat(region.ID, float64(c.cfg.DefaultFadeOutMs)))
			delete(c.heartbeats, region.ID)
		}
	}
}

// cycleImage implements tick step 6: advance the playlist, crossfade
// display and audio, and reset per-image smoothing/interaction state.
func (c *Coordinator) cycleImage(prevImg domain.ImageMetadata, havePrevImage bool) {
	next, ok := c.gallery.Next()
	if !ok {
		return
	}
	path, ok := c.gallery.ImagePath()
	if ok {
		c.displaySink.Send(domain.CrossfadeImage(path, float64(next.FadeInMs)))
	}

	crossfadeMs := c.cfg.DefaultAudioCrossfadeMs
	if next.AudioCrossfadeMs > 0 {
		crossfadeMs = next.AudioCrossfadeMs
	}
	c.audioSink.Send(domain.FadeAll(0, float64(crossfadeMs)))

	c.gaze.Reset()
	c.dist.Reset()
	c.im.Reset()
	c.ambientStarted = false
	c.heartbeats = make(map[string]heartbeatTrack)
	c.haveAmbientVol = false
	c.havePrevParallax = false
	c.applyImageThresholds()
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
