// Package config centralizes Soul Frame's tunables: gallery location,
// audio device parameters, and the interaction state machine's timing
// constants. Every field has a hardcoded default and can be overridden
// by an environment variable of the same shape as the Python original's
// config module, loaded via .env (godotenv) before flag parsing.
package config

import (
	"os"
	"strconv"
)

// Config is the full set of env-overridable Soul Frame settings.
type Config struct {
	GalleryDir string

	AudioSampleRate int
	AudioChannels   int
	AudioBlockSize  int
	AudioDeviceName string

	VisionShmName      string
	VisionStaleTimeout float64 // seconds

	PresenceDistanceCm        float64
	CloseInteractionDistanceCm float64
	PresenceLostTimeoutS      float64
	IdleFaceLostTimeoutS      float64
	GazeDwellMs               int
	GazeMinConfidence         float64
	WithdrawGazeAwayTimeoutS  float64
	WithdrawFadeDurationS     float64
	IdleImageCycleSeconds     float64

	DefaultFadeInMs        int
	DefaultFadeOutMs       int
	DefaultAudioCrossfadeMs int

	HeartbeatBassCenterHz float64
	HeartbeatBassQ        float64
	HeartbeatBassGainDb   float64

	TickHz float64
}

// Default returns the stock configuration, matching the original
// installation's constants.
func Default() Config {
	return Config{
		GalleryDir: "content/gallery",

		AudioSampleRate: 44100,
		AudioChannels:   2,
		AudioBlockSize:  1024,
		AudioDeviceName: "seeed",

		VisionShmName:      "soulframe_vision",
		VisionStaleTimeout: 2.0,

		PresenceDistanceCm:         300,
		CloseInteractionDistanceCm: 80,
		PresenceLostTimeoutS:       3.0,
		IdleFaceLostTimeoutS:       5.0,
		GazeDwellMs:                1500,
		GazeMinConfidence:          0.6,
		WithdrawGazeAwayTimeoutS:   8.0,
		WithdrawFadeDurationS:      4.0,
		IdleImageCycleSeconds:      300,

		DefaultFadeInMs:         2000,
		DefaultFadeOutMs:        2000,
		DefaultAudioCrossfadeMs: 3000,

		HeartbeatBassCenterHz: 60,
		HeartbeatBassQ:        0.7,
		HeartbeatBassGainDb:   12.0,

		TickHz: 30,
	}
}

// FromEnv returns Default() with every field overridden by its matching
// SOULFRAME_* environment variable, when set and parseable. An
// unparseable override is ignored; the default is kept (callers that
// want to be warned should check os.LookupEnv themselves before calling
// this — config itself never logs; pure data types stay silent).
func FromEnv() Config {
	c := Default()

	c.GalleryDir = strOr("SOULFRAME_GALLERY_DIR", c.GalleryDir)

	c.AudioSampleRate = intOr("SOULFRAME_AUDIO_SAMPLE_RATE", c.AudioSampleRate)
	c.AudioChannels = intOr("SOULFRAME_AUDIO_CHANNELS", c.AudioChannels)
	c.AudioBlockSize = intOr("SOULFRAME_AUDIO_BLOCK_SIZE", c.AudioBlockSize)
	c.AudioDeviceName = strOr("SOULFRAME_AUDIO_DEVICE_NAME", c.AudioDeviceName)

	c.VisionShmName = strOr("SOULFRAME_VISION_SHM_NAME", c.VisionShmName)
	c.VisionStaleTimeout = floatOr("SOULFRAME_VISION_STALE_TIMEOUT_S", c.VisionStaleTimeout)

	c.PresenceDistanceCm = floatOr("SOULFRAME_PRESENCE_DISTANCE_CM", c.PresenceDistanceCm)
	c.CloseInteractionDistanceCm = floatOr("SOULFRAME_CLOSE_INTERACTION_DISTANCE_CM", c.CloseInteractionDistanceCm)
	c.PresenceLostTimeoutS = floatOr("SOULFRAME_PRESENCE_LOST_TIMEOUT_S", c.PresenceLostTimeoutS)
	c.IdleFaceLostTimeoutS = floatOr("SOULFRAME_IDLE_FACE_LOST_TIMEOUT_S", c.IdleFaceLostTimeoutS)
	c.GazeDwellMs = intOr("SOULFRAME_GAZE_DWELL_MS", c.GazeDwellMs)
	c.GazeMinConfidence = floatOr("SOULFRAME_GAZE_MIN_CONFIDENCE", c.GazeMinConfidence)
	c.WithdrawGazeAwayTimeoutS = floatOr("SOULFRAME_WITHDRAW_GAZE_AWAY_TIMEOUT_S", c.WithdrawGazeAwayTimeoutS)
	c.WithdrawFadeDurationS = floatOr("SOULFRAME_WITHDRAW_FADE_DURATION_S", c.WithdrawFadeDurationS)
	c.IdleImageCycleSeconds = floatOr("SOULFRAME_IDLE_IMAGE_CYCLE_SECONDS", c.IdleImageCycleSeconds)

	c.DefaultFadeInMs = intOr("SOULFRAME_DEFAULT_FADE_IN_MS", c.DefaultFadeInMs)
	c.DefaultFadeOutMs = intOr("SOULFRAME_DEFAULT_FADE_OUT_MS", c.DefaultFadeOutMs)
	c.DefaultAudioCrossfadeMs = intOr("SOULFRAME_DEFAULT_AUDIO_CROSSFADE_MS", c.DefaultAudioCrossfadeMs)

	c.HeartbeatBassCenterHz = floatOr("SOULFRAME_HEARTBEAT_BASS_CENTER_HZ", c.HeartbeatBassCenterHz)
	c.HeartbeatBassQ = floatOr("SOULFRAME_HEARTBEAT_BASS_Q", c.HeartbeatBassQ)
	c.HeartbeatBassGainDb = floatOr("SOULFRAME_HEARTBEAT_BASS_GAIN_DB", c.HeartbeatBassGainDb)

	c.TickHz = floatOr("SOULFRAME_TICK_HZ", c.TickHz)

	return c
}

func strOr(env, fallback string) string {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return fallback
}

func intOr(env string, fallback int) int {
	if v, ok := os.LookupEnv(env); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func floatOr(env string, fallback float64) float64 {
	if v, ok := os.LookupEnv(env); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
