// Package domain defines the core types shared across every Soul Frame
// subsystem: the vision sample, image/region metadata, interaction
// states, and the command vocabulary the brain coordinator emits.
// domain depends on nothing else in this module.
package domain

// FaceSample is a single snapshot of the vision pipeline's output, as
// carried over the seqlock IPC channel: frame counter, face count,
// distance, normalized gaze, gaze confidence, head pose, and a
// monotonic capture timestamp.
type FaceSample struct {
	FrameCounter  uint32
	NumFaces      uint32
	FaceDistance  float32 // cm
	GazeX         float32 // normalized [0,1]
	GazeY         float32 // normalized [0,1]
	GazeConfidence float32 // [0,1]
	HeadYaw       float32 // radians
	HeadPitch     float32 // radians
	TimestampNs   uint64
}

// FaceDetected reports whether the sample observed at least one face.
func (f FaceSample) FaceDetected() bool { return f.NumFaces > 0 }

// InteractionState is one of the five states the interaction FSM moves
// through.
type InteractionState int

const (
	StateIdle InteractionState = iota
	StatePresence
	StateEngaged
	StateCloseInteraction
	StateWithdrawing
)

func (s InteractionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePresence:
		return "PRESENCE"
	case StateEngaged:
		return "ENGAGED"
	case StateCloseInteraction:
		return "CLOSE_INTERACTION"
	case StateWithdrawing:
		return "WITHDRAWING"
	default:
		return "UNKNOWN"
	}
}

// Point is a normalized (x, y) coordinate in [0,1].
type Point struct {
	X, Y float64
}

// RegionShape describes the geometry of a gaze-hit region. Only
// "polygon" is currently supported.
type RegionShape struct {
	Type             string
	PointsNormalized []Point
}

// GazeTrigger configures the dwell time and confidence threshold that
// activate a region.
type GazeTrigger struct {
	DwellTimeMs    int
	MinConfidence  float64
}

// HeartbeatConfig configures a region's optional heartbeat audio loop.
type HeartbeatConfig struct {
	File           string
	Loop           bool
	BassBoost      bool
	FadeInMs       int
	MinDistanceCm  float64
	MaxDistanceCm  float64
	Curve          string
}

// VisualEffect is a named shader configuration parameterized per
// region (breathing, parallax, kenburns, vignette).
type VisualEffect struct {
	Type     string
	Params   map[string]float64
	Trigger  string
	FadeInMs int
}

// Region is a gaze-hit polygon within an image, with its trigger and
// optional heartbeat/effects.
type Region struct {
	ID           string
	Label        string
	Shape        RegionShape
	GazeTrigger  GazeTrigger
	Heartbeat    *HeartbeatConfig
	VisualEffects []VisualEffect
}

// AmbientAudioConfig configures an image's long-form looping ambient
// audio, volume-modulated by viewer distance.
type AmbientAudioConfig struct {
	File             string
	Loop             bool
	FadeInDistanceCm float64
	FadeInCompleteCm float64
	FadeCurve        string
}

// ImageMetadata is the parsed contents of a package's metadata
// document.
type ImageMetadata struct {
	Version                    int
	ID                         string
	Title                      string
	ImageFilename              string
	ImageWidth                 int
	ImageHeight                int
	Ambient                    *AmbientAudioConfig
	Regions                    []Region
	MinInteractionDistanceCm   float64
	CloseInteractionDistanceCm float64
	FadeInMs                   int
	FadeOutMs                  int
	AudioCrossfadeMs           int
}

// CommandKind tags the kind of a Command. Kinds partition into display,
// audio, and system commands.
type CommandKind int

const (
	// Display commands.
	CmdLoadImage CommandKind = iota
	CmdCrossfadeImage
	CmdSetEffect
	CmdSetEffectIntensity
	CmdSetVignette
	CmdSetParallax

	// Audio commands.
	CmdPlayAmbient
	CmdStopAmbient
	CmdPlayHeartbeat
	CmdStopHeartbeat
	CmdSetVolume
	CmdFadeAll
	CmdStopAll

	// System commands.
	CmdShutdown
)

func (k CommandKind) String() string {
	switch k {
	case CmdLoadImage:
		return "LOAD_IMAGE"
	case CmdCrossfadeImage:
		return "CROSSFADE_IMAGE"
	case CmdSetEffect:
		return "SET_EFFECT"
	case CmdSetEffectIntensity:
		return "SET_EFFECT_INTENSITY"
	case CmdSetVignette:
		return "SET_VIGNETTE"
	case CmdSetParallax:
		return "SET_PARALLAX"
	case CmdPlayAmbient:
		return "PLAY_AMBIENT"
	case CmdStopAmbient:
		return "STOP_AMBIENT"
	case CmdPlayHeartbeat:
		return "PLAY_HEARTBEAT"
	case CmdStopHeartbeat:
		return "STOP_HEARTBEAT"
	case CmdSetVolume:
		return "SET_VOLUME"
	case CmdFadeAll:
		return "FADE_ALL"
	case CmdStopAll:
		return "STOP_ALL"
	case CmdShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// IsAudio reports whether this command kind is routed to the audio
// subsystem.
func (k CommandKind) IsAudio() bool {
	switch k {
	case CmdPlayAmbient, CmdStopAmbient, CmdPlayHeartbeat, CmdStopHeartbeat,
		CmdSetVolume, CmdFadeAll, CmdStopAll:
		return true
	default:
		return false
	}
}

// IsDisplay reports whether this command kind is routed to the display
// subsystem.
func (k CommandKind) IsDisplay() bool {
	switch k {
	case CmdLoadImage, CmdCrossfadeImage, CmdSetEffect, CmdSetEffectIntensity,
		CmdSetVignette, CmdSetParallax:
		return true
	default:
		return false
	}
}

// Command is a tagged record: a kind plus a typed parameter bag. Params
// uses string keys with `any` values; callers should prefer the typed
// helper constructors in this package instead of building the map by
// hand.
type Command struct {
	Kind   CommandKind
	Params map[string]any
}

func newCmd(kind CommandKind, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{Kind: kind, Params: params}
}

// PlayAmbient builds a PLAY_AMBIENT command.
func PlayAmbient(filePath string, fadeMs float64) Command {
	return newCmd(CmdPlayAmbient, map[string]any{"file_path": filePath, "fade_ms": fadeMs})
}

// StopAmbient builds a STOP_AMBIENT command.
func StopAmbient(fadeMs float64) Command {
	return newCmd(CmdStopAmbient, map[string]any{"fade_ms": fadeMs})
}

// PlayHeartbeat builds a PLAY_HEARTBEAT command.
func PlayHeartbeat(regionID, filePath string, bassBoost bool, fadeMs float64) Command {
	return newCmd(CmdPlayHeartbeat, map[string]any{
		"region_id": regionID, "file_path": filePath, "bass_boost": bassBoost, "fade_ms": fadeMs,
	})
}

// StopHeartbeat builds a STOP_HEARTBEAT command.
func StopHeartbeat(regionID string, fadeMs float64) Command {
	return newCmd(CmdStopHeartbeat, map[string]any{"region_id": regionID, "fade_ms": fadeMs})
}

// SetVolume builds a SET_VOLUME command.
func SetVolume(name string, volume float64) Command {
	return newCmd(CmdSetVolume, map[string]any{"name": name, "volume": volume})
}

// FadeAll builds a FADE_ALL command.
func FadeAll(targetVolume, fadeMs float64) Command {
	return newCmd(CmdFadeAll, map[string]any{"target_volume": targetVolume, "fade_ms": fadeMs})
}

// StopAll builds a STOP_ALL command.
func StopAll() Command { return newCmd(CmdStopAll, nil) }

// Shutdown builds a SHUTDOWN command.
func Shutdown() Command { return newCmd(CmdShutdown, nil) }

// LoadImage builds a LOAD_IMAGE command.
func LoadImage(imagePath string) Command {
	return newCmd(CmdLoadImage, map[string]any{"path": imagePath})
}

// CrossfadeImage builds a CROSSFADE_IMAGE command.
func CrossfadeImage(imagePath string, fadeMs float64) Command {
	return newCmd(CmdCrossfadeImage, map[string]any{"path": imagePath, "fade_ms": fadeMs})
}

// SetEffect builds a SET_EFFECT command.
func SetEffect(effect string, intensity float64, fadeMs float64) Command {
	return newCmd(CmdSetEffect, map[string]any{"effect": effect, "intensity": intensity, "fade_ms": fadeMs})
}

// SetEffectIntensity builds a SET_EFFECT_INTENSITY command.
func SetEffectIntensity(effect string, intensity float64) Command {
	return newCmd(CmdSetEffectIntensity, map[string]any{"effect": effect, "intensity": intensity})
}

// SetVignette builds a SET_VIGNETTE command.
func SetVignette(intensity float64) Command {
	return newCmd(CmdSetVignette, map[string]any{"intensity": intensity})
}

// SetParallax builds a SET_PARALLAX command.
func SetParallax(x, y float64) Command {
	return newCmd(CmdSetParallax, map[string]any{"x": x, "y": y})
}
