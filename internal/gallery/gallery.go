// Package gallery scans, parses, and cycles through image packages on
// disk. Each package is a directory holding a metadata.json, an image
// file, and an audio/ subdirectory.
package gallery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hammamikhairi/soulframe/internal/config"
	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/logger"
)

// Manager scans a gallery root for image packages and exposes
// wrap-around navigation through them. Not safe for concurrent use; the
// brain coordinator owns it exclusively.
type Manager struct {
	root       string
	log        *logger.Logger
	defaults   config.Config
	images     []domain.ImageMetadata
	imageDirs  []string
	index      int
}

// New builds a gallery manager rooted at dir.
func New(dir string, defaults config.Config, log *logger.Logger) *Manager {
	return &Manager{root: dir, log: log, defaults: defaults}
}

// Scan (re)populates the playlist from disk, returning the number of
// loadable packages found. Invalid packages are logged and skipped; the
// scan itself never fails.
func (m *Manager) Scan() int {
	m.images = nil
	m.imageDirs = nil
	m.index = 0

	entries, err := os.ReadDir(m.root)
	if err != nil {
		m.log.Warn("gallery directory does not exist: %s", m.root)
		return 0
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
		}
	}
	sort.Strings(subdirs)

	for _, name := range subdirs {
		dir := filepath.Join(m.root, name)
		metaPath := filepath.Join(dir, "metadata.json")
		if stat, err := os.Stat(metaPath); err != nil || stat.IsDir() {
			m.log.Debug("skipping %s — no metadata.json", name)
			continue
		}

		meta, err := m.parseMetadata(metaPath, name)
		if err != nil {
			m.log.Warn("failed to parse metadata for %s: %v", name, err)
			continue
		}

		imagePath, err := resolveWithin(dir, meta.ImageFilename)
		if err != nil {
			m.log.Warn("skipping %s — image path escapes package dir: %s", name, meta.ImageFilename)
			continue
		}
		if st, err := os.Stat(imagePath); err != nil || st.IsDir() {
			m.log.Warn("skipping %s — image file %q not found", name, meta.ImageFilename)
			continue
		}

		m.images = append(m.images, meta)
		m.imageDirs = append(m.imageDirs, dir)
		m.log.Info("loaded image package: %s", name)
	}

	m.log.Info("gallery scan complete: %d image(s) found", len(m.images))
	return len(m.images)
}

// Count returns the number of loaded packages.
func (m *Manager) Count() int { return len(m.images) }

// Current returns the image at the current cursor, or (zero, false) if
// the gallery is empty.
func (m *Manager) Current() (domain.ImageMetadata, bool) {
	if len(m.images) == 0 {
		return domain.ImageMetadata{}, false
	}
	return m.images[m.index], true
}

// CurrentDir returns the package directory at the current cursor.
func (m *Manager) CurrentDir() (string, bool) {
	if len(m.imageDirs) == 0 {
		return "", false
	}
	return m.imageDirs[m.index], true
}

// Next advances the cursor (wrap-around) and returns the new image.
func (m *Manager) Next() (domain.ImageMetadata, bool) {
	if len(m.images) == 0 {
		return domain.ImageMetadata{}, false
	}
	m.index = (m.index + 1) % len(m.images)
	img := m.images[m.index]
	m.log.Info("advanced to image %d/%d: %s", m.index+1, len(m.images), img.Title)
	return img, true
}

// Prev rewinds the cursor (wrap-around) and returns the new image.
func (m *Manager) Prev() (domain.ImageMetadata, bool) {
	if len(m.images) == 0 {
		return domain.ImageMetadata{}, false
	}
	m.index = (m.index - 1 + len(m.images)) % len(m.images)
	img := m.images[m.index]
	m.log.Info("rewound to image %d/%d: %s", m.index+1, len(m.images), img.Title)
	return img, true
}

// ImagePath returns the resolved, package-relative image file path for
// the current image.
func (m *Manager) ImagePath() (string, bool) {
	img, ok := m.Current()
	dir, ok2 := m.CurrentDir()
	if !ok || !ok2 {
		return "", false
	}
	resolved, err := resolveWithin(dir, img.ImageFilename)
	if err != nil {
		m.log.Warn("image path escapes package dir: %s", img.ImageFilename)
		return "", false
	}
	return resolved, true
}

// AudioPath resolves a package-relative audio path (e.g. from an
// AmbientAudioConfig.File or HeartbeatConfig.File) against the current
// package directory.
func (m *Manager) AudioPath(relative string) (string, bool) {
	dir, ok := m.CurrentDir()
	if !ok {
		return "", false
	}
	resolved, err := resolveWithin(dir, relative)
	if err != nil {
		m.log.Warn("audio path escapes package dir: %s", relative)
		return "", false
	}
	return resolved, true
}

// resolveWithin resolves rel against dir and rejects any result that
// escapes dir through ../ traversal, using a string-prefix check against
// the absolute parent. Symlinks are not resolved, so a symlink inside dir
// that points outside it is not detected.
func resolveWithin(dir, rel string) (string, error) {
	resolvedDir, err := filepath.Abs(dir)
	if err != nil {
		return "", domain.ErrPathEscape
	}
	joined := filepath.Join(resolvedDir, rel)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", domain.ErrPathEscape
	}
	if resolved != resolvedDir && !strings.HasPrefix(resolved, resolvedDir+string(filepath.Separator)) {
		return "", domain.ErrPathEscape
	}
	return resolved, nil
}

// --- metadata.json parsing ---------------------------------------------

type rawMetadata struct {
	Version     int             `json:"version"`
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Image       json.RawMessage `json:"image"`
	Audio       json.RawMessage `json:"audio"`
	Regions     []json.RawMessage `json:"regions"`
	Interaction json.RawMessage `json:"interaction"`
	Transitions json.RawMessage `json:"transitions"`
}

type rawImage struct {
	Filename string `json:"filename"`
	Width    any    `json:"width"`
	Height   any    `json:"height"`
}

type rawAudio struct {
	Ambient *rawAmbient `json:"ambient"`
}

type rawAmbient struct {
	File             string `json:"file"`
	Loop             *bool  `json:"loop"`
	FadeInDistanceCm any    `json:"fade_in_distance_cm"`
	FadeInCompleteCm any    `json:"fade_in_complete_cm"`
	FadeCurve        string `json:"fade_curve"`
}

type rawRegion struct {
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	Shape         *rawShape         `json:"shape"`
	GazeTrigger   *rawGazeTrigger   `json:"gaze_trigger"`
	Heartbeat     *rawHeartbeat     `json:"heartbeat"`
	VisualEffects []rawVisualEffect `json:"visual_effects"`
}

type rawShape struct {
	Type             string     `json:"type"`
	PointsNormalized [][]any    `json:"points_normalized"`
}

type rawGazeTrigger struct {
	DwellTimeMs  any `json:"dwell_time_ms"`
	MinConfidence any `json:"min_confidence"`
}

type rawHeartbeat struct {
	File               string             `json:"file"`
	Loop               *bool              `json:"loop"`
	BassBoost          *bool              `json:"bass_boost"`
	FadeInMs           any                `json:"fade_in_ms"`
	IntensityByDistance *rawIntensityDist `json:"intensity_by_distance"`
}

type rawIntensityDist struct {
	MinDistanceCm any    `json:"min_distance_cm"`
	MaxDistanceCm any    `json:"max_distance_cm"`
	Curve         string `json:"curve"`
}

type rawVisualEffect struct {
	Type     string         `json:"type"`
	Params   map[string]any `json:"params"`
	Trigger  string         `json:"trigger"`
	FadeInMs any            `json:"fade_in_ms"`
}

type rawInteraction struct {
	MinInteractionDistanceCm   any `json:"min_interaction_distance_cm"`
	CloseInteractionDistanceCm any `json:"close_interaction_distance_cm"`
}

type rawTransitions struct {
	FadeInMs           any `json:"fade_in_ms"`
	FadeOutMs          any `json:"fade_out_ms"`
	AudioCrossfadeMs   any `json:"audio_crossfade_ms"`
}

// parseMetadata parses a package's metadata.json into an ImageMetadata,
// applying the same defaulting/coercion rules as the reference parser:
// missing fields fall back to defaults, invalid numerics fall back to
// defaults silently (no warning is logged), malformed polygon points are
// dropped with a warning, and
// region ids are synthesized/deduplicated.
func (m *Manager) parseMetadata(path, dirName string) (domain.ImageMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageMetadata{}, err
	}
	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ImageMetadata{}, domain.ErrMetadataInvalid
	}

	var img rawImage
	if len(raw.Image) > 0 {
		json.Unmarshal(raw.Image, &img)
	}
	var audio rawAudio
	if len(raw.Audio) > 0 {
		json.Unmarshal(raw.Audio, &audio)
	}
	var interaction rawInteraction
	if len(raw.Interaction) > 0 {
		json.Unmarshal(raw.Interaction, &interaction)
	}
	var transitions rawTransitions
	if len(raw.Transitions) > 0 {
		json.Unmarshal(raw.Transitions, &transitions)
	}

	regions := make([]domain.Region, 0, len(raw.Regions))
	seenIDs := make(map[string]bool)
	for i, rawR := range raw.Regions {
		var r rawRegion
		if err := json.Unmarshal(rawR, &r); err != nil {
			m.log.Warn("skipping malformed region entry %d in %s", i, dirName)
			continue
		}
		regions = append(regions, m.parseRegion(r, i, seenIDs, dirName))
	}

	var ambient *domain.AmbientAudioConfig
	if audio.Ambient != nil && audio.Ambient.File != "" {
		ambient = &domain.AmbientAudioConfig{
			File:             audio.Ambient.File,
			Loop:             boolOr(audio.Ambient.Loop, true),
			FadeInDistanceCm: safeFloat(audio.Ambient.FadeInDistanceCm, 200.0),
			FadeInCompleteCm: safeFloat(audio.Ambient.FadeInCompleteCm, 100.0),
			FadeCurve:        strOr(audio.Ambient.FadeCurve, "ease_in_out"),
		}
	}

	id := raw.ID
	if id == "" {
		id = dirName
	}
	filename := img.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	version := raw.Version
	if version == 0 {
		version = 1
	}

	return domain.ImageMetadata{
		Version:                    version,
		ID:                         id,
		Title:                      raw.Title,
		ImageFilename:              filename,
		ImageWidth:                 safeInt(img.Width, 1920),
		ImageHeight:                safeInt(img.Height, 1080),
		Ambient:                    ambient,
		Regions:                    regions,
		MinInteractionDistanceCm:   safeFloat(interaction.MinInteractionDistanceCm, m.defaults.PresenceDistanceCm),
		CloseInteractionDistanceCm: safeFloat(interaction.CloseInteractionDistanceCm, m.defaults.CloseInteractionDistanceCm),
		FadeInMs:                   safeInt(transitions.FadeInMs, m.defaults.DefaultFadeInMs),
		FadeOutMs:                  safeInt(transitions.FadeOutMs, m.defaults.DefaultFadeOutMs),
		AudioCrossfadeMs:           safeInt(transitions.AudioCrossfadeMs, m.defaults.DefaultAudioCrossfadeMs),
	}, nil
}

func (m *Manager) parseRegion(r rawRegion, index int, seenIDs map[string]bool, dirName string) domain.Region {
	shape := domain.RegionShape{Type: "polygon"}
	if r.Shape != nil {
		if r.Shape.Type != "" {
			shape.Type = r.Shape.Type
		}
		for _, pt := range r.Shape.PointsNormalized {
			if len(pt) != 2 {
				m.log.Warn("skipping malformed polygon point in %s", dirName)
				continue
			}
			x, xok := asFloat(pt[0])
			y, yok := asFloat(pt[1])
			if !xok || !yok {
				m.log.Warn("skipping invalid polygon point in %s", dirName)
				continue
			}
			shape.PointsNormalized = append(shape.PointsNormalized, domain.Point{X: x, Y: y})
		}
	}

	gazeTrigger := domain.GazeTrigger{DwellTimeMs: m.defaults.GazeDwellMs, MinConfidence: m.defaults.GazeMinConfidence}
	if r.GazeTrigger != nil {
		gazeTrigger.DwellTimeMs = safeInt(r.GazeTrigger.DwellTimeMs, m.defaults.GazeDwellMs)
		gazeTrigger.MinConfidence = safeFloat(r.GazeTrigger.MinConfidence, m.defaults.GazeMinConfidence)
	}

	var heartbeat *domain.HeartbeatConfig
	if r.Heartbeat != nil && r.Heartbeat.File != "" {
		hb := &domain.HeartbeatConfig{
			File:      r.Heartbeat.File,
			Loop:      boolOr(r.Heartbeat.Loop, true),
			BassBoost: boolOr(r.Heartbeat.BassBoost, true),
			FadeInMs:  safeInt(r.Heartbeat.FadeInMs, 2000),
			MinDistanceCm: 30.0,
			MaxDistanceCm: 150.0,
			Curve:         "exponential",
		}
		if d := r.Heartbeat.IntensityByDistance; d != nil {
			hb.MinDistanceCm = safeFloat(d.MinDistanceCm, 30.0)
			hb.MaxDistanceCm = safeFloat(d.MaxDistanceCm, 150.0)
			hb.Curve = strOr(d.Curve, "exponential")
		}
		heartbeat = hb
	}

	var effects []domain.VisualEffect
	for _, ve := range r.VisualEffects {
		var params map[string]float64
		if len(ve.Params) > 0 {
			params = make(map[string]float64, len(ve.Params))
			for k, v := range ve.Params {
				if f, ok := asFloat(v); ok {
					params[k] = f
				}
			}
		}
		effects = append(effects, domain.VisualEffect{
			Type:     strOr(ve.Type, "breathing"),
			Params:   params,
			Trigger:  strOr(ve.Trigger, "on_gaze_dwell"),
			FadeInMs: safeInt(ve.FadeInMs, 3000),
		})
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = "region_" + strconv.Itoa(index)
	}
	if seenIDs[id] {
		base := id
		suffix := 1
		for seenIDs[base+"_"+strconv.Itoa(suffix)] {
			suffix++
		}
		id = base + "_" + strconv.Itoa(suffix)
	}
	seenIDs[id] = true

	return domain.Region{
		ID:            id,
		Label:         r.Label,
		Shape:         shape,
		GazeTrigger:   gazeTrigger,
		Heartbeat:     heartbeat,
		VisualEffects: effects,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func strOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func safeInt(v any, fallback int) int {
	switch n := v.(type) {
	case nil:
		return fallback
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
		return fallback
	default:
		return fallback
	}
}

func safeFloat(v any, fallback float64) float64 {
	f, ok := asFloat(v)
	if !ok {
		return fallback
	}
	return f
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
