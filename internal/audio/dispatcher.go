package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/soulframe/internal/config"
	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/logger"
)

// queuePollInterval is how long the dispatcher loop blocks on the
// command channel between passes.
const queuePollInterval = 50 * time.Millisecond

const (
	defaultFadeInMs  = 500.0
	defaultFadeOutMs = 800.0
)

// streamKey identifies a cached, decoded Stream by its source file and
// whether bass boost was baked in at load time — loading is the
// expensive step, so two commands referencing the same file and boost
// setting reuse one decode.
type streamKey struct {
	path      string
	bassBoost bool
}

// Dispatcher is the audio command loop: it owns the mixer, a decode
// cache, and the command channel. Resolves ambient/heartbeat stream
// names and maps each domain.Command to mixer operations.
type Dispatcher struct {
	mixer  *Mixer
	log    *logger.Logger
	cfg    config.Config
	cache  map[streamKey]*Stream
	cmdCh  chan domain.Command
	doneCh chan struct{}
}

var _ domain.CommandSink = (*Dispatcher)(nil)

// NewDispatcher builds a dispatcher around mixer with a buffered
// command channel.
func NewDispatcher(mixer *Mixer, cfg config.Config, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		mixer:  mixer,
		log:    log,
		cfg:    cfg,
		cache:  make(map[streamKey]*Stream),
		cmdCh:  make(chan domain.Command, 64),
		doneCh: make(chan struct{}),
	}
}

// Send enqueues a command for the dispatcher loop. Implements
// domain.CommandSink so the brain coordinator depends only on the
// interface.
func (d *Dispatcher) Send(cmd domain.Command) error {
	select {
	case d.cmdCh <- cmd:
		return nil
	default:
		return fmt.Errorf("audio: command queue full, dropping %s", cmd.Kind)
	}
}

// Run blocks, draining commands and sweeping inactive streams, until
// ctx is canceled or a SHUTDOWN command is handled. The real-time
// device callback (see device.go) calls Mix independently and never
// goes through this loop.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.doneCh)
	ticker := time.NewTicker(queuePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.cmdCh:
			if !d.handle(cmd) {
				return
			}
			d.mixer.RemoveInactive()
		case <-ticker.C:
			d.mixer.RemoveInactive()
		}
	}
}

// Done returns a channel closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.doneCh }

// handle processes one command, returning false only for SHUTDOWN.
func (d *Dispatcher) handle(cmd domain.Command) bool {
	switch cmd.Kind {
	case domain.CmdPlayAmbient:
		d.playAmbient(cmd)
	case domain.CmdStopAmbient:
		d.stopAmbient(cmd)
	case domain.CmdPlayHeartbeat:
		d.playHeartbeat(cmd)
	case domain.CmdStopHeartbeat:
		d.stopHeartbeat(cmd)
	case domain.CmdSetVolume:
		d.setVolume(cmd)
	case domain.CmdFadeAll:
		d.fadeAll(cmd)
	case domain.CmdStopAll:
		d.stopAll()
	case domain.CmdShutdown:
		d.stopAll()
		if d.log != nil {
			d.log.Info("shutdown command received")
		}
		return false
	default:
		if d.log != nil {
			d.log.Warn("unhandled command kind in audio dispatcher: %s", cmd.Kind)
		}
	}
	return true
}

func paramStr(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramFloat(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func paramBool(params map[string]any, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func (d *Dispatcher) playAmbient(cmd domain.Command) {
	filePath := paramStr(cmd.Params, "file_path")
	if filePath == "" {
		if d.log != nil {
			d.log.Error("PLAY_AMBIENT missing file_path param")
		}
		return
	}
	fadeMs := paramFloat(cmd.Params, "fade_ms", defaultFadeInMs)
	stream, err := d.getOrCreate(filePath, true, false)
	if err != nil {
		if d.log != nil {
			d.log.Error("PLAY_AMBIENT: %v", err)
		}
		return
	}
	stream.SetVolume(0)
	d.mixer.AddStream("ambient", stream)
	stream.SetFade(1.0, fadeMs)
	if d.log != nil {
		d.log.Info("playing ambient: %s", filePath)
	}
}

func (d *Dispatcher) stopAmbient(cmd domain.Command) {
	fadeMs := paramFloat(cmd.Params, "fade_ms", defaultFadeOutMs)
	if err := d.mixer.SetStreamFade("ambient", 0, fadeMs); err == nil && d.log != nil {
		d.log.Info("fading out ambient")
	}
}

func (d *Dispatcher) playHeartbeat(cmd domain.Command) {
	filePath := paramStr(cmd.Params, "file_path")
	regionID := paramStr(cmd.Params, "region_id")
	if regionID == "" {
		regionID = "default"
	}
	if filePath == "" {
		if d.log != nil {
			d.log.Error("PLAY_HEARTBEAT missing file_path param")
		}
		return
	}
	fadeMs := paramFloat(cmd.Params, "fade_ms", defaultFadeInMs)
	bassBoost := paramBool(cmd.Params, "bass_boost", true)
	streamName := "heartbeat_" + regionID
	stream, err := d.getOrCreate(filePath, true, bassBoost)
	if err != nil {
		if d.log != nil {
			d.log.Error("PLAY_HEARTBEAT: %v", err)
		}
		return
	}
	stream.SetVolume(0)
	d.mixer.AddStream(streamName, stream)
	stream.SetFade(1.0, fadeMs)
	if d.log != nil {
		d.log.Info("playing heartbeat %q: %s", streamName, filePath)
	}
}

func (d *Dispatcher) stopHeartbeat(cmd domain.Command) {
	regionID := paramStr(cmd.Params, "region_id")
	if regionID == "" {
		regionID = "default"
	}
	fadeMs := paramFloat(cmd.Params, "fade_ms", defaultFadeOutMs)
	streamName := "heartbeat_" + regionID
	if err := d.mixer.SetStreamFade(streamName, 0, fadeMs); err == nil && d.log != nil {
		d.log.Info("fading out heartbeat %q", streamName)
	}
}

func (d *Dispatcher) setVolume(cmd domain.Command) {
	name := paramStr(cmd.Params, "name")
	volume := paramFloat(cmd.Params, "volume", 1.0)
	if err := d.mixer.SetStreamVolume(name, volume); err != nil {
		if d.log != nil {
			d.log.Warn("SET_VOLUME: stream %q not found", name)
		}
		return
	}
	if d.log != nil {
		d.log.Debug("set volume of %q to %.2f", name, volume)
	}
}

func (d *Dispatcher) fadeAll(cmd domain.Command) {
	target := paramFloat(cmd.Params, "target_volume", 0.0)
	fadeMs := paramFloat(cmd.Params, "fade_ms", defaultFadeOutMs)
	d.mixer.FadeAll(target, fadeMs)
	if d.log != nil {
		d.log.Info("fading all streams to %.2f over %.0f ms", target, fadeMs)
	}
}

func (d *Dispatcher) stopAll() {
	d.mixer.StopAll()
	d.cache = make(map[streamKey]*Stream)
	if d.log != nil {
		d.log.Info("all streams stopped")
	}
}

// getOrCreate returns a cached stream for (path, bassBoost), resetting
// its playback cursor on reuse instead of re-decoding the file.
func (d *Dispatcher) getOrCreate(path string, loop, bassBoost bool) (*Stream, error) {
	key := streamKey{path: path, bassBoost: bassBoost}
	if cached, ok := d.cache[key]; ok {
		cached.Reset()
		return cached, nil
	}
	stream, err := LoadStream(path, LoadStreamOptions{
		Loop:             loop,
		BassBoost:        bassBoost,
		BassCenterHz:     d.cfg.HeartbeatBassCenterHz,
		BassQ:            d.cfg.HeartbeatBassQ,
		BassGainDb:       d.cfg.HeartbeatBassGainDb,
		OutputSampleRate: d.cfg.AudioSampleRate,
	}, d.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrAudioLoadFailed, path, err)
	}
	d.cache[key] = stream
	return stream, nil
}
