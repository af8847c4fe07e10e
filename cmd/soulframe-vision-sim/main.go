// soulframe-vision-sim is a synthetic vision writer for development and
// testing: it publishes a sweeping, fabricated face sample over the
// seqlock channel so the brain process can run without a real camera
// and face-tracking pipeline. It is not a vision pipeline — it exists
// only to exercise the IPC channel and the brain's state machine.
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/ipc"
	"github.com/hammamikhairi/soulframe/internal/logger"
)

func main() {
	shmName := flag.String("shm-name", ipc.DefaultSegmentName, "shared-memory segment name")
	hz := flag.Float64("hz", 30, "publish rate in Hz")
	periodS := flag.Float64("period", 20, "seconds for one full near/far/gaze sweep")
	flag.Parse()

	log := logger.New(logger.LevelNormal, os.Stderr)

	writer, err := ipc.NewWriter(*shmName)
	if err != nil {
		log.Error("create segment %q: %v", *shmName, err)
		os.Exit(1)
	}
	defer writer.Close()

	log.Info("publishing synthetic face samples on %q at %.0f Hz", *shmName, *hz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / *hz))
	defer ticker.Stop()

	start := time.Now()
	var frame uint32

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			frame++
			writer.Write(syntheticSample(frame, t, *periodS))
		}
	}
}

// syntheticSample sweeps distance from far to near and back over
// periodS seconds, and orbits the normalized gaze point around the
// frame center, so a developer watching the operator console sees the
// full IDLE -> PRESENCE -> ENGAGED -> CLOSE_INTERACTION -> WITHDRAWING
// cycle play out.
func syntheticSample(frame uint32, t, periodS float64) domain.FaceSample {
	phase := math.Mod(t, periodS) / periodS // [0,1)

	// Triangle wave: 0 -> 1 -> 0 over one period, so distance sweeps
	// far -> near -> far.
	tri := 1 - math.Abs(2*phase-1)
	distanceCm := float32(400 - tri*380) // ~400cm down to ~20cm

	angle := t * 0.5
	gazeX := float32(0.5 + 0.15*math.Cos(angle))
	gazeY := float32(0.5 + 0.15*math.Sin(angle))

	return domain.FaceSample{
		FrameCounter:   frame,
		NumFaces:       1,
		FaceDistance:   distanceCm,
		GazeX:          gazeX,
		GazeY:          gazeY,
		GazeConfidence: 0.9,
		HeadYaw:        0,
		HeadPitch:      0,
		TimestampNs:    uint64(time.Now().UnixNano()),
	}
}
