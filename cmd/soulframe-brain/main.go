// soulframe-brain is the installation's brain process: it reads the
// vision seqlock channel, drives the interaction state machine, and
// dispatches display/audio commands at 30 Hz.
//
// Usage:
//
//	soulframe-brain [-verbose] [-gallery DIR] [-no-console]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/soulframe/internal/audio"
	"github.com/hammamikhairi/soulframe/internal/brain"
	"github.com/hammamikhairi/soulframe/internal/config"
	"github.com/hammamikhairi/soulframe/internal/domain"
	"github.com/hammamikhairi/soulframe/internal/gallery"
	"github.com/hammamikhairi/soulframe/internal/ipc"
	"github.com/hammamikhairi/soulframe/internal/logger"
	"github.com/hammamikhairi/soulframe/internal/monitor"
)

// shutdownGrace bounds how long main waits for the coordinator to return
// after cancellation before the process exits regardless.
const shutdownGrace = 5 * time.Second

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	galleryDir := flag.String("gallery", "", "override the image gallery directory")
	noConsole := flag.Bool("no-console", false, "disable the operator console TUI")
	ipcTimeout := flag.Duration("ipc-timeout", 10*time.Second, "how long to wait for the vision process before failing")
	flag.Parse()

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	cfg := config.FromEnv()
	if *galleryDir != "" {
		cfg.GalleryDir = *galleryDir
	}

	// The console TUI owns the terminal, so general logging goes to a
	// file instead of stderr whenever it's enabled.
	var log *logger.Logger
	var logFile *os.File
	if !*noConsole {
		f, err := os.OpenFile("soulframe-brain.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file: %v (falling back to stderr)\n", err)
			log = logger.New(logLevel, os.Stderr)
		} else {
			logFile = f
			log = logger.New(logLevel, f)
		}
	} else {
		log = logger.New(logLevel, os.Stderr)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	vision, err := ipc.WaitForWriter(cfg.VisionShmName, *ipcTimeout, 100*time.Millisecond)
	if err != nil {
		log.Error("vision channel: %v", err)
		os.Exit(1)
	}
	defer vision.Close()

	gal := gallery.New(cfg.GalleryDir, cfg, log.With("gallery"))
	if gal.Scan() == 0 {
		log.Error("no image packages found under %s", cfg.GalleryDir)
		os.Exit(1)
	}

	mixer := audio.NewMixer(log.With("mixer"))
	dispatcher := audio.NewDispatcher(mixer, cfg, log.With("audio"))

	device, err := audio.OpenDevice(mixer, cfg.AudioSampleRate, cfg.AudioChannels, cfg.AudioBlockSize, cfg.AudioDeviceName, log.With("device"))
	if err != nil {
		log.Error("audio device: %v", err)
		os.Exit(1)
	}
	defer device.Close()

	go dispatcher.Run(ctx)

	var displaySink domain.CommandSink
	var console *monitor.Console
	if !*noConsole {
		console = monitor.New()
		displaySink = console
	} else {
		monitor.PrintBanner(os.Stderr)
		displaySink = domain.CommandSinkFunc(func(cmd domain.Command) error {
			log.Debug("display: %s", cmd.Kind)
			return nil
		})
	}

	coordinator := brain.New(cfg, log.With("brain"), vision, displaySink, dispatcher, gal,
		brain.WithWatch(brain.ProcessWatch{Name: "audio-dispatcher", Done: dispatcher.Done()}),
	)

	coordDone := make(chan error, 1)
	go func() { coordDone <- coordinator.Run(ctx) }()

	if console != nil {
		go func() {
			if err := console.Run(); err != nil {
				log.Error("console: %v", err)
			}
			cancel()
		}()
	}

	select {
	case err := <-coordDone:
		if err != nil {
			log.Error("coordinator exited: %v", err)
		}
	case <-ctx.Done():
		select {
		case <-coordDone:
		case <-time.After(shutdownGrace):
			log.Warn("coordinator did not exit within %s, forcing shutdown", shutdownGrace)
		}
	}

	if console != nil {
		console.Quit()
	}
}
