package main

import (
	"embed"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/gopxl/beep/speaker"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/agentloco/internal/application/game"
	"github.com/younwookim/agentloco/internal/application/scene/sandbox"
	"github.com/younwookim/agentloco/internal/infrastructure/audio"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

//go:embed configs/*
var configFS embed.FS

func main() {
	configDir := flag.String("config", "", "Config directory to load and watch (default: built-in configs)")
	recordPath := flag.String("record", "", "Record owner input to file (e.g., -record replay.json)")
	logLevel := flag.String("log", "info", "Log level: debug, info, warn, error")
	mute := flag.Bool("mute", false, "Disable loop cues")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	// Built-in configs, or a directory on disk with hot reload
	var (
		loader  *config.Loader
		reloads <-chan string
	)
	if *configDir == "" {
		fsys, err := fs.Sub(configFS, "configs")
		if err != nil {
			log.Fatalf("Failed to get config subfs: %v", err)
		}
		loader = config.NewFSLoader(fsys, "configs")
	} else {
		loader = config.NewLoader(*configDir)
		watcher, err := config.NewWatcher(*configDir)
		if err != nil {
			log.Fatalf("Failed to watch %s: %v", *configDir, err)
		}
		defer func() { _ = watcher.Close() }()
		reloads = watcher.Events
		go func() {
			for err := range watcher.Errors {
				logger.Warn("config watcher error", "error", err)
			}
		}()
	}

	var cues *audio.Cues
	if !*mute {
		cues = audio.NewCues(audio.SampleRate, logger)
		if err := speaker.Init(audio.SampleRate, audio.SampleRate.N(time.Second/10)); err != nil {
			// Non-fatal, the sandbox runs without sound
			logger.Warn("audio initialization failed", "error", err)
			cues = nil
		} else {
			speaker.Play(cues)
			defer speaker.Close()
		}
	}

	sb, err := sandbox.New(loader, sandbox.Options{
		Logger:     logger,
		Cues:       cues,
		RecordPath: *recordPath,
		Reloads:    reloads,
	})
	if err != nil {
		log.Fatalf("Failed to start sandbox: %v", err)
	}

	screenW, screenH := sb.Layout()
	framerate := sb.Framerate()
	g := game.New(sb, screenW, screenH, framerate)
	defer g.Close()

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("Agent Locomotion Sandbox")
	ebiten.SetTPS(framerate)

	if err := ebiten.RunGame(g); err != nil {
		logger.Error("sandbox stopped", "error", err)
	}
}
