package main

import (
	"context"
	"flag"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/scene"
	"github.com/abelbrown/cycleglobe/internal/ui"
)

func runTUI() {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	offline := fs.Bool("offline", false, "Skip remote sources and use the local calculation")
	fps := fs.Int("fps", 0, "Frames per second (default from config)")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	if *offline {
		cfg.Offline = true
	}
	if *fps > 0 {
		cfg.Scene.FPS = *fps
	}

	rt := setup(cfg)
	defer rt.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := scene.NewTextureLoader(cfg.SourceTimeout() * 5)

	app := ui.NewAppWithConfig(ui.AppConfig{
		Scene:   scene.New(),
		Resolve: rt.resolver.ResolveReport,
		LoadTextures: func(ctx context.Context) (scene.Texture, scene.Texture, error) {
			return loader.LoadPair(ctx, cfg.Scene.DayMapURL, cfg.Scene.LightsMapURL)
		},
		SourceStats:   rt.store.SourceStats,
		FrameInterval: cfg.FrameInterval(),
		PollInterval:  cfg.PollInterval(),
		Ctx:           ctx,
		Obs: ui.ObsConfig{
			Logger: rt.events,
			Ring:   rt.ring,
		},
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logging.Error("TUI exited with error", "error", err)
		rt.events.Error(otel.KindError, "main", err)
		rt.Close()
		log.Fatalf("Error running program: %v", err)
	}
}
