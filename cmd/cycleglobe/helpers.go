package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelbrown/cycleglobe/internal/config"
	"github.com/abelbrown/cycleglobe/internal/fetch"
	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/resolve"
	"github.com/abelbrown/cycleglobe/internal/store"
)

// eventLogPath returns the JSONL event log location.
func eventLogPath() string {
	return filepath.Join(config.DataDir(), "cycleglobe.events.jsonl")
}

// loadConfig reads the config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// deps is the wiring shared by every subcommand that resolves cycles.
type deps struct {
	cfg      *config.Config
	fetcher  *fetch.Fetcher
	resolver *resolve.Resolver
	store    *store.Store
	events   *otel.Logger
	ring     *otel.RingBuffer
	eventsF  *os.File
}

// setup opens the ledger and event log and builds the resolver.
// Diagnostic logging goes to the data directory so it never tears the TUI.
func setup(cfg *config.Config) *deps {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	if err := logging.Init(dataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}

	rt := &deps{cfg: cfg, ring: otel.NewRingBuffer(500)}

	f, err := os.OpenFile(eventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("event log unavailable", "error", err)
		rt.events = otel.NewNullLogger()
	} else {
		rt.eventsF = f
		rt.events = otel.NewLogger(f)
	}
	rt.events.SetFileLevel(otel.Level(cfg.LogLevel))
	rt.events.SetRingBuffer(rt.ring)

	// The attempt ledger lives for one run only.
	st, err := store.Open(":memory:")
	if err != nil {
		log.Fatalf("failed to open ledger: %v", err)
	}
	rt.store = st

	sources, err := fetch.BuildSources(cfg.SourceConfigs())
	if err != nil {
		log.Fatalf("invalid sources: %v", err)
	}

	rt.fetcher = fetch.NewFetcher(cfg.SourceTimeout(), cfg.MinGap()).EnableBreakers(0, 0)
	rt.resolver = resolve.New(rt.fetcher, sources,
		resolve.WithSourceTimeout(cfg.SourceTimeout()),
		resolve.WithLogger(rt.events),
		resolve.WithLedger(st, cfg.Poll.LedgerRows),
	)

	rt.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindStartup,
		Comp:  "main",
		Count: len(sources),
		Msg:   fmt.Sprintf("cycleglobe %s", logging.Version),
	})
	return rt
}

// Close flushes the event log and releases the ledger.
func (rt *deps) Close() {
	rt.events.Info(otel.KindShutdown, "main", "shutting down")
	rt.events.Close()
	if rt.eventsF != nil {
		rt.eventsF.Close()
	}
	rt.store.Close()
	logging.Close()
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
