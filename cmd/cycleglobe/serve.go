package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/cycleglobe/internal/coord"
	"github.com/abelbrown/cycleglobe/internal/logging"
	"github.com/abelbrown/cycleglobe/internal/otel"
	"github.com/abelbrown/cycleglobe/internal/resolve"
	"github.com/abelbrown/cycleglobe/internal/server"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from config)")
	offline := fs.Bool("offline", false, "Skip remote sources and use the local calculation")
	verbose := fs.Bool("v", false, "Mirror the log on stderr at debug level")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *offline {
		cfg.Offline = true
	}

	rt := setup(cfg)
	defer rt.Close()
	if *verbose {
		logging.AlsoTo(os.Stderr, log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server publishes what the coordinator resolves, and the
	// coordinator answers the server's fresh polls.
	var srv *server.Server
	c := coord.NewCoordinator(rt.resolver, cfg.PollInterval(),
		coord.WithLogger(rt.events),
		// Every source may use its whole timeout before the local fallback.
		coord.WithPollTimeout(time.Duration(len(rt.resolver.Sources())+1)*cfg.SourceTimeout()),
		coord.OnUpdate(func(rep resolve.Report) { srv.Publish(rep) }),
	)
	srv = server.New(c, server.Options{
		Sources:      rt.resolver.Sources(),
		SourceStats:  rt.store.SourceStats,
		BreakerState: rt.fetcher.BreakerState,
		Ping:         rt.store.Ping,
		MaxClients:   cfg.Serve.MaxClients,
		Logger:       rt.events,
	})

	if err := server.Run(ctx, cfg.Serve.Addr, srv, c); err != nil {
		logging.Error("Server stopped", "error", err)
		rt.events.Error(otel.KindError, "main", err)
		rt.Close()
		os.Exit(1)
	}
}
