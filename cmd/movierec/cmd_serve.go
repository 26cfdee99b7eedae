package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/server"
)

// handleServe implements the serve subcommand
func handleServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "Listen address")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec serve [options]

DESCRIPTION:
    Serve the JSON HTTP API:
      GET  /api/v1/health
      GET  /api/v1/titles?q=&limit=
      GET  /api/v1/recommend?title=&n=
      POST /api/v1/search        {"query": "...", "n": 5}
      GET  /api/v1/movies/{id}
      GET  /api/v1/movies/{id}/similar?n=
      GET  /metrics

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := mustOpenRuntime(ctx, cfg, true)
	defer rt.Close()

	serverCfg := cfg.Server
	serverCfg.Addr = *addr
	if err := server.New(rt.app, serverCfg).Run(ctx); err != nil {
		rt.Close()
		logging.Fatal().Err(err).Msg("HTTP server failed")
	}
}
