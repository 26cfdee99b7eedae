package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DreamCats/movierec/cmd/movierec/internal"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/mcpserver"
)

// handleMCP implements the MCP stdio server subcommand
func handleMCP(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec mcp

DESCRIPTION:
    Run an MCP stdio server exposing:
      - movie_recommend
      - movie_search
      - movie_titles
      - movie_details
      - movie_status
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := mustOpenRuntime(ctx, cfg, true)
	defer rt.Close()

	server := mcpserver.New(rt.app, rt.db, internal.Version)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		rt.Close()
		logging.Fatal().Err(err).Msg("MCP server failed")
	}
}
