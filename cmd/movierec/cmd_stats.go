package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	var jsonOutput bool
	var history int
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.IntVar(&history, "history", 5, "Number of past imports to list")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec stats [options]

DESCRIPTION:
    Show statistics about the stored catalog and recent imports.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Show human-readable statistics
    movierec stats

    # JSON output
    movierec stats -json
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}

	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Database %s does not exist. Run 'movierec import' to create it.\n", cfg.Database.Path)
		os.Exit(1)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	stats, err := db.Stats(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read statistics")
	}
	runs, err := store.NewImportStore(db).List(ctx, history)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read import history")
	}

	if jsonOutput {
		if runs == nil {
			runs = []store.ImportRun{}
		}
		printJSON(map[string]any{
			"database":   db.Path(),
			"size_bytes": stats.SizeBytes,
			"movies":     stats.MovieCount,
			"embeddings": stats.EmbeddingCount,
			"metadata":   stats.MetadataCount,
			"dimension":  stats.Dimension,
			"model":      stats.Model,
			"imports":    runs,
		})
		return
	}

	fmt.Println("Catalog Statistics")
	fmt.Println()
	fmt.Printf("Database:   %s (%d bytes)\n", db.Path(), stats.SizeBytes)
	fmt.Printf("Movies:     %6d\n", stats.MovieCount)
	fmt.Printf("Embeddings: %6d\n", stats.EmbeddingCount)
	fmt.Printf("Metadata:   %6d\n", stats.MetadataCount)
	fmt.Printf("Dimension:  %6d\n", stats.Dimension)
	if stats.Model != "" {
		fmt.Printf("Model:      %s\n", stats.Model)
	}

	if len(runs) == 0 {
		fmt.Println("\nNo imports recorded")
		return
	}
	fmt.Println("\nRecent imports:")
	for _, run := range runs {
		fmt.Printf("  %s  %s  %5d movies  %5d metadata  %s\n",
			run.FinishedAt.Local().Format(time.DateTime),
			run.ID[:8],
			run.Movies,
			run.Metadata,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
}
