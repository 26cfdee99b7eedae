package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/dataset"
	"github.com/DreamCats/movierec/internal/embedding"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// handleImport implements the import subcommand
func handleImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	moviesFile := fs.String("movies", cfg.Dataset.MoviesFile, "CSV file with movie_id,title,tags")
	metadataGlob := fs.String("metadata", cfg.Dataset.MetadataGlob, "Glob of TMDB metadata CSV files (supports **)")
	noProgress := fs.Bool("no-progress", false, "Disable the progress bar")
	jsonOutput := fs.Bool("json", false, "Output the import run as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec import [options]

DESCRIPTION:
    Rebuild the catalog from CSV files.
    This will:
      1. Read movies (movie_id, title, tags) in file order
      2. Read and merge TMDB metadata files
      3. Embed every movie's tags with the configured provider
      4. Replace the stored catalog in one transaction

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Import using dataset.* from the config file
    movierec import

    # Import explicit files
    movierec import -movies data/movies.csv -metadata "data/**/tmdb_*_movies.csv"
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	if *moviesFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -movies (or dataset.movies_file) is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create encoder")
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	progress := dataset.NewProgress(!*noProgress && !*jsonOutput && dataset.DefaultProgressEnabled())
	importer := dataset.NewImporter(db, encoder, progress)

	logging.Info().
		Str("movies", *moviesFile).
		Str("metadata", *metadataGlob).
		Str("provider", encoder.Provider()).
		Str("model", encoder.Model()).
		Msg("Starting import")

	run, err := importer.Run(ctx, dataset.Options{MoviesFile: *moviesFile, MetadataGlob: *metadataGlob})
	if err != nil {
		db.Close()
		exitOnError(err)
	}

	if *jsonOutput {
		printJSON(run)
		return
	}

	fmt.Println()
	fmt.Println("Import completed")
	fmt.Printf("\nDuration:   %v\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Printf("Run:        %s\n", run.ID)
	fmt.Printf("Movies:     %6d\n", run.Movies)
	fmt.Printf("Metadata:   %6d\n", run.Metadata)
	fmt.Printf("Dimension:  %6d\n", run.Dimension)
	fmt.Printf("Model:      %s\n", run.Model)
	fmt.Printf("Database:   %s\n", db.Path())
}
