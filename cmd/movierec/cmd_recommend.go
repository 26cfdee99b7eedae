package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
)

// handleRecommend implements the recommend subcommand
func handleRecommend(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	n := fs.Int("n", cfg.Recommend.DefaultTopN, "Number of recommendations")
	jsonOutput := fs.Bool("json", false, "Output results as JSON")
	posters := fs.Bool("posters", false, "Show poster URLs")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec recommend [options] "<title>"

DESCRIPTION:
    Recommend movies similar to a catalog title. The title must match
    exactly; use 'movierec titles' to look it up. The movie itself is never
    recommended.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    movierec recommend "Avatar"
    movierec recommend -n 10 -json "The Dark Knight Rises"
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: title is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	title := strings.Join(fs.Args(), " ")

	ctx := context.Background()
	rt := mustOpenRuntime(ctx, cfg, *posters || *jsonOutput)
	defer rt.Close()

	resp, err := rt.app.Recommend(ctx, app.RecommendRequest{Title: title, N: *n})
	if err != nil {
		rt.Close()
		exitOnError(err)
	}
	outputRecommendations(resp, *jsonOutput, *posters)
}

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	n := fs.Int("n", cfg.Recommend.DefaultTopN, "Number of results")
	jsonOutput := fs.Bool("json", false, "Output results as JSON")
	posters := fs.Bool("posters", false, "Show poster URLs")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec search [options] "<description>"

DESCRIPTION:
    Find movies matching a free-text description. The description is
    embedded with the configured provider and compared to every movie.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    movierec search "space marines fight aliens"
    movierec search -n 3 -json "romantic comedy in london"
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	ctx := context.Background()
	rt := mustOpenRuntime(ctx, cfg, *posters || *jsonOutput)
	defer rt.Close()

	resp, err := rt.app.Search(ctx, app.SearchRequest{Query: query, N: *n})
	if err != nil {
		rt.Close()
		exitOnError(err)
	}
	outputRecommendations(resp, *jsonOutput, *posters)
}

// outputRecommendations prints a result list as text or JSON
func outputRecommendations(resp *app.RecommendResponse, jsonOutput bool, posters bool) {
	if jsonOutput {
		printJSON(resp)
		return
	}

	if resp.Count == 0 {
		fmt.Println("No results found")
		return
	}

	if resp.Mode == "title" {
		fmt.Printf("Movies like: %s\n\n", resp.Input)
	} else {
		fmt.Printf("Movies matching: %s\n\n", resp.Input)
	}
	for i, r := range resp.Results {
		fmt.Printf("%2d. %-48s %.4f\n", i+1, r.Title, r.Score)
		if posters && r.PosterURL != "" {
			fmt.Printf("    %s\n", r.PosterURL)
		}
	}
}
