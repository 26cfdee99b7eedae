package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
)

// handleMovie implements the movie subcommand
func handleMovie(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("movie", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	similar := fs.Int("similar", 0, "Also list this many similar movies")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec movie [options] <movie_id>

DESCRIPTION:
    Show the metadata and poster of a movie.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    movierec movie 19995
    movierec movie -similar 5 -json 19995
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one movie id is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid movie id %q\n", fs.Arg(0))
		os.Exit(2)
	}

	ctx := context.Background()
	rt := mustOpenRuntime(ctx, cfg, true)
	defer rt.Close()

	details, err := rt.app.Details(ctx, id)
	if err != nil {
		rt.Close()
		exitOnError(err)
	}

	var similarResp *app.RecommendResponse
	if *similar > 0 {
		similarResp, err = rt.app.Similar(ctx, id, *similar)
		if err != nil {
			rt.Close()
			exitOnError(err)
		}
	}

	if *jsonOutput {
		out := map[string]any{"movie": details}
		if similarResp != nil {
			out["similar"] = similarResp
		}
		printJSON(out)
		return
	}

	fmt.Printf("%s (%d)\n", details.Title, details.MovieID)
	if details.Tagline != "" {
		fmt.Printf("  %q\n", details.Tagline)
	}
	fmt.Println()
	printField("Released", details.ReleaseDate)
	if details.Runtime > 0 {
		printField("Runtime", fmt.Sprintf("%d min", details.Runtime))
	}
	printField("Genres", strings.Join(details.Genres, ", "))
	if details.VoteCount > 0 {
		printField("Rating", fmt.Sprintf("%.1f (%d votes)", details.VoteAverage, details.VoteCount))
	}
	printField("Language", details.OriginalLanguage)
	printField("Companies", strings.Join(details.ProductionCompanies, ", "))
	printField("Homepage", details.Homepage)
	printField("Poster", details.PosterURL)
	if details.Overview != "" {
		fmt.Printf("\n%s\n", details.Overview)
	}
	if similarResp != nil {
		fmt.Println()
		outputRecommendations(similarResp, false, false)
	}
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-10s %s\n", name+":", value)
}
