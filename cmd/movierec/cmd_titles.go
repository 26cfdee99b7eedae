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

// handleTitles implements the titles subcommand
func handleTitles(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("titles", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Max suggestions")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    movierec titles [options] ["<partial title>"]

DESCRIPTION:
    Suggest catalog titles by prefix and fuzzy match. Without a query the
    first titles of the catalog are listed.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    movierec titles "dark kni"
    movierec titles -limit 5 avatr
`)
	}

	if err := fs.Parse(args); err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	query := strings.Join(fs.Args(), " ")

	rt := mustOpenRuntime(context.Background(), cfg, false)
	defer rt.Close()

	matches, err := rt.app.Titles(app.TitlesRequest{Query: query, Limit: *limit})
	if err != nil {
		rt.Close()
		exitOnError(err)
	}

	if *jsonOutput {
		printJSON(map[string]any{
			"query":   query,
			"count":   len(matches),
			"matches": matches,
		})
		return
	}

	if len(matches) == 0 {
		fmt.Println("No titles found")
		return
	}
	for _, m := range matches {
		fmt.Printf("%8d  %s\n", m.MovieID, m.Title)
	}
}
