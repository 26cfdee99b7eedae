package internal

import (
	"fmt"
	"os"
)

const Version = "0.3.0"

// PrintUsage writes the top-level help to stderr
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `movierec - Content-based Movie Recommendations

Version: %s

USAGE:
    movierec [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.movierec/config/movierec.yaml)

    -log-level <level>
        Override log.level (debug, info, warn, error)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    import
        Read the movie CSVs, embed every movie and rebuild the catalog

    recommend
        Recommend movies similar to a title

    search
        Find movies matching a free-text description

    titles
        Suggest catalog titles for a partial title

    movie
        Show the metadata of a movie

    stats
        Show catalog statistics and import history

    serve
        Run the JSON HTTP API

    mcp
        Run MCP stdio server (tools: movie_recommend, movie_search, movie_details)

EXAMPLES:
    # Build the catalog from the TMDB 5000 dataset
    movierec import -movies data/movies.csv -metadata "data/**/tmdb_5000_movies.csv"

    # Movies like Avatar
    movierec recommend "Avatar"

    # Free-text search
    movierec search -n 10 "heist with a twist ending"

    # Serve the API on :8080
    movierec serve

For detailed help on each command, use:
    movierec <command> -help
`, Version)
}
