package mcpserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// Server exposes movie recommendations via MCP stdio.
type Server struct {
	app     *app.App
	db      *store.DB
	version string
}

// New creates a new MCP server wrapper. db may be nil, in which case
// movie_status reports only the loaded catalog.
func New(a *app.App, db *store.DB, version string) *Server {
	return &Server{
		app:     a,
		db:      db,
		version: version,
	}
}

// Run starts the MCP stdio server.
func (s *Server) Run(ctx context.Context) error {
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "movierec",
		Title:   "Movie Recommender",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "movie_recommend",
		Description: `Recommend movies similar to a movie the user liked.

The title must match a catalog title exactly; use movie_titles first when unsure.
The movie itself is never part of the result. Results are ordered by similarity, best first.`,
	}, s.recommendTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "movie_search",
		Description: `Find movies matching a free-text description (plot, mood, genre, cast).

The description is embedded and compared to every catalog movie.
Fails with UPSTREAM_UNAVAILABLE when the embedding provider cannot be reached.`,
	}, s.searchTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "movie_titles",
		Description: "Suggest catalog titles for a partial or misspelled title (prefix and fuzzy match).",
	}, s.titlesTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "movie_details",
		Description: "Read the metadata of a movie (overview, genres, release date, rating, poster) by movie_id.",
	}, s.detailsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "movie_status",
		Description: `Check the loaded catalog and the last import.

Returns the catalog size, embedding model and dimension, and the age of the last import.`,
	}, s.statusTool)

	return server
}

func (s *Server) recommendTool(ctx context.Context, _ *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, RecommendOutput, error) {
	resp, err := s.app.Recommend(ctx, app.RecommendRequest{Title: input.Title, N: input.N})
	if err != nil {
		return nil, RecommendOutput{}, toolError("movie_recommend", err)
	}
	return nil, toRecommendOutput(resp), nil
}

func (s *Server) searchTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, RecommendOutput, error) {
	resp, err := s.app.Search(ctx, app.SearchRequest{Query: input.Query, N: input.N})
	if err != nil {
		return nil, RecommendOutput{}, toolError("movie_search", err)
	}
	return nil, toRecommendOutput(resp), nil
}

func (s *Server) titlesTool(ctx context.Context, _ *mcp.CallToolRequest, input TitlesInput) (*mcp.CallToolResult, TitlesOutput, error) {
	suggestions, err := s.app.Titles(app.TitlesRequest{Query: input.Query, Limit: input.Limit})
	if err != nil {
		return nil, TitlesOutput{}, toolError("movie_titles", err)
	}

	matches := make([]TitleMatch, len(suggestions))
	for i, sg := range suggestions {
		matches[i] = TitleMatch{MovieID: sg.MovieID, Title: sg.Title, Score: sg.Score}
	}
	return nil, TitlesOutput{Query: input.Query, Count: len(matches), Matches: matches}, nil
}

func (s *Server) detailsTool(ctx context.Context, _ *mcp.CallToolRequest, input DetailsInput) (*mcp.CallToolResult, DetailsOutput, error) {
	if input.MovieID <= 0 {
		return nil, DetailsOutput{}, toolError("movie_details", apperr.InvalidArgument("movie_id is required"))
	}

	details, err := s.app.Details(ctx, input.MovieID)
	if err != nil {
		return nil, DetailsOutput{}, toolError("movie_details", err)
	}
	return nil, DetailsOutput{Movie: toMovieInfo(details)}, nil
}

func (s *Server) statusTool(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	health := s.app.Health()
	output := StatusOutput{
		Loaded:       health.Movies > 0,
		LoadedMovies: health.Movies,
	}
	if s.db == nil {
		return nil, output, nil
	}

	output.DatabasePath = s.db.Path()
	if info, err := os.Stat(s.db.Path()); err == nil {
		output.DatabaseSize = formatBytes(info.Size())
	}

	stats, err := s.db.Stats(ctx)
	if err != nil {
		output.Warning = fmt.Sprintf("Cannot read database statistics: %v", err)
		return nil, output, nil
	}
	output.Stats = &CatalogStats{
		Movies:     stats.MovieCount,
		Embeddings: stats.EmbeddingCount,
		Metadata:   stats.MetadataCount,
		Dimension:  stats.Dimension,
		Model:      stats.Model,
	}

	run, err := store.NewImportStore(s.db).Latest(ctx)
	if err != nil {
		output.Warning = fmt.Sprintf("Cannot read import history: %v", err)
		return nil, output, nil
	}
	if run == nil {
		output.Warning = "No import recorded. Run 'movierec import' to build the catalog."
		return nil, output, nil
	}

	output.LastImportID = run.ID
	output.LastImportedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	output.ImportAge = formatDuration(time.Since(run.FinishedAt))

	if stats.MovieCount != int64(health.Movies) {
		output.Warning = fmt.Sprintf("Database holds %d movies but %d are loaded. Restart to pick up the latest import.",
			stats.MovieCount, health.Movies)
	}
	return nil, output, nil
}

func toRecommendOutput(resp *app.RecommendResponse) RecommendOutput {
	results := resp.Results
	if results == nil {
		results = []app.MovieSummary{}
	}
	return RecommendOutput{
		Mode:    resp.Mode,
		Input:   resp.Input,
		Count:   resp.Count,
		Results: results,
	}
}

func toMovieInfo(d *app.MovieDetails) MovieInfo {
	return MovieInfo{
		MovieID:             d.MovieID,
		Title:               d.Title,
		Tagline:             d.Tagline,
		Overview:            d.Overview,
		Genres:              ensureStringSlice(d.Genres),
		OriginalLanguage:    d.OriginalLanguage,
		ReleaseDate:         d.ReleaseDate,
		Runtime:             d.Runtime,
		Popularity:          d.Popularity,
		VoteAverage:         d.VoteAverage,
		VoteCount:           d.VoteCount,
		Budget:              d.Budget,
		Revenue:             d.Revenue,
		Status:              d.Status,
		Homepage:            d.Homepage,
		ProductionCompanies: ensureStringSlice(d.ProductionCompanies),
		ProductionCountries: ensureStringSlice(d.ProductionCountries),
		SpokenLanguages:     ensureStringSlice(d.SpokenLanguages),
		PosterURL:           d.PosterURL,
	}
}

func ensureStringSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// toolError prefixes err with its error code so clients can branch on it.
func toolError(tool string, err error) error {
	code := apperr.Code(err)
	if code == "INTERNAL" {
		logging.Error().Err(err).Str("tool", tool).Msg("MCP tool failed")
	}
	return fmt.Errorf("%s: %w", code, err)
}

// formatBytes formats bytes to human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration to human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
	return fmt.Sprintf("%.1f days", d.Hours()/24)
}
