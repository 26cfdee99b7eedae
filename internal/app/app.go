// Package app assembles the recommender, title index, metadata and posters
// into the request/response operations shared by the CLI, the HTTP API and
// the MCP server.
package app

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/catalog"
	"github.com/DreamCats/movierec/internal/poster"
	"github.com/DreamCats/movierec/internal/recommend"
	"github.com/DreamCats/movierec/internal/store"
	"github.com/DreamCats/movierec/internal/titleindex"
	"github.com/DreamCats/movierec/internal/validation"
)

// posterWorkers bounds concurrent poster lookups per response.
const posterWorkers = 4

// MetadataLookup returns the metadata record of a movie.
type MetadataLookup interface {
	Metadata(ctx context.Context, movieID int64) (*store.Metadata, error)
}

// Options holds the result count limits.
type Options struct {
	DefaultN int
	MaxN     int
}

// App serves recommendation requests.
type App struct {
	rec     *recommend.Recommender
	titles  *titleindex.Index
	meta    MetadataLookup
	posters poster.Lookup
	opts    Options
}

// New creates an App. posters may be nil, in which case responses carry no
// poster URLs.
func New(rec *recommend.Recommender, titles *titleindex.Index, meta MetadataLookup, posters poster.Lookup, opts Options) *App {
	if opts.DefaultN <= 0 {
		opts.DefaultN = recommend.DefaultN
	}
	if opts.MaxN < opts.DefaultN {
		opts.MaxN = opts.DefaultN
	}
	return &App{rec: rec, titles: titles, meta: meta, posters: posters, opts: opts}
}

// RecommendRequest asks for movies similar to a title.
type RecommendRequest struct {
	Title string `json:"title" validate:"required,max=512"`
	N     int    `json:"n" validate:"min=1,max=50"`
}

// SearchRequest asks for movies matching a free-text description.
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=512"`
	N     int    `json:"n" validate:"min=1,max=50"`
}

// TitlesRequest asks for title suggestions.
type TitlesRequest struct {
	Query string `json:"q" validate:"max=512"`
	Limit int    `json:"limit" validate:"min=1,max=50"`
}

// MovieSummary is one movie in a result list.
type MovieSummary struct {
	MovieID   int64   `json:"movie_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url,omitempty"`
}

// RecommendResponse is the result of a title or free-text recommendation.
type RecommendResponse struct {
	Mode    string         `json:"mode"` // title | query
	Input   string         `json:"input"`
	Count   int            `json:"count"`
	Results []MovieSummary `json:"results"`
}

// MovieDetails is the metadata record of a movie with its poster.
type MovieDetails struct {
	store.Metadata
	PosterURL string `json:"poster_url,omitempty"`
}

// Health summarizes the loaded catalog.
type Health struct {
	Status    string `json:"status"`
	Movies    int    `json:"movies"`
	Dimension int    `json:"dimension"`
}

// Health reports the catalog size.
func (a *App) Health() Health {
	c := a.rec.Catalog()
	return Health{Status: "ok", Movies: c.Len(), Dimension: c.Dimension()}
}

// Recommend returns movies similar to req.Title, never the title itself.
func (a *App) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.N == 0 {
		req.N = a.opts.DefaultN
	}
	if err := a.check(&req, req.N); err != nil {
		return nil, err
	}

	recs, err := a.rec.ByTitle(req.Title, req.N)
	if err != nil {
		return nil, err
	}
	return a.respond(ctx, "title", req.Title, recs), nil
}

// Search returns movies matching a free-text description.
func (a *App) Search(ctx context.Context, req SearchRequest) (*RecommendResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.N == 0 {
		req.N = a.opts.DefaultN
	}
	if err := a.check(&req, req.N); err != nil {
		return nil, err
	}

	recs, err := a.rec.ByQuery(ctx, req.Query, req.N)
	if err != nil {
		return nil, err
	}
	return a.respond(ctx, "query", req.Query, recs), nil
}

// Similar returns movies similar to the movie with the given id.
func (a *App) Similar(ctx context.Context, movieID int64, n int) (*RecommendResponse, error) {
	if n == 0 {
		n = a.opts.DefaultN
	}
	if n < 1 || n > a.opts.MaxN {
		return nil, apperr.InvalidArgument("n must be between 1 and %d, got %d", a.opts.MaxN, n)
	}

	recs, err := a.rec.ByID(movieID, n)
	if err != nil {
		return nil, err
	}
	idx, _ := a.rec.Catalog().IndexOfID(movieID)
	return a.respond(ctx, "title", a.rec.Catalog().Item(idx).Title, recs), nil
}

// Titles returns title suggestions for the movie picker.
func (a *App) Titles(req TitlesRequest) ([]titleindex.Suggestion, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if a.titles == nil {
		return nil, apperr.Unavailable("title index is not loaded")
	}
	return a.titles.Suggest(req.Query, req.Limit)
}

// Details returns the metadata record and poster of a movie. A catalog movie
// without metadata gets a record holding only its title.
func (a *App) Details(ctx context.Context, movieID int64) (*MovieDetails, error) {
	var meta *store.Metadata
	if a.meta != nil {
		m, err := a.meta.Metadata(ctx, movieID)
		switch {
		case err == nil:
			meta = m
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	if meta == nil {
		idx, err := a.rec.Catalog().IndexOfID(movieID)
		if err != nil {
			return nil, err
		}
		meta = &store.Metadata{
			MovieID:             movieID,
			Title:               a.rec.Catalog().Item(idx).Title,
			Genres:              []string{},
			ProductionCompanies: []string{},
			ProductionCountries: []string{},
			SpokenLanguages:     []string{},
		}
	}

	details := &MovieDetails{Metadata: *meta}
	if a.posters != nil {
		details.PosterURL = a.posters.URL(ctx, movieID)
	}
	return details, nil
}

func (a *App) check(req any, n int) error {
	if err := validation.ValidateStruct(req); err != nil {
		return err
	}
	if n > a.opts.MaxN {
		return apperr.InvalidArgument("n must be at most %d", a.opts.MaxN)
	}
	return nil
}

func (a *App) respond(ctx context.Context, mode, input string, recs []recommend.Recommendation) *RecommendResponse {
	results := make([]MovieSummary, len(recs))
	for i, r := range recs {
		results[i] = MovieSummary{MovieID: r.Item.ID, Title: r.Item.Title, Score: r.Score}
	}
	a.attachPosters(ctx, results)

	return &RecommendResponse{
		Mode:    mode,
		Input:   input,
		Count:   len(results),
		Results: results,
	}
}

// attachPosters resolves posters concurrently. Lookups never fail; a failed
// one leaves the placeholder.
func (a *App) attachPosters(ctx context.Context, results []MovieSummary) {
	if a.posters == nil || len(results) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(posterWorkers)
	for i := range results {
		g.Go(func() error {
			results[i].PosterURL = a.posters.URL(gctx, results[i].MovieID)
			return nil
		})
	}
	_ = g.Wait()
}

// Catalog returns the loaded catalog.
func (a *App) Catalog() *catalog.Catalog {
	return a.rec.Catalog()
}
