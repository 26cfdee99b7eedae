package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/catalog"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/embedding"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/metrics"
	"github.com/DreamCats/movierec/internal/poster"
	"github.com/DreamCats/movierec/internal/recommend"
	"github.com/DreamCats/movierec/internal/store"
	"github.com/DreamCats/movierec/internal/titleindex"
)

// runtime holds everything a serving command needs
type runtime struct {
	db     *store.DB
	titles *titleindex.Index
	app    *app.App
}

// openRuntime opens the store, loads the catalog and wires the recommender.
// TMDB is only queried when withPosters is set.
func openRuntime(ctx context.Context, cfg *config.Config, withPosters bool) (*runtime, error) {
	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("database %s does not exist, run 'movierec import' first", cfg.Database.Path)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c, err := catalog.NewLoader(store.NewCatalogSource(db)).Load(ctx)
	if err != nil {
		db.Close()
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return nil, fmt.Errorf("catalog is not usable (%w), rerun 'movierec import'", err)
		}
		return nil, err
	}
	metrics.SetCatalog(c.Len(), c.Dimension())
	logging.Debug().
		Int("movies", c.Len()).
		Int("dimension", c.Dimension()).
		Dur("duration", time.Since(start)).
		Msg("Catalog loaded")

	titles, err := titleindex.Build(c.Items())
	if err != nil {
		db.Close()
		return nil, err
	}

	encoder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		titles.Close()
		db.Close()
		return nil, err
	}
	if encoder.Dimensions() != c.Dimension() {
		logging.Warn().
			Int("catalog", c.Dimension()).
			Int("encoder", encoder.Dimensions()).
			Msg("Encoder dimension differs from catalog; free-text search will fail until re-import")
	}

	var posters poster.Lookup
	if withPosters {
		posters = poster.NewResolver(cfg.Poster)
	}

	a := app.New(
		recommend.New(c, encoder),
		titles,
		store.NewMetadataStore(db),
		posters,
		app.Options{DefaultN: cfg.Recommend.DefaultTopN, MaxN: cfg.Recommend.MaxTopN},
	)
	return &runtime{db: db, titles: titles, app: a}, nil
}

func (rt *runtime) Close() {
	rt.titles.Close()
	rt.db.Close()
}

func mustOpenRuntime(ctx context.Context, cfg *config.Config, withPosters bool) *runtime {
	rt, err := openRuntime(ctx, cfg, withPosters)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog")
	}
	return rt
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to marshal output")
	}
	fmt.Println(string(data))
}

// exitOnError reports err with its error code and exits non-zero
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", apperr.Code(err), err)
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch apperr.Code(err) {
	case "NOT_FOUND":
		return 3
	case "INVALID_ARGUMENT":
		return 2
	case "UPSTREAM_UNAVAILABLE":
		return 4
	default:
		return 1
	}
}
