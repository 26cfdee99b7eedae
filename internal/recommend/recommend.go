// Package recommend answers "movies like this title" and "movies matching
// this description" over a loaded catalog.
package recommend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/catalog"
	"github.com/DreamCats/movierec/internal/embedding"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/metrics"
	"github.com/DreamCats/movierec/internal/ranker"
)

// DefaultN is the number of recommendations when the caller gives none.
const DefaultN = 5

// Recommendation is one ranked movie.
type Recommendation struct {
	Index int          `json:"-"`
	Item  catalog.Item `json:"movie"`
	Score float64      `json:"score"`
}

// Recommender ranks catalog items against a title or a free-text query.
type Recommender struct {
	catalog *catalog.Catalog
	encoder embedding.Encoder
}

// New creates a recommender. encoder may be nil when only title and id
// lookups are needed.
func New(c *catalog.Catalog, encoder embedding.Encoder) *Recommender {
	return &Recommender{catalog: c, encoder: encoder}
}

// Catalog returns the underlying catalog.
func (r *Recommender) Catalog() *catalog.Catalog {
	return r.catalog
}

// ByTitle returns the n items most similar to the item with the exact title.
// The queried item itself is never part of the result.
func (r *Recommender) ByTitle(title string, n int) (recs []Recommendation, err error) {
	defer observe("title", time.Now(), &err)

	idx, err := r.catalog.IndexOfTitle(title)
	if err != nil {
		return nil, err
	}
	return r.similarTo(idx, n)
}

// ByID is ByTitle resolved through the movie identifier.
func (r *Recommender) ByID(id int64, n int) (recs []Recommendation, err error) {
	defer observe("id", time.Now(), &err)

	idx, err := r.catalog.IndexOfID(id)
	if err != nil {
		return nil, err
	}
	return r.similarTo(idx, n)
}

// ByQuery encodes text and returns the n most similar items. Encoder errors
// are returned unchanged.
func (r *Recommender) ByQuery(ctx context.Context, text string, n int) (recs []Recommendation, err error) {
	defer observe("query", time.Now(), &err)

	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidArgument("query text is empty")
	}
	if r.encoder == nil {
		return nil, apperr.Unavailable("no encoder configured")
	}

	query, err := r.encoder.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(query) != r.catalog.Dimension() {
		return nil, apperr.InvalidArgument("encoder returned dimension %d, catalog has %d", len(query), r.catalog.Dimension())
	}

	return r.rank(query, n, ranker.NoExclusion)
}

func (r *Recommender) similarTo(idx, n int) ([]Recommendation, error) {
	return r.rank(r.catalog.Vector(idx), n, idx)
}

func (r *Recommender) rank(query []float32, n, exclude int) ([]Recommendation, error) {
	scored, err := ranker.Rank(query, r.catalog.Matrix(), n, exclude)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, len(scored))
	for i, s := range scored {
		recs[i] = Recommendation{
			Index: s.Index,
			Item:  r.catalog.Item(s.Index),
			Score: s.Score,
		}
	}
	return recs, nil
}

func observe(mode string, start time.Time, err *error) {
	result := "ok"
	if *err != nil {
		result = resultLabel(*err)
		logging.Debug().Str("mode", mode).Err(*err).Msg("recommendation failed")
	}
	metrics.RecordRecommend(mode, result, time.Since(start))
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
