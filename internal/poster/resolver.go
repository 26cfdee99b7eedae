// Package poster resolves TMDB poster images for movie ids.
package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/breaker"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/metrics"
)

// Lookup resolves the poster of a movie. URL never fails: it falls back to
// a placeholder image.
type Lookup interface {
	URL(ctx context.Context, movieID int64) string
}

// Resolver queries the TMDB v3 movie endpoint.
type Resolver struct {
	cfg     config.PosterConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker[string]
}

type movieResponse struct {
	ID         int64  `json:"id"`
	PosterPath string `json:"poster_path"`
}

// NewResolver creates a resolver from the poster configuration.
func NewResolver(cfg config.PosterConfig) *Resolver {
	limit := rate.Limit(cfg.RequestsPerSec)
	if cfg.RequestsPerSec <= 0 {
		limit = rate.Inf
	}
	burst := int(cfg.RequestsPerSec)
	if burst < 1 {
		burst = 1
	}

	return &Resolver{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker.New[string]("tmdb", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, apperr.ErrNotFound)
			},
		}),
	}
}

// URL returns the poster URL of a movie or the placeholder on any failure.
func (r *Resolver) URL(ctx context.Context, movieID int64) string {
	u, err := r.Lookup(ctx, movieID)
	if err != nil {
		logging.Debug().Int64("movie_id", movieID).Err(err).Msg("poster lookup failed, using placeholder")
		metrics.RecordPoster(false)
		return r.cfg.Placeholder
	}
	metrics.RecordPoster(true)
	return u
}

// Lookup returns the poster URL or the reason there is none. Missing
// configuration and remote failures are UpstreamUnavailable; an unknown movie
// or a movie without poster is NotFound.
func (r *Resolver) Lookup(ctx context.Context, movieID int64) (string, error) {
	if r.cfg.APIKey == "" {
		return "", apperr.Unavailable("tmdb api key is not configured")
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", apperr.Unavailable("tmdb rate limit wait: %v", err)
	}

	path, err := r.breaker.Execute(func() (string, error) {
		return r.fetchPosterPath(ctx, movieID)
	})
	if err != nil {
		if breaker.IsRejected(err) {
			return "", apperr.Unavailable("tmdb: %v", err)
		}
		return "", err
	}

	return strings.TrimRight(r.cfg.ImageBase, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

func (r *Resolver) fetchPosterPath(ctx context.Context, movieID int64) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("api_key", r.cfg.APIKey)
	if r.cfg.Language != "" {
		q.Set("language", r.cfg.Language)
	}
	endpoint := fmt.Sprintf("%s/movie/%d?%s", strings.TrimRight(r.cfg.APIBase, "/"), movieID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", apperr.Unavailable("tmdb request failed: %v", redact(err, r.cfg.APIKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Unavailable("failed to read tmdb response: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", apperr.NotFound("tmdb has no movie %d", movieID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", apperr.Unavailable("tmdb returned status %d", resp.StatusCode)
	}

	var movie movieResponse
	if err := json.Unmarshal(body, &movie); err != nil {
		return "", apperr.Unavailable("failed to parse tmdb response: %v", err)
	}
	if movie.PosterPath == "" {
		return "", apperr.NotFound("movie %d has no poster", movieID)
	}
	return movie.PosterPath, nil
}

// redact removes the api key from transport errors, which quote the URL.
func redact(err error, key string) string {
	msg := err.Error()
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, "***")
}

// Static always returns the same URL. It stands in for a Resolver when no
// TMDB access is wanted.
type Static string

// URL returns s.
func (s Static) URL(ctx context.Context, movieID int64) string {
	return string(s)
}
