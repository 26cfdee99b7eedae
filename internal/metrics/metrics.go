// Package metrics exposes the Prometheus collectors of movierec.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"}, // title, id, query
	)

	RecommendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_recommend_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode", "result"}, // result: ok, not_found, invalid_argument, upstream_unavailable, internal
	)

	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movierec_catalog_movies",
			Help: "Number of movies in the loaded catalog",
		},
	)

	CatalogDimension = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movierec_catalog_dimension",
			Help: "Embedding dimension of the loaded catalog",
		},
	)

	// Encoder metrics
	EncoderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_encoder_duration_seconds",
			Help:    "Duration of embedding provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	EncoderTexts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_encoder_texts_total",
			Help: "Total number of texts sent to the embedding provider",
		},
		[]string{"provider"},
	)

	// Poster metrics
	PosterLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_poster_lookups_total",
			Help: "Total number of TMDB poster lookups",
		},
		[]string{"result"}, // hit, placeholder
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movierec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRecommend records one recommendation request
func RecordRecommend(mode, result string, duration time.Duration) {
	RecommendTotal.WithLabelValues(mode, result).Inc()
	RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordEncode records one embedding provider call
func RecordEncode(provider string, texts int, duration time.Duration) {
	EncoderTexts.WithLabelValues(provider).Add(float64(texts))
	EncoderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPoster records a poster lookup outcome
func RecordPoster(hit bool) {
	if hit {
		PosterLookups.WithLabelValues("hit").Inc()
		return
	}
	PosterLookups.WithLabelValues("placeholder").Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetCatalog publishes the size of the loaded catalog
func SetCatalog(movies, dimension int) {
	CatalogMovies.Set(float64(movies))
	CatalogDimension.Set(float64(dimension))
}
