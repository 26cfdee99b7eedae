package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/breaker"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/metrics"
)

// Encoder maps a text to a fixed-length vector. Implementations are
// deterministic for a fixed model.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Client is the interface for embedding API clients
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
}

// Service provides embedding generation functionality
type Service struct {
	cfg     config.EmbeddingConfig
	client  Client
	breaker *breaker.Breaker[[][]float32]
}

// NewService creates a new embedding service
func NewService(cfg *config.EmbeddingConfig) (*Service, error) {
	var client Client
	var err error

	switch cfg.Provider {
	case "ollama":
		client, err = NewOllamaClient(cfg)
	case "openai":
		client, err = NewOpenAIClient(cfg)
	case "hashing":
		client, err = NewHashingClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	return NewServiceWithClient(cfg, client), nil
}

// NewServiceWithClient wraps an existing client
func NewServiceWithClient(cfg *config.EmbeddingConfig, client Client) *Service {
	return &Service{
		cfg:     *cfg,
		client:  client,
		breaker: breaker.New[[][]float32]("embedding-"+client.Provider(), breaker.Settings{}),
	}
}

// Encode generates an embedding for a single text
func (s *Service) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidArgument("cannot embed empty text")
	}

	vectors, err := s.call(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

// EncodeBatch generates embeddings for multiple texts, batch_size texts per
// provider call. The result is aligned with texts.
func (s *Service) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.EncodeBatchProgress(ctx, texts, nil)
}

// EncodeBatchProgress is EncodeBatch with a callback invoked with the number
// of texts finished after every provider call.
func (s *Service) EncodeBatchProgress(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, apperr.InvalidArgument("cannot embed empty text at index %d", i)
		}
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := s.call(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(vectors))
		}
		results = append(results, vectors...)

		if progress != nil {
			progress(end)
		}
	}

	return results, nil
}

func (s *Service) call(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := s.breaker.Execute(func() ([][]float32, error) {
		return s.client.EmbedBatch(ctx, texts)
	})
	metrics.RecordEncode(s.client.Provider(), len(texts), time.Since(start))

	if err != nil {
		if breaker.IsRejected(err) {
			return nil, apperr.Unavailable("embedding provider %s: %v", s.client.Provider(), err)
		}
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperr.ErrUpstreamUnavailable) {
			return nil, apperr.Unavailable("embedding provider %s timed out", s.client.Provider())
		}
		return nil, err
	}

	for i, v := range vectors {
		if s.cfg.Dimensions > 0 && len(v) != s.cfg.Dimensions {
			return nil, apperr.InvalidArgument("embedding %d has dimension %d, configured %d", i, len(v), s.cfg.Dimensions)
		}
	}
	return vectors, nil
}

// Dimensions returns the configured dimension of the embeddings
func (s *Service) Dimensions() int {
	return s.cfg.Dimensions
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.cfg.Model
}

// Provider returns the provider name of the underlying client
func (s *Service) Provider() string {
	return s.client.Provider()
}
