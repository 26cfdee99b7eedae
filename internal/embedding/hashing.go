package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/DreamCats/movierec/internal/config"
)

// HashingClient is an offline feature-hashing encoder. Each lower-cased word
// token is hashed into a signed bucket and the vector is L2 normalized. It has
// no semantic knowledge beyond shared words, which is enough for development
// and tests without a model server.
type HashingClient struct {
	dimensions int
}

// NewHashingClient creates a hashing client with the configured dimension
func NewHashingClient(cfg *config.EmbeddingConfig) (*HashingClient, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("hashing provider requires positive dimensions, got: %d", cfg.Dimensions)
	}
	return &HashingClient{dimensions: cfg.Dimensions}, nil
}

// EmbedBatch hashes every text independently
func (c *HashingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.embed(text)
	}
	return out, nil
}

func (c *HashingClient) embed(text string) []float32 {
	v := make([]float32, c.dimensions)
	h := fnv.New64a()

	for _, token := range tokenize(text) {
		h.Reset()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()
		idx := int(sum % uint64(c.dimensions))
		if sum&(1<<63) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Provider returns "hashing"
func (c *HashingClient) Provider() string {
	return "hashing"
}
