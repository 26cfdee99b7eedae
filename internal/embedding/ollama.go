package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DreamCats/movierec/internal/config"
)

// OllamaClient implements Client for Ollama's /api/embed endpoint
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

// OllamaEmbedRequest is the request format for /api/embed
type OllamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OllamaEmbedResponse is the response from /api/embed
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaClient creates a new Ollama embedding client
func NewOllamaClient(cfg *config.EmbeddingConfig) (*OllamaClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434/api/embed"
	}

	model := cfg.Model
	if model == "" {
		model = "all-minilm"
	}

	return &OllamaClient{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EmbedBatch generates embeddings for multiple texts in one request
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var apiResp OllamaEmbedResponse
	req := OllamaEmbedRequest{Model: c.model, Input: texts}
	if err := postJSON(ctx, c.client, c.endpoint, "", req, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Embeddings))
	}
	return apiResp.Embeddings, nil
}

// Provider returns "ollama"
func (c *OllamaClient) Provider() string {
	return "ollama"
}
