package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/config"
)

type stubClient struct {
	calls [][]string
	err   error
	dim   int
}

func (c *stubClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls = append(c.calls, texts)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, c.dim)
		v[0] = float32(len(text))
		out[i] = v
	}
	return out, nil
}

func (c *stubClient) Provider() string { return "stub" }

func TestServiceEncodeBatchSplitsBatches(t *testing.T) {
	client := &stubClient{dim: 3}
	svc := NewServiceWithClient(&config.EmbeddingConfig{Dimensions: 3, BatchSize: 2}, client)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	var progress []int
	vectors, err := svc.EncodeBatchProgress(context.Background(), texts, func(done int) {
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	if len(client.calls) != 3 {
		t.Fatalf("provider calls = %d, want 3", len(client.calls))
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if int(v[0]) != len(texts[i]) {
			t.Errorf("vector %d not aligned with its text", i)
		}
	}
	if want := []int{2, 4, 5}; len(progress) != 3 || progress[0] != want[0] || progress[2] != want[2] {
		t.Errorf("progress = %v, want %v", progress, want)
	}
}

func TestServiceRejectsEmptyText(t *testing.T) {
	svc := NewServiceWithClient(&config.EmbeddingConfig{Dimensions: 3}, &stubClient{dim: 3})

	if _, err := svc.Encode(context.Background(), "   "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Encode(blank) error = %v, want InvalidArgument", err)
	}
	if _, err := svc.EncodeBatch(context.Background(), []string{"ok", ""}); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("EncodeBatch(with blank) error = %v, want InvalidArgument", err)
	}
}

func TestServiceDimensionMismatch(t *testing.T) {
	svc := NewServiceWithClient(&config.EmbeddingConfig{Dimensions: 4}, &stubClient{dim: 3})

	_, err := svc.Encode(context.Background(), "space western")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("Encode() error = %v, want InvalidArgument", err)
	}
}

func TestServiceBreakerOpensAsUnavailable(t *testing.T) {
	client := &stubClient{dim: 3, err: errors.New("connection refused")}
	svc := NewServiceWithClient(&config.EmbeddingConfig{Dimensions: 3}, client)

	for i := 0; i < 5; i++ {
		if _, err := svc.Encode(context.Background(), "heist"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := svc.Encode(context.Background(), "heist")
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("Encode() after failures error = %v, want UpstreamUnavailable", err)
	}
	if len(client.calls) != 5 {
		t.Errorf("provider calls = %d, want 5 (open breaker must not call through)", len(client.calls))
	}
}

func TestNewServiceProviders(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"ollama", false},
		{"openai", false},
		{"hashing", false},
		{"volcengine", true},
	}
	for _, tt := range tests {
		cfg := &config.EmbeddingConfig{
			Provider:   tt.provider,
			Endpoint:   "http://localhost:9/embed",
			Dimensions: 8,
			Timeout:    time.Second,
		}
		svc, err := NewService(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewService(%s) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			continue
		}
		if err == nil && svc.Provider() != tt.provider {
			t.Errorf("Provider() = %q, want %q", svc.Provider(), tt.provider)
		}
	}
}

func TestOllamaClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req OllamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "all-minilm" {
			t.Errorf("model = %q", req.Model)
		}
		resp := OllamaEmbedResponse{Model: req.Model}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(&config.EmbeddingConfig{Endpoint: srv.URL + "/api/embed", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}

	vectors, err := client.EmbedBatch(context.Background(), []string{"alien", "aliens"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 1 {
		t.Errorf("unexpected vectors %v", vectors)
	}
}

func TestOpenAIClientReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"model":"m"}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(&config.EmbeddingConfig{
		Endpoint: srv.URL + "/v1/embeddings",
		APIKey:   "sk-test",
		Model:    "bge-small",
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not reordered by index: %v", vectors)
	}
}

func TestOpenAIClientRequiresKeyForOpenAI(t *testing.T) {
	_, err := NewOpenAIClient(&config.EmbeddingConfig{Endpoint: "https://api.openai.com/v1/embeddings"})
	if err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestRemoteErrorsAreUnavailable(t *testing.T) {
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer status.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name     string
		endpoint string
	}{
		{"non-2xx", status.URL + "/api/embed"},
		{"connection refused", closedURL + "/api/embed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := NewOllamaClient(&config.EmbeddingConfig{Endpoint: tt.endpoint, Timeout: time.Second})
			_, err := client.EmbedBatch(context.Background(), []string{"x"})
			if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
				t.Fatalf("error = %v, want UpstreamUnavailable", err)
			}
		})
	}
}

func TestHashingClient(t *testing.T) {
	client, err := NewHashingClient(&config.EmbeddingConfig{Dimensions: 64})
	if err != nil {
		t.Fatalf("NewHashingClient() error = %v", err)
	}

	vectors, err := client.EmbedBatch(context.Background(), []string{
		"Space Opera, space!",
		"space opera space",
		"",
	})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}

	if len(vectors[0]) != 64 {
		t.Fatalf("dimension = %d, want 64", len(vectors[0]))
	}

	var norm float64
	for i := range vectors[0] {
		if vectors[0][i] != vectors[1][i] {
			t.Fatalf("tokenization should ignore case and punctuation")
		}
		norm += float64(vectors[0][i]) * float64(vectors[0][i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", norm)
	}

	for _, x := range vectors[2] {
		if x != 0 {
			t.Fatalf("empty text should give the zero vector")
		}
	}
}

func TestTokenize(t *testing.T) {
	got := strings.Join(tokenize("Sci-Fi: 2001, A Space Odyssey"), "|")
	if got != "sci|fi|2001|a|space|odyssey" {
		t.Errorf("tokenize() = %q", got)
	}
}
