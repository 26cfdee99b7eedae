package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/catalog"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/poster"
	"github.com/DreamCats/movierec/internal/recommend"
	"github.com/DreamCats/movierec/internal/titleindex"
)

type stubEncoder map[string][]float32

func (e stubEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	v, ok := e[text]
	if !ok {
		return nil, apperr.Unavailable("embedding provider unreachable")
	}
	return v, nil
}

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	items := []catalog.Item{
		{ID: 1, Title: "Alien"},
		{ID: 2, Title: "Aliens"},
		{ID: 3, Title: "Notting Hill"},
		{ID: 4, Title: "Love Actually"},
	}
	matrix := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}}
	c, err := catalog.New(items, matrix)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	idx, err := titleindex.Build(items)
	if err != nil {
		t.Fatalf("titleindex.Build() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	rec := recommend.New(c, stubEncoder{"romance in london": {0, 1}})
	a := app.New(rec, idx, nil, poster.Static("https://placeholder"), app.Options{DefaultN: 2, MaxN: 50})
	return New(a, config.ServerConfig{
		Addr:            "127.0.0.1:0",
		AllowedOrigins:  []string{"*"},
		RateLimit:       rateLimit,
		ShutdownTimeout: time.Second,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[app.Health](t, rr)
	if got.Status != "ok" || got.Movies != 4 || got.Dimension != 2 {
		t.Errorf("health = %+v", got)
	}
}

func TestRecommend(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodGet, "/api/v1/recommend?title=Alien&n=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	got := decode[app.RecommendResponse](t, rr)
	if got.Count != 2 || got.Results[0].MovieID != 2 || got.Results[1].MovieID != 4 {
		t.Fatalf("response = %+v", got)
	}
	if got.Results[0].PosterURL != "https://placeholder" {
		t.Errorf("PosterURL = %q", got.Results[0].PosterURL)
	}
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"romance in london","n":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[app.RecommendResponse](t, rr)
	if got.Mode != "query" || len(got.Results) != 1 || got.Results[0].MovieID != 3 {
		t.Fatalf("response = %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown title", http.MethodGet, "/api/v1/recommend?title=Jaws", "", http.StatusNotFound, "NOT_FOUND"},
		{"missing title", http.MethodGet, "/api/v1/recommend", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"n not a number", http.MethodGet, "/api/v1/recommend?title=Alien&n=many", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"n zero", http.MethodGet, "/api/v1/recommend?title=Alien&n=0", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"n above available", http.MethodGet, "/api/v1/recommend?title=Alien&n=4", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"n above max", http.MethodGet, "/api/v1/recommend?title=Alien&n=51", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"encoder down", http.MethodPost, "/api/v1/search", `{"query":"space horror"}`, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
		{"empty query", http.MethodPost, "/api/v1/search", `{"query":""}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"malformed body", http.MethodPost, "/api/v1/search", `{"query":`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown field", http.MethodPost, "/api/v1/search", `{"q":"x"}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown movie", http.MethodGet, "/api/v1/movies/99", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad movie id", http.MethodGet, "/api/v1/movies/abc", "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.target, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			got := decode[errorBody](t, rr)
			if got.Error.Code != tt.wantCode || got.Error.Message == "" {
				t.Errorf("error = %+v, want code %s", got.Error, tt.wantCode)
			}
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"`+strings.Repeat("x", 600)+`"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[errorBody](t, rr)
	if len(got.Error.Fields) != 1 || got.Error.Fields[0].Field != "query" {
		t.Errorf("fields = %+v", got.Error.Fields)
	}
}

func TestMovieAndSimilar(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodGet, "/api/v1/movies/3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	details := decode[app.MovieDetails](t, rr)
	if details.Title != "Notting Hill" || details.PosterURL != "https://placeholder" {
		t.Errorf("details = %+v", details)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/movies/3/similar?n=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	similar := decode[app.RecommendResponse](t, rr)
	if len(similar.Results) != 1 || similar.Results[0].MovieID != 4 {
		t.Errorf("similar = %+v", similar)
	}
}

func TestTitles(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	rr := do(t, h, http.MethodGet, "/api/v1/titles?q=nott&limit=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[TitlesResponse](t, rr)
	if got.Count == 0 || got.Matches[0].MovieID != 3 {
		t.Errorf("titles = %+v", got)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, 2).Handler()

	var last int
	for i := 0; i < 3; i++ {
		last = do(t, h, http.MethodGet, "/api/v1/titles", "").Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	if code := do(t, h, http.MethodGet, "/api/v1/health", "").Code; code != http.StatusOK {
		t.Errorf("health status = %d, want 200 regardless of rate limit", code)
	}

	rejected := false
	for _, line := range strings.Split(do(t, h, http.MethodGet, "/metrics", "").Body.String(), "\n") {
		if strings.HasPrefix(line, "movierec_api_requests_total{") && strings.Contains(line, `status="429"`) {
			rejected = true
		}
	}
	if !rejected {
		t.Error("rate limited request missing from movierec_api_requests_total")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, 0).Handler()

	do(t, h, http.MethodGet, "/api/v1/recommend?title=Alien", "")
	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "movierec_api_requests_total") {
		t.Errorf("metrics output misses API counter")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
