package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/app"
	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/titleindex"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 1 << 16

// TitlesResponse lists title suggestions.
type TitlesResponse struct {
	Query   string                  `json:"query"`
	Count   int                     `json:"count"`
	Matches []titleindex.Suggestion `json:"matches"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.app.Health())
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	q := r.URL.Query().Get("q")
	matches, err := s.app.Titles(app.TitlesRequest{Query: q, Limit: limit})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if matches == nil {
		matches = []titleindex.Suggestion{}
	}
	respondJSON(w, http.StatusOK, TitlesResponse{Query: q, Count: len(matches), Matches: matches})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	resp, err := s.app.Recommend(r.Context(), app.RecommendRequest{Title: r.URL.Query().Get("title"), N: n})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req app.SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondErr(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	resp, err := s.app.Search(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := movieID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	details, err := s.app.Details(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := movieID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	n, err := intParam(r, "n")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	resp, err := s.app.Similar(r.Context(), id, n)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func movieID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("invalid movie id %q", raw)
	}
	return id, nil
}

// intParam parses an optional positive integer query parameter; absent
// yields 0 so the default applies.
func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("%s must be an integer, got %q", name, raw)
	}
	if v < 1 {
		return 0, apperr.InvalidArgument("%s must be at least 1, got %d", name, v)
	}
	return v, nil
}
