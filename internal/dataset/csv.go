// Package dataset reads the movie tag table and the TMDB metadata exports and
// imports them into the store.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// header maps lower-cased column names to their position
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}

// get returns the named column or "" when the column or cell is absent
func (h header) get(row []string, names ...string) string {
	for _, name := range names {
		if i, ok := h[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (h header) has(names ...string) bool {
	for _, name := range names {
		if _, ok := h[name]; ok {
			return true
		}
	}
	return false
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadMovies reads a movie_id,title,tags table. Rows with a duplicate id are
// skipped; the first occurrence wins.
func ReadMovies(r io.Reader) ([]store.Movie, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, required := range [][]string{{"movie_id", "id"}, {"title"}} {
		if !h.has(required...) {
			return nil, fmt.Errorf("missing column %q", required[0])
		}
	}

	var movies []store.Movie
	seen := make(map[int64]bool)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(h.get(row, "movie_id", "id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid movie_id: %w", line, err)
		}
		if seen[id] {
			logging.Warn().Int64("movie_id", id).Int("line", line).Msg("skipping duplicate movie id")
			continue
		}
		seen[id] = true

		movies = append(movies, store.Movie{
			ID:    id,
			Title: h.get(row, "title"),
			Tags:  h.get(row, "tags"),
		})
	}

	return movies, nil
}

// ReadMetadata reads a TMDB movies export (tmdb_5000_movies.csv layout).
// Missing optional columns are left empty.
func ReadMetadata(r io.Reader) ([]store.Metadata, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if !h.has("id", "movie_id") {
		return nil, fmt.Errorf("missing column %q", "id")
	}

	var records []store.Metadata
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(h.get(row, "id", "movie_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id: %w", line, err)
		}

		records = append(records, store.Metadata{
			MovieID:             id,
			Title:               h.get(row, "title"),
			Tagline:             h.get(row, "tagline"),
			Overview:            h.get(row, "overview"),
			Genres:              parseNameList(h.get(row, "genres")),
			OriginalLanguage:    h.get(row, "original_language"),
			ReleaseDate:         h.get(row, "release_date"),
			Runtime:             int(parseNumber(h.get(row, "runtime"))),
			Popularity:          parseNumber(h.get(row, "popularity")),
			VoteAverage:         parseNumber(h.get(row, "vote_average")),
			VoteCount:           int64(parseNumber(h.get(row, "vote_count"))),
			Budget:              int64(parseNumber(h.get(row, "budget"))),
			Revenue:             int64(parseNumber(h.get(row, "revenue"))),
			Status:              h.get(row, "status"),
			Homepage:            h.get(row, "homepage"),
			ProductionCompanies: parseNameList(h.get(row, "production_companies")),
			ProductionCountries: parseNameList(h.get(row, "production_countries")),
			SpokenLanguages:     parseNameList(h.get(row, "spoken_languages")),
		})
	}

	return records, nil
}

type named struct {
	Name string `json:"name"`
}

// parseNameList decodes a JSON array of {"name": ...} objects. Unparsable
// input yields an empty list.
func parseNameList(raw string) []string {
	names := []string{}
	if raw == "" {
		return names
	}

	var entries []named
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return names
	}
	for _, e := range entries {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names
}

// parseNumber accepts integers and decimals ("94", "94.0"); anything else is 0
func parseNumber(raw string) float64 {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
