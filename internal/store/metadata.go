package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/apperr"
)

// MetadataStore reads TMDB metadata records
type MetadataStore struct {
	db *DB
}

// NewMetadataStore creates a new metadata store
func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

const metadataColumns = `movie_id, title, tagline, overview, genres, original_language, release_date,
	runtime, popularity, vote_average, vote_count, budget, revenue, status, homepage,
	production_companies, production_countries, spoken_languages`

// Metadata returns the record of a movie, NotFound for unknown ids
func (s *MetadataStore) Metadata(ctx context.Context, movieID int64) (*Metadata, error) {
	row := s.db.sqlDB.QueryRowContext(ctx, "SELECT "+metadataColumns+" FROM metadata WHERE movie_id = ?", movieID)

	m, err := scanMetadata(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("no metadata for movie %d", movieID)
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*Metadata, error) {
	var m Metadata
	var genres, companies, countries, languages string

	if err := row.Scan(
		&m.MovieID, &m.Title, &m.Tagline, &m.Overview, &genres, &m.OriginalLanguage, &m.ReleaseDate,
		&m.Runtime, &m.Popularity, &m.VoteAverage, &m.VoteCount, &m.Budget, &m.Revenue, &m.Status, &m.Homepage,
		&companies, &countries, &languages,
	); err != nil {
		return nil, err
	}

	for _, list := range []struct {
		raw  string
		dest *[]string
	}{
		{genres, &m.Genres},
		{companies, &m.ProductionCompanies},
		{countries, &m.ProductionCountries},
		{languages, &m.SpokenLanguages},
	} {
		if err := json.Unmarshal([]byte(list.raw), list.dest); err != nil {
			return nil, fmt.Errorf("failed to decode list column of movie %d: %w", m.MovieID, err)
		}
	}

	return &m, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
