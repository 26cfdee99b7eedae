package store

import (
	"context"
	"fmt"

	"github.com/DreamCats/movierec/internal/catalog"
)

// MovieStore reads the catalog rows
type MovieStore struct {
	db *DB
}

// NewMovieStore creates a new movie store
func NewMovieStore(db *DB) *MovieStore {
	return &MovieStore{db: db}
}

// LoadItems returns all movies ordered by position
func (s *MovieStore) LoadItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.sqlDB.QueryContext(ctx, "SELECT movie_id, title, tags FROM movies ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var item catalog.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return items, nil
}

