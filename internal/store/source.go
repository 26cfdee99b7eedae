package store

import "github.com/DreamCats/movierec/internal/catalog"

// CatalogSource reads items and embeddings from the database
type CatalogSource struct {
	*MovieStore
	*VectorStore
}

// NewCatalogSource returns a catalog.Source backed by db
func NewCatalogSource(db *DB) catalog.Source {
	return &CatalogSource{
		MovieStore:  NewMovieStore(db),
		VectorStore: NewVectorStore(db),
	}
}
