// Package catalog holds the immutable movie collection and its aligned
// embedding matrix.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/ranker"
)

// Item is one recommendable movie.
type Item struct {
	ID    int64  `json:"movie_id"`
	Title string `json:"title"`
	Tags  string `json:"-"`
}

// Catalog pairs the items with their embeddings. Row i of the matrix belongs
// to item i. A Catalog is never mutated after New returns.
type Catalog struct {
	items     []Item
	matrix    [][]float32
	dimension int
	byTitle   map[string]int
	byID      map[int64]int
}

// New validates items and matrix and builds the lookup indexes. Duplicate
// titles resolve to the first item in load order.
func New(items []Item, matrix [][]float32) (*Catalog, error) {
	if len(items) == 0 {
		return nil, apperr.InvalidArgument("catalog has no items")
	}
	if len(items) != len(matrix) {
		return nil, apperr.InvalidArgument("catalog has %d items but %d embeddings", len(items), len(matrix))
	}

	dimension := len(matrix[0])
	if dimension == 0 {
		return nil, apperr.InvalidArgument("embedding dimension is zero")
	}

	c := &Catalog{
		items:     items,
		matrix:    matrix,
		dimension: dimension,
		byTitle:   make(map[string]int, len(items)),
		byID:      make(map[int64]int, len(items)),
	}

	for i, item := range items {
		if len(matrix[i]) != dimension {
			return nil, apperr.InvalidArgument("embedding %d has dimension %d, expected %d", i, len(matrix[i]), dimension)
		}
		if !ranker.Finite(matrix[i]) {
			return nil, apperr.InvalidArgument("embedding %d has non-finite components", i)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, apperr.InvalidArgument("duplicate movie id %d", item.ID)
		}
		c.byID[item.ID] = i
		if _, seen := c.byTitle[item.Title]; !seen {
			c.byTitle[item.Title] = i
		}
	}

	return c, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Dimension returns the embedding dimension D.
func (c *Catalog) Dimension() int {
	return c.dimension
}

// Item returns the item at position i.
func (c *Catalog) Item(i int) Item {
	return c.items[i]
}

// Items returns the items in load order. Callers must not modify the slice.
func (c *Catalog) Items() []Item {
	return c.items
}

// Matrix returns the embedding matrix. Callers must not modify it.
func (c *Catalog) Matrix() [][]float32 {
	return c.matrix
}

// Vector returns the embedding of the item at position i.
func (c *Catalog) Vector(i int) []float32 {
	return c.matrix[i]
}

// IndexOfTitle resolves an exact title to a position.
func (c *Catalog) IndexOfTitle(title string) (int, error) {
	i, ok := c.byTitle[title]
	if !ok {
		return 0, apperr.NotFound("unknown title %q", title)
	}
	return i, nil
}

// IndexOfID resolves a movie identifier to a position.
func (c *Catalog) IndexOfID(id int64) (int, error) {
	i, ok := c.byID[id]
	if !ok {
		return 0, apperr.NotFound("unknown movie id %d", id)
	}
	return i, nil
}

// Source provides the raw catalog data.
type Source interface {
	LoadItems(ctx context.Context) ([]Item, error)
	LoadEmbeddings(ctx context.Context) ([][]float32, error)
}

// Loader reads a Source at most once per process.
type Loader struct {
	source Source

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewLoader creates a loader over source.
func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load returns the catalog, reading the source on the first call only. Later
// calls return the same catalog or the same error.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	l.once.Do(func() {
		l.catalog, l.err = load(ctx, l.source)
	})
	return l.catalog, l.err
}

func load(ctx context.Context, source Source) (*Catalog, error) {
	items, err := source.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	matrix, err := source.LoadEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	return New(items, matrix)
}
