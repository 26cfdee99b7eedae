// Package titleindex provides title suggestions for the movie picker from an
// in-memory bleve index.
package titleindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/DreamCats/movierec/internal/catalog"
)

// Suggestion is one matching title
type Suggestion struct {
	MovieID int64   `json:"movie_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score,omitempty"`
}

type titleDoc struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Index is a read-only title index over a catalog
type Index struct {
	index bleve.Index
	items []catalog.Item
}

// Build indexes every catalog title
func Build(items []catalog.Item) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	batch := index.NewBatch()
	for i, item := range items {
		if err := batch.Index(strconv.Itoa(i), titleDoc{Title: item.Title, Position: i}); err != nil {
			index.Close()
			return nil, fmt.Errorf("index title %q: %w", item.Title, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("commit title index: %w", err)
	}

	return &Index{index: index, items: items}, nil
}

// Close releases the index
func (x *Index) Close() error {
	return x.index.Close()
}

// Suggest returns up to n titles matching q by word prefix or a one-edit
// fuzzy match, best score first and ties in catalog order. An empty q lists
// the first n titles of the catalog.
func (x *Index) Suggest(q string, n int) ([]Suggestion, error) {
	if n <= 0 {
		return nil, nil
	}

	q = strings.TrimSpace(q)
	if q == "" {
		if n > len(x.items) {
			n = len(x.items)
		}
		out := make([]Suggestion, n)
		for i := 0; i < n; i++ {
			out[i] = Suggestion{MovieID: x.items[i].ID, Title: x.items[i].Title}
		}
		return out, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), n, 0, false)
	req.SortBy([]string{"-_score", "position"})

	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}

	out := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(x.items) {
			continue
		}
		out = append(out, Suggestion{
			MovieID: x.items[pos].ID,
			Title:   x.items[pos].Title,
			Score:   hit.Score,
		})
	}
	return out, nil
}

func buildQuery(q string) query.Query {
	phrase := bleve.NewMatchPhraseQuery(q)
	phrase.SetField("title")
	phrase.SetBoost(3)

	queries := []query.Query{phrase}

	for _, token := range strings.Fields(strings.ToLower(q)) {
		prefix := bleve.NewPrefixQuery(token)
		prefix.SetField("title")
		queries = append(queries, prefix)

		if len([]rune(token)) >= 4 {
			fuzzy := bleve.NewFuzzyQuery(token)
			fuzzy.SetField("title")
			fuzzy.SetFuzziness(1)
			fuzzy.SetBoost(0.5)
			queries = append(queries, fuzzy)
		}
	}

	return bleve.NewDisjunctionQuery(queries...)
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = false
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	positionField := bleve.NewNumericFieldMapping()
	positionField.Store = false
	positionField.Index = true
	docMapping.AddFieldMappingsAt("position", positionField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
