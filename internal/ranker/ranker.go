// Package ranker scores an embedding matrix against a query vector by cosine
// similarity and selects the top rows.
package ranker

import (
	"math"
	"sort"

	"github.com/DreamCats/movierec/internal/apperr"
)

// NoExclusion disables self-exclusion in Rank.
const NoExclusion = -1

// Scored is one ranked row of the matrix.
type Scored struct {
	Index int
	Score float64
}

// Cosine returns dot(a,b) / (|a|*|b|), accumulated in float64. Similarity
// with a zero vector is 0. Callers ensure equal lengths.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank returns the topN rows of matrix most similar to query, best first.
// Equal scores keep ascending index order. When exclude is a valid row index
// that row never appears in the result; pass NoExclusion (or any negative
// value) to rank every row.
//
// topN must be between 1 and the number of rankable rows (rows, or rows-1
// with an exclusion).
func Rank(query []float32, matrix [][]float32, topN int, exclude int) ([]Scored, error) {
	if len(query) == 0 {
		return nil, apperr.InvalidArgument("query vector is empty")
	}
	if len(matrix) == 0 {
		return nil, apperr.InvalidArgument("embedding matrix is empty")
	}
	if !Finite(query) {
		return nil, apperr.InvalidArgument("query vector has non-finite components")
	}
	if exclude >= len(matrix) {
		return nil, apperr.InvalidArgument("excluded index %d out of range [0, %d)", exclude, len(matrix))
	}

	available := len(matrix)
	if exclude >= 0 {
		available--
	}
	if topN < 1 || topN > available {
		return nil, apperr.InvalidArgument("top_n must be between 1 and %d, got %d", available, topN)
	}

	scores := make([]Scored, len(matrix))
	for i, row := range matrix {
		if len(row) != len(query) {
			return nil, apperr.InvalidArgument("row %d has dimension %d, query has %d", i, len(row), len(query))
		}
		if !Finite(row) {
			return nil, apperr.InvalidArgument("row %d has non-finite components", i)
		}
		scores[i] = Scored{Index: i, Score: Cosine(query, row)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if exclude < 0 {
		return scores[:topN], nil
	}

	window := scores[:topN+1]
	result := make([]Scored, 0, topN)
	for _, s := range window {
		if s.Index == exclude {
			continue
		}
		result = append(result, s)
	}
	// The excluded row fell outside the window: drop the weakest entry.
	if len(result) > topN {
		result = result[:topN]
	}
	return result, nil
}

// Finite reports whether v has no NaN or infinite components.
func Finite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
