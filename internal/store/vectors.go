package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DreamCats/movierec/internal/apperr"
)

// VectorStore reads movie embeddings
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new vector store
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// LoadEmbeddings returns the embedding matrix aligned with LoadItems. Every
// movie must have a vector.
func (v *VectorStore) LoadEmbeddings(ctx context.Context) ([][]float32, error) {
	query := `
		SELECT m.movie_id, e.vector, e.dimension
		FROM movies m
		LEFT JOIN embeddings e ON e.movie_id = m.movie_id
		ORDER BY m.position
	`
	rows, err := v.db.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var matrix [][]float32
	for rows.Next() {
		var movieID int64
		var blob []byte
		var dimension sql.NullInt64

		if err := rows.Scan(&movieID, &blob, &dimension); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		// LEFT JOIN leaves the vector columns NULL for a movie without embedding
		if !dimension.Valid {
			return nil, apperr.InvalidArgument("movie %d has no embedding", movieID)
		}

		// Convert blob back to vector
		vector, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode vector of movie %d: %w", movieID, err)
		}
		if len(vector) != int(dimension.Int64) {
			return nil, apperr.InvalidArgument("movie %d: vector dimension mismatch: expected %d, got %d", movieID, dimension.Int64, len(vector))
		}
		matrix = append(matrix, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return matrix, nil
}

// Helper functions for vector serialization

// vectorToBlob converts a float32 slice to a little-endian blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a little-endian blob to a float32 slice
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}
