package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is RFC3339 with a fixed-width fraction so that stored
// timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ImportStore records import runs
type ImportStore struct {
	db *DB
}

// NewImportStore creates a new import run store
func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

// Record inserts an import run
func (s *ImportStore) Record(ctx context.Context, run ImportRun) error {
	_, err := s.db.sqlDB.ExecContext(ctx, `
		INSERT INTO import_runs (id, started_at, finished_at, movies, metadata, dimension, model, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Movies, run.Metadata, run.Dimension, run.Model, run.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

// List returns the most recent import runs, newest first
func (s *ImportStore) List(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.sqlDB.QueryContext(ctx, `
		SELECT id, started_at, finished_at, movies, metadata, dimension, model, source
		FROM import_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Movies, &run.Metadata, &run.Dimension, &run.Model, &run.Source); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("invalid started_at %q: %w", started, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("invalid finished_at %q: %w", finished, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import runs: %w", err)
	}
	return runs, nil
}

// Latest returns the newest import run, or nil when none was recorded
func (s *ImportStore) Latest(ctx context.Context) (*ImportRun, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Replace rewrites movies, embeddings and metadata in one transaction.
// Import runs are kept.
func (db *DB) Replace(ctx context.Context, snap Snapshot) error {
	if len(snap.Movies) != len(snap.Vectors) {
		return fmt.Errorf("movies and vectors length mismatch: %d vs %d", len(snap.Movies), len(snap.Vectors))
	}

	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"embeddings", "movies", "metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertMovies(ctx, tx, snap); err != nil {
		return err
	}
	if err := insertMetadata(ctx, tx, snap.Metadata); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertMovies(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	movieStmt, err := tx.PrepareContext(ctx, "INSERT INTO movies (position, movie_id, title, tags) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer movieStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO embeddings (movie_id, vector, dimension, model, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer vecStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, m := range snap.Movies {
		if _, err := movieStmt.ExecContext(ctx, i, m.ID, m.Title, m.Tags); err != nil {
			return fmt.Errorf("failed to insert movie %d: %w", m.ID, err)
		}
		vector := snap.Vectors[i]
		if len(vector) == 0 {
			return fmt.Errorf("movie %d has an empty vector", m.ID)
		}
		if _, err := vecStmt.ExecContext(ctx, m.ID, vectorToBlob(vector), len(vector), snap.Model, now); err != nil {
			return fmt.Errorf("failed to insert vector of movie %d: %w", m.ID, err)
		}
	}
	return nil
}

func insertMetadata(ctx context.Context, tx *sql.Tx, records []Metadata) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO metadata ("+metadataColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range records {
		var lists [4]string
		for i, values := range [][]string{m.Genres, m.ProductionCompanies, m.ProductionCountries, m.SpokenLanguages} {
			if lists[i], err = encodeList(values); err != nil {
				return fmt.Errorf("failed to encode lists of movie %d: %w", m.MovieID, err)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			m.MovieID, m.Title, m.Tagline, m.Overview, lists[0], m.OriginalLanguage, m.ReleaseDate,
			m.Runtime, m.Popularity, m.VoteAverage, m.VoteCount, m.Budget, m.Revenue, m.Status, m.Homepage,
			lists[1], lists[2], lists[3],
		); err != nil {
			return fmt.Errorf("failed to insert metadata of movie %d: %w", m.MovieID, err)
		}
	}
	return nil
}
