package dataset

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// BatchEncoder embeds many texts at once, reporting progress after every
// provider call.
type BatchEncoder interface {
	EncodeBatchProgress(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error)
	Model() string
}

// Options selects the import inputs
type Options struct {
	MoviesFile   string
	MetadataGlob string
}

// Importer rebuilds the store from CSV files
type Importer struct {
	db       *store.DB
	runs     *store.ImportStore
	encoder  BatchEncoder
	progress Progress
}

// NewImporter creates an importer. progress may be nil.
func NewImporter(db *store.DB, encoder BatchEncoder, progress Progress) *Importer {
	return &Importer{
		db:       db,
		runs:     store.NewImportStore(db),
		encoder:  encoder,
		progress: progress,
	}
}

// Run reads the inputs, embeds every movie's tags and replaces the store
// content. The returned run has been recorded.
func (im *Importer) Run(ctx context.Context, opts Options) (*store.ImportRun, error) {
	run := &store.ImportRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Model:     im.encoder.Model(),
		Source:    opts.MoviesFile,
	}
	log := logging.With().Str("run_id", run.ID).Logger()

	movies, err := readMoviesFile(opts.MoviesFile)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("no movies in %s", opts.MoviesFile)
	}
	log.Info().Int("movies", len(movies)).Str("file", opts.MoviesFile).Msg("movies read")

	metadata, files, err := LoadMetadata(opts.MetadataGlob)
	if err != nil {
		return nil, err
	}
	if opts.MetadataGlob != "" && len(files) == 0 {
		log.Warn().Str("pattern", opts.MetadataGlob).Msg("no metadata files matched")
	}
	log.Info().Int("records", len(metadata)).Int("files", len(files)).Msg("metadata read")

	vectors, err := im.embed(ctx, movies)
	if err != nil {
		return nil, err
	}

	if err := im.db.Replace(ctx, store.Snapshot{
		Movies:   movies,
		Vectors:  vectors,
		Model:    run.Model,
		Metadata: metadata,
	}); err != nil {
		return nil, fmt.Errorf("failed to write store: %w", err)
	}

	run.FinishedAt = time.Now()
	run.Movies = len(movies)
	run.Metadata = len(metadata)
	run.Dimension = len(vectors[0])

	if err := im.runs.Record(ctx, *run); err != nil {
		return nil, err
	}

	log.Info().
		Int("movies", run.Movies).
		Int("dimension", run.Dimension).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("import finished")

	return run, nil
}

func (im *Importer) embed(ctx context.Context, movies []store.Movie) ([][]float32, error) {
	texts := make([]string, len(movies))
	for i, m := range movies {
		texts[i] = EmbeddingText(m)
	}

	var onProgress func(int)
	if im.progress != nil {
		im.progress.Start(len(texts))
		defer im.progress.Finish()
		onProgress = im.progress.Set
	}

	vectors, err := im.encoder.EncodeBatchProgress(ctx, texts, onProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to embed movies: %w", err)
	}
	return vectors, nil
}

// EmbeddingText is the text embedded for a movie: its tags, or its title
// when the movie has no tags.
func EmbeddingText(m store.Movie) string {
	if strings.TrimSpace(m.Tags) != "" {
		return m.Tags
	}
	return m.Title
}

func readMoviesFile(path string) ([]store.Movie, error) {
	if path == "" {
		return nil, fmt.Errorf("dataset.movies_file is not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	movies, err := ReadMovies(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return movies, nil
}
