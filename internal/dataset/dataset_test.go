package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DreamCats/movierec/internal/catalog"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/embedding"
	"github.com/DreamCats/movierec/internal/store"
)

const moviesCSV = `movie_id,title,tags
19995,Avatar,"in the 22nd century, a paraplegic marine is dispatched to the moon pandora"
285,Pirates of the Caribbean: At World's End,"captain barbossa, will turner and elizabeth swann"
206647,Spectre,"a cryptic message from bond's past sends him on a trail"
19995,Avatar,duplicate row
49026,The Dark Knight Rises,
`

const tmdbCSV = `budget,genres,homepage,id,original_language,overview,popularity,release_date,revenue,runtime,spoken_languages,status,tagline,title,vote_average,vote_count
237000000,"[{""id"": 28, ""name"": ""Action""}, {""id"": 878, ""name"": ""Science Fiction""}]",http://www.avatarmovie.com/,19995,en,In the 22nd century...,150.437577,2009-12-10,2787965087,162.0,"[{""iso_639_1"": ""en"", ""name"": ""English""}]",Released,Enter the World of Pandora.,Avatar,7.2,11800
245000000,not json,,206647,en,A cryptic message...,107.376788,2015-10-26,880674609,148,[],Released,A Plan No One Escapes,Spectre,6.3,4466
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestReadMovies(t *testing.T) {
	movies, err := ReadMovies(strings.NewReader(moviesCSV))
	if err != nil {
		t.Fatalf("ReadMovies() error = %v", err)
	}
	if len(movies) != 4 {
		t.Fatalf("got %d movies, want 4 (duplicate skipped)", len(movies))
	}
	if movies[0].ID != 19995 || !strings.HasPrefix(movies[0].Tags, "in the 22nd century") {
		t.Errorf("movies[0] = %+v", movies[0])
	}
	if movies[3].Tags != "" {
		t.Errorf("movies[3].Tags = %q, want empty", movies[3].Tags)
	}
}

func TestReadMoviesErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"missing title", "movie_id,tags\n1,x\n"},
		{"bad id", "movie_id,title,tags\nabc,Alien,space\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadMovies(strings.NewReader(tt.csv)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReadMetadata(t *testing.T) {
	records, err := ReadMetadata(strings.NewReader(tmdbCSV))
	if err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}

	avatar := records[0]
	if avatar.MovieID != 19995 || avatar.Runtime != 162 || avatar.Revenue != 2787965087 {
		t.Errorf("avatar = %+v", avatar)
	}
	if strings.Join(avatar.Genres, ",") != "Action,Science Fiction" {
		t.Errorf("Genres = %v", avatar.Genres)
	}
	if len(avatar.SpokenLanguages) != 1 || avatar.SpokenLanguages[0] != "English" {
		t.Errorf("SpokenLanguages = %v", avatar.SpokenLanguages)
	}
	if avatar.ProductionCompanies == nil || len(avatar.ProductionCompanies) != 0 {
		t.Errorf("missing column should give empty list, got %#v", avatar.ProductionCompanies)
	}

	spectre := records[1]
	if len(spectre.Genres) != 0 {
		t.Errorf("unparsable genres should be empty, got %v", spectre.Genres)
	}
	if spectre.Tagline != "A Plan No One Escapes" || spectre.VoteCount != 4466 {
		t.Errorf("spectre = %+v", spectre)
	}
}

func TestParseNameList(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`[{"id": 18, "name": "Drama"}]`, "Drama"},
		{`[]`, ""},
		{``, ""},
		{`[{"id": 1}]`, ""},
		{`Drama|Comedy`, ""},
	}
	for _, tt := range tests {
		if got := strings.Join(parseNameList(tt.raw), "|"); got != tt.want {
			t.Errorf("parseNameList(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLoadMetadataMergesFirstWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "tmdb_5000_movies.csv"), tmdbCSV)
	writeFile(t, filepath.Join(dir, "b", "nested", "tmdb_extra_movies.csv"),
		"id,title,tagline\n19995,Avatar,Second tagline\n1,Solaris,\n")
	writeFile(t, filepath.Join(dir, "b", "credits.csv"), "id\n2\n")

	records, files, err := LoadMetadata(filepath.Join(dir, "**", "tmdb_*_movies.csv"))
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("matched %v, want 2 files", files)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for _, r := range records {
		if r.MovieID == 19995 && r.Tagline != "Enter the World of Pandora." {
			t.Errorf("first occurrence should win, got tagline %q", r.Tagline)
		}
	}
}

func TestFindMetadataFilesEmptyPattern(t *testing.T) {
	files, err := FindMetadataFiles("")
	if err != nil || files != nil {
		t.Fatalf("FindMetadataFiles(\"\") = %v, %v", files, err)
	}
}

type recordingProgress struct {
	total, last int
	finished    bool
}

func (p *recordingProgress) Start(total int) { p.total = total }
func (p *recordingProgress) Set(done int)    { p.last = done }
func (p *recordingProgress) Finish()         { p.finished = true }

func TestImporterRun(t *testing.T) {
	dir := t.TempDir()
	moviesPath := filepath.Join(dir, "movies.csv")
	writeFile(t, moviesPath, moviesCSV)
	writeFile(t, filepath.Join(dir, "tmdb", "tmdb_5000_movies.csv"), tmdbCSV)

	db, err := store.Open(filepath.Join(dir, "movierec.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer db.Close()

	cfg := &config.EmbeddingConfig{Provider: "hashing", Model: "fnv-hashing", Dimensions: 32, BatchSize: 2}
	svc, err := embedding.NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	progress := &recordingProgress{}
	run, err := NewImporter(db, svc, progress).Run(context.Background(), Options{
		MoviesFile:   moviesPath,
		MetadataGlob: filepath.Join(dir, "tmdb", "*.csv"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if run.ID == "" || run.Movies != 4 || run.Metadata != 2 || run.Dimension != 32 || run.Model != "fnv-hashing" {
		t.Errorf("run = %+v", run)
	}
	if progress.total != 4 || progress.last != 4 || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}

	c, err := catalog.NewLoader(store.NewCatalogSource(db)).Load(context.Background())
	if err != nil {
		t.Fatalf("catalog load error = %v", err)
	}
	if c.Len() != 4 {
		t.Errorf("catalog has %d movies, want 4", c.Len())
	}

	latest, err := store.NewImportStore(db).Latest(context.Background())
	if err != nil || latest == nil || latest.ID != run.ID {
		t.Errorf("Latest() = %+v, %v", latest, err)
	}
}

func TestImporterMissingMoviesFile(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "movierec.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer db.Close()

	svc, _ := embedding.NewService(&config.EmbeddingConfig{Provider: "hashing", Dimensions: 8, BatchSize: 4})
	if _, err := NewImporter(db, svc, nil).Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error without movies file")
	}
}

func TestEmbeddingTextFallsBackToTitle(t *testing.T) {
	if got := EmbeddingText(store.Movie{Title: "Heat", Tags: "  "}); got != "Heat" {
		t.Errorf("EmbeddingText() = %q, want Heat", got)
	}
	if got := EmbeddingText(store.Movie{Title: "Heat", Tags: "heist la"}); got != "heist la" {
		t.Errorf("EmbeddingText() = %q", got)
	}
}
