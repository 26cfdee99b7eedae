package mcpserver

import "github.com/DreamCats/movierec/internal/app"

// RecommendInput defines inputs for the movie_recommend MCP tool.
type RecommendInput struct {
	Title string `json:"title" jsonschema:"exact catalog title of a movie the user liked"`
	N     int    `json:"n,omitempty" jsonschema:"number of recommendations to return (default 5)"`
}

// SearchInput defines inputs for the movie_search MCP tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text description of the wanted movie (plot, mood, genre)"`
	N     int    `json:"n,omitempty" jsonschema:"number of results to return (default 5)"`
}

// RecommendOutput is the output of movie_recommend and movie_search.
type RecommendOutput struct {
	Mode    string             `json:"mode"`
	Input   string             `json:"input"`
	Count   int                `json:"count"`
	Results []app.MovieSummary `json:"results"`
}

// TitlesInput defines inputs for the movie_titles MCP tool.
type TitlesInput struct {
	Query string `json:"query,omitempty" jsonschema:"partial or misspelled title; empty lists the catalog head"`
	Limit int    `json:"limit,omitempty" jsonschema:"max suggestions (default 20)"`
}

// TitleMatch is one title suggestion.
type TitleMatch struct {
	MovieID int64   `json:"movie_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// TitlesOutput is the output of movie_titles.
type TitlesOutput struct {
	Query   string       `json:"query"`
	Count   int          `json:"count"`
	Matches []TitleMatch `json:"matches"`
}

// DetailsInput defines inputs for the movie_details MCP tool.
type DetailsInput struct {
	MovieID int64 `json:"movie_id" jsonschema:"movie identifier from a previous result"`
}

// MovieInfo is the metadata record of a movie.
type MovieInfo struct {
	MovieID             int64    `json:"movie_id"`
	Title               string   `json:"title"`
	Tagline             string   `json:"tagline,omitempty"`
	Overview            string   `json:"overview,omitempty"`
	Genres              []string `json:"genres"`
	OriginalLanguage    string   `json:"original_language,omitempty"`
	ReleaseDate         string   `json:"release_date,omitempty"`
	Runtime             int      `json:"runtime,omitempty"`
	Popularity          float64  `json:"popularity,omitempty"`
	VoteAverage         float64  `json:"vote_average,omitempty"`
	VoteCount           int64    `json:"vote_count,omitempty"`
	Budget              int64    `json:"budget,omitempty"`
	Revenue             int64    `json:"revenue,omitempty"`
	Status              string   `json:"status,omitempty"`
	Homepage            string   `json:"homepage,omitempty"`
	ProductionCompanies []string `json:"production_companies"`
	ProductionCountries []string `json:"production_countries"`
	SpokenLanguages     []string `json:"spoken_languages"`
	PosterURL           string   `json:"poster_url,omitempty"`
}

// DetailsOutput is the output of movie_details.
type DetailsOutput struct {
	Movie MovieInfo `json:"movie"`
}

// StatusInput defines inputs for the movie_status MCP tool.
type StatusInput struct{}

// CatalogStats describes the stored catalog.
type CatalogStats struct {
	Movies     int64  `json:"movies"`
	Embeddings int64  `json:"embeddings"`
	Metadata   int64  `json:"metadata"`
	Dimension  int    `json:"dimension"`
	Model      string `json:"model,omitempty"`
}

// StatusOutput reports catalog freshness.
type StatusOutput struct {
	Loaded         bool          `json:"loaded"`
	LoadedMovies   int           `json:"loaded_movies"`
	DatabasePath   string        `json:"database_path,omitempty"`
	DatabaseSize   string        `json:"database_size,omitempty"`
	Stats          *CatalogStats `json:"stats,omitempty"`
	LastImportID   string        `json:"last_import_id,omitempty"`
	LastImportedAt string        `json:"last_imported_at,omitempty"`
	ImportAge      string        `json:"import_age,omitempty"`
	Warning        string        `json:"warning,omitempty"`
}
