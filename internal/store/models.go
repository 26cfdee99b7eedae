package store

import "time"

// Metadata is the TMDB record of a movie. It is keyed by movie id, never by
// catalog position.
type Metadata struct {
	MovieID             int64    `json:"movie_id"`
	Title               string   `json:"title"`
	Tagline             string   `json:"tagline,omitempty"`
	Overview            string   `json:"overview,omitempty"`
	Genres              []string `json:"genres"`
	OriginalLanguage    string   `json:"original_language,omitempty"`
	ReleaseDate         string   `json:"release_date,omitempty"`
	Runtime             int      `json:"runtime"` // minutes
	Popularity          float64  `json:"popularity"`
	VoteAverage         float64  `json:"vote_average"`
	VoteCount           int64    `json:"vote_count"`
	Budget              int64    `json:"budget"`
	Revenue             int64    `json:"revenue"`
	Status              string   `json:"status,omitempty"`
	Homepage            string   `json:"homepage,omitempty"`
	ProductionCompanies []string `json:"production_companies"`
	ProductionCountries []string `json:"production_countries"`
	SpokenLanguages     []string `json:"spoken_languages"`
}

// ImportRun records one execution of the offline import
type ImportRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Movies     int       `json:"movies"`
	Metadata   int       `json:"metadata"`
	Dimension  int       `json:"dimension"`
	Model      string    `json:"model"`
	Source     string    `json:"source,omitempty"`
}

// Snapshot is the full content written by Replace
type Snapshot struct {
	Movies   []Movie
	Vectors  [][]float32 // aligned with Movies
	Model    string
	Metadata []Metadata
}

// Movie is a stored catalog row
type Movie struct {
	ID    int64
	Title string
	Tags  string
}
