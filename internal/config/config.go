package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file
const (
	EnvEmbeddingAPIKey = "MOVIEREC_EMBEDDING_API_KEY"
	EnvTMDBAPIKey      = "MOVIEREC_TMDB_API_KEY"
)

// Config holds the application configuration
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Dataset   DatasetConfig   `yaml:"dataset,omitempty"`
	Recommend RecommendConfig `yaml:"recommend,omitempty"`
	Poster    PosterConfig    `yaml:"poster,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama" | "openai" | "hashing"

	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`

	// Embedding parameters
	Dimensions int           `yaml:"dimensions"` // 384 for all-MiniLM-L6-v2
	BatchSize  int           `yaml:"batch_size"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Path to SQLite database file
	// If empty, uses ~/.movierec/data/movierec.db
	Path string `yaml:"path,omitempty"`
}

// DatasetConfig describes the CSV inputs of the import command
type DatasetConfig struct {
	MoviesFile   string `yaml:"movies_file,omitempty"`   // movie_id,title,tags
	MetadataGlob string `yaml:"metadata_glob,omitempty"` // doublestar pattern for TMDB csv files
}

// RecommendConfig holds recommendation defaults
type RecommendConfig struct {
	DefaultTopN int `yaml:"default_top_n,omitempty"`
	MaxTopN     int `yaml:"max_top_n,omitempty"`
}

// PosterConfig holds TMDB poster lookup configuration
type PosterConfig struct {
	APIKey         string        `yaml:"api_key,omitempty"`
	APIBase        string        `yaml:"api_base,omitempty"`
	ImageBase      string        `yaml:"image_base,omitempty"`
	Placeholder    string        `yaml:"placeholder,omitempty"`
	Language       string        `yaml:"language,omitempty"`
	RequestsPerSec float64       `yaml:"requests_per_sec,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
	RateLimit       int           `yaml:"rate_limit,omitempty"` // requests per minute per IP
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug | info | warn | error
	Format string `yaml:"format,omitempty"` // console | json
	Dir    string `yaml:"dir,omitempty"`    // log file directory, empty disables file logging
}

// DefaultPath returns ~/.movierec/config/movierec.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".movierec", "config", "movierec.yaml"), nil
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Run 'movierec import' once to write a template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvTMDBAPIKey); v != "" {
		c.Poster.APIKey = v
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	switch c.Embedding.Provider {
	case "ollama":
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = "http://localhost:11434/api/embed"
		}
		if c.Embedding.Model == "" {
			c.Embedding.Model = "all-minilm"
		}
	case "openai":
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = "https://api.openai.com/v1/embeddings"
		}
		if c.Embedding.Model == "" {
			c.Embedding.Model = "text-embedding-3-small"
		}
	case "hashing":
		if c.Embedding.Model == "" {
			c.Embedding.Model = "fnv-hashing"
		}
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = 30 * time.Second
	}

	if c.Database.Path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.Database.Path = filepath.Join(homeDir, ".movierec", "data", "movierec.db")
		}
	}
	c.Database.Path = expandPath(c.Database.Path)
	c.Dataset.MoviesFile = expandPath(c.Dataset.MoviesFile)
	c.Dataset.MetadataGlob = expandPath(c.Dataset.MetadataGlob)

	if c.Recommend.DefaultTopN == 0 {
		c.Recommend.DefaultTopN = 5
	}
	if c.Recommend.MaxTopN == 0 {
		c.Recommend.MaxTopN = 50
	}

	if c.Poster.APIBase == "" {
		c.Poster.APIBase = "https://api.themoviedb.org/3"
	}
	if c.Poster.ImageBase == "" {
		c.Poster.ImageBase = "https://image.tmdb.org/t/p/w500"
	}
	if c.Poster.Placeholder == "" {
		c.Poster.Placeholder = "https://via.placeholder.com/500x750?text=No+Poster"
	}
	if c.Poster.Language == "" {
		c.Poster.Language = "en-US"
	}
	if c.Poster.RequestsPerSec == 0 {
		c.Poster.RequestsPerSec = 20
	}
	if c.Poster.Timeout == 0 {
		c.Poster.Timeout = 5 * time.Second
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 120
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	c.Log.Dir = expandPath(c.Log.Dir)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" && strings.Contains(c.Embedding.Endpoint, "api.openai.com") {
			return fmt.Errorf("openai provider requires api_key")
		}
	case "ollama", "hashing":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 512 {
		return fmt.Errorf("batch_size must be between 1 and 512, got: %d", c.Embedding.BatchSize)
	}

	if c.Recommend.DefaultTopN <= 0 {
		return fmt.Errorf("recommend.default_top_n must be positive, got: %d", c.Recommend.DefaultTopN)
	}
	if c.Recommend.MaxTopN < c.Recommend.DefaultTopN {
		return fmt.Errorf("recommend.max_top_n (%d) is below default_top_n (%d)", c.Recommend.MaxTopN, c.Recommend.DefaultTopN)
	}

	if c.Poster.RequestsPerSec < 0 {
		return fmt.Errorf("poster.requests_per_sec must not be negative")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got: %s", c.Log.Format)
	}

	return nil
}

// SaveToFile saves the configuration to a specific file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

const defaultConfigTemplate = `# movierec configuration
#
# Default location: $HOME/.movierec/config/movierec.yaml

embedding:
  # Provider: "ollama", "openai" or "hashing" (offline, for development)
  provider: ollama
  endpoint: http://localhost:11434/api/embed
  model: all-minilm
  dimensions: 384
  batch_size: 32

  # OpenAI-compatible server (OpenAI, text-embeddings-inference, llama.cpp)
  # provider: openai
  # endpoint: https://api.openai.com/v1/embeddings
  # api_key: your-api-key
  # model: text-embedding-3-small
  # dimensions: 1536

dataset:
  movies_file: ~/.movierec/dataset/movies.csv
  metadata_glob: ~/.movierec/dataset/**/tmdb_*_movies.csv

poster:
  # TMDB v3 api key, or set MOVIEREC_TMDB_API_KEY
  api_key: ""

server:
  addr: ":8080"

log:
  level: info
  format: console
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
