package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/movierec/internal/config"
)

// LoadConfig reads the config at configPath, or the default path when empty
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample prints a minimal configuration to stderr
func PrintConfigExample() {
	configPath, err := config.DefaultPath()
	if err != nil {
		configPath = "~/.movierec/config/movierec.yaml"
	}

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Embedding provider (required)
embedding:
  # Provider: "ollama" | "openai" | "hashing"
  provider: ollama
  endpoint: http://localhost:11434/api/embed
  model: all-minilm
  dimensions: 384

# Input files for 'movierec import'
dataset:
  movies_file: ~/.movierec/data/movies.csv
  metadata_glob: ~/.movierec/data/**/tmdb_5000_movies.csv

# Posters (optional, placeholder when unset)
poster:
  api_key: your-tmdb-api-key

Usage:
  1. Create the config file
  2. Run: movierec import
  3. Ask: movierec recommend "Avatar"
`, configPath)
}
