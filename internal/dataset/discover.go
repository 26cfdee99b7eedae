package dataset

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/store"
)

// FindMetadataFiles expands a doublestar pattern such as
// "data/**/tmdb_*_movies.csv" into a sorted list of files.
func FindMetadataFiles(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid metadata pattern: %s", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadMetadata reads every file matched by pattern. Records are merged in
// file order; the first occurrence of a movie id wins.
func LoadMetadata(pattern string) ([]store.Metadata, []string, error) {
	files, err := FindMetadataFiles(pattern)
	if err != nil {
		return nil, nil, err
	}

	var merged []store.Metadata
	seen := make(map[int64]bool)
	for _, path := range files {
		records, err := readMetadataFile(path)
		if err != nil {
			return nil, nil, err
		}

		added := 0
		for _, r := range records {
			if seen[r.MovieID] {
				continue
			}
			seen[r.MovieID] = true
			merged = append(merged, r)
			added++
		}
		logging.Debug().Str("file", path).Int("records", len(records)).Int("added", added).Msg("metadata file read")
	}

	return merged, files, nil
}

func readMetadataFile(path string) ([]store.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}
