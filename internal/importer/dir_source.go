package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/migrate"
)

// DirSource reads exercise documents from YAML files under a directory
// tree. Files carrying a `files:` or `validation:` section are parsed as
// structured exercises; everything else is treated as a legacy record.
type DirSource struct {
	name     string
	basePath string
}

// NewDirSource creates a directory-backed source
func NewDirSource(name, basePath string) *DirSource {
	return &DirSource{name: name, basePath: basePath}
}

// Name returns the source name used in import reports
func (s *DirSource) Name() string { return s.name }

// Fetch walks the directory and parses every YAML file. File order is
// sorted by path so legacy positional heuristics stay stable across runs.
func (s *DirSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	var paths []string
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.basePath, err)
	}
	sort.Strings(paths)

	records := make([]RawRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseFile(path string) (RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawRecord{}, fmt.Errorf("read file: %w", err)
	}

	// Probe the document shape before committing to a parse target.
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return RawRecord{}, fmt.Errorf("parse yaml: %w", err)
	}

	if _, hasFiles := probe["files"]; hasFiles {
		return parseExercise(data)
	}
	if _, hasValidation := probe["validation"]; hasValidation {
		return parseExercise(data)
	}

	var legacy migrate.LegacyRecord
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return RawRecord{}, fmt.Errorf("parse legacy record: %w", err)
	}
	return RawRecord{Legacy: &legacy}, nil
}

func parseExercise(data []byte) (RawRecord, error) {
	var ex domain.Exercise
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return RawRecord{}, fmt.Errorf("parse exercise: %w", err)
	}
	return RawRecord{Exercise: &ex}, nil
}
