package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/importer"
	"github.com/cqlab/contentpipe/internal/migrate"
	"github.com/cqlab/contentpipe/internal/quality"
	"github.com/cqlab/contentpipe/internal/schema"
)

// cmdValidate runs the schema validator over every exercise under a path
func cmdValidate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("content path required")
	}

	exercises, _, err := loadPath(args[0])
	if err != nil {
		return err
	}

	validator := schema.NewValidator()
	results := validator.ValidateCollection(exercises)

	invalid := 0
	for _, ex := range exercises {
		result := results[ex.ID]
		if result == nil || result.Valid {
			continue
		}
		invalid++
		fmt.Printf("%s:\n", ex.ID)
		for _, fe := range result.Errors {
			fmt.Printf("  [%s] %s: %s\n", fe.Severity, fe.Path, fe.Message)
		}
	}

	fmt.Printf("\n%d exercise(s), %d invalid\n", len(exercises), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid exercise(s)", invalid)
	}
	return nil
}

// cmdMigrate converts legacy records under a path and reports per-record
// results without persisting anything.
func cmdMigrate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("content path required")
	}

	_, legacy, err := loadPath(args[0])
	if err != nil {
		return err
	}
	if len(legacy) == 0 {
		fmt.Println("No legacy records found.")
		return nil
	}

	transformer := migrate.NewTransformer(slog.Default())
	results := transformer.MigrateAll(legacy)

	for _, r := range results {
		status := "ok"
		if !r.Valid {
			status = "INVALID"
		}
		flag := ""
		if r.Exercise.Metadata.NeedsManualPort {
			flag = " (needs manual port)"
		}
		fmt.Printf("  %-40s %-8s quality=%d%s\n", r.Exercise.ID, status, r.Quality.Score, flag)
	}

	fmt.Printf("\n%d record(s) migrated\n", len(results))
	return nil
}

// cmdCheck scores content quality for every exercise under a path
func cmdCheck(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("content path required")
	}

	exercises, _, err := loadPath(args[0])
	if err != nil {
		return err
	}

	checker := quality.NewChecker()
	for _, ex := range exercises {
		report := checker.Assess(ex)
		fmt.Printf("%s: %d\n", ex.ID, report.Score)
		for _, w := range report.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for _, s := range report.Suggestions {
			fmt.Printf("  suggest: %s\n", s)
		}
	}

	return nil
}

// loadPath reads a content directory and splits structured exercises from
// legacy records.
func loadPath(path string) ([]*domain.Exercise, []migrate.LegacyRecord, error) {
	src := importer.NewDirSource("local", path)
	records, err := src.Fetch(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}

	var exercises []*domain.Exercise
	var legacy []migrate.LegacyRecord
	for _, rec := range records {
		switch {
		case rec.Exercise != nil:
			exercises = append(exercises, rec.Exercise)
		case rec.Legacy != nil:
			legacy = append(legacy, *rec.Legacy)
		}
	}
	return exercises, legacy, nil
}
