package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cqlab/contentpipe/internal/catalog/postgres"
	"github.com/cqlab/contentpipe/internal/catalog/sqlite"
	"github.com/cqlab/contentpipe/internal/config"
	"github.com/cqlab/contentpipe/internal/importer"
	"github.com/cqlab/contentpipe/internal/queue"
)

// cmdImport runs a full import: fetch sources, dedup, validate, persist the
// retained set to the local catalog, and optionally announce the run.
func cmdImport(cfg *config.Config, args []string) error {
	publish := false
	var names []string
	for _, arg := range args {
		if arg == "--publish" {
			publish = true
			continue
		}
		names = append(names, arg)
	}

	orch := importer.NewOrchestrator(slog.Default())
	orch.Register(importer.NewDirSource("local", cfg.ContentPath))
	if cfg.RemoteContentURL != "" {
		orch.Register(importer.NewHTTPSource("remote", cfg.RemoteContentURL, slog.Default()))
	}

	if len(names) == 0 {
		names = orch.SourceNames()
	}

	ctx := context.Background()
	report, err := orch.Run(ctx, names, importer.Options{
		Enhance:          cfg.Enhance,
		EnhanceThreshold: cfg.EnhanceThreshold,
	})
	if err != nil {
		return fmt.Errorf("import run: %w", err)
	}

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	if err := store.SaveAll(ctx, report.Exercises); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}

	if cfg.DatabaseURL != "" {
		if err := pushToPlatform(ctx, cfg.DatabaseURL, report); err != nil {
			return err
		}
	}

	printReport(report)

	if publish {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()

		producer := queue.NewProducer(conn)
		err = producer.PublishImportCompleted(ctx, &queue.ImportCompleted{
			RunID:          report.RunID,
			Retained:       report.Summary.Retained,
			Duplicates:     report.Summary.Duplicates,
			FailedSources:  report.Summary.SourcesFailed,
			AverageQuality: report.Summary.AverageQuality,
			FinishedAt:     report.FinishedAt,
		})
		if err != nil {
			return fmt.Errorf("publish import event: %w", err)
		}
	}

	return nil
}

// pushToPlatform mirrors the retained set into the hosted platform catalog
func pushToPlatform(ctx context.Context, databaseURL string, report *importer.Report) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect platform database: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, ex := range report.Exercises {
		if err := repo.Save(ctx, ex); err != nil {
			return err
		}
	}

	slog.Info("platform catalog updated", "exercises", len(report.Exercises))
	return nil
}

func printReport(report *importer.Report) {
	fmt.Printf("Import run %s\n\n", report.RunID)

	fmt.Println("Sources:")
	for _, s := range report.Sources {
		if s.Status == importer.SourceFailed {
			fmt.Printf("  %-12s %s (%s)\n", s.Name, s.Status, s.Error)
			continue
		}
		fmt.Printf("  %-12s %s (%d records)\n", s.Name, s.Status, s.Records)
	}

	fmt.Printf("\nRetained:   %d\n", report.Summary.Retained)
	fmt.Printf("Migrated:   %d\n", report.Summary.Migrated)
	fmt.Printf("Duplicates: %d\n", report.Summary.Duplicates)
	fmt.Printf("Invalid:    %d\n", report.Summary.Invalid)
	fmt.Printf("Avg quality: %.1f\n", report.Summary.AverageQuality)

	if len(report.Quality) > 0 {
		fmt.Println("\nQuality distribution:")
		for _, bucket := range []string{"high", "medium", "low", "poor"} {
			if n, ok := report.Quality[bucket]; ok {
				fmt.Printf("  %-8s %d\n", bucket, n)
			}
		}
	}
}
