package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cqlab/contentpipe/internal/answer"
	"github.com/cqlab/contentpipe/internal/catalog"
	"github.com/cqlab/contentpipe/internal/catalog/sqlite"
	"github.com/cqlab/contentpipe/internal/config"
	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/queue"
)

// cmdWorker runs the submission evaluation worker: submissions in, judged
// results out.
func cmdWorker(cfg *config.Config) error {
	ctx := context.Background()

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	registry := catalog.NewRegistry()
	exercises, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	for _, ex := range exercises {
		if err := registry.Replace(ex); err != nil {
			return fmt.Errorf("load exercise %s: %w", ex.ID, err)
		}
	}
	slog.Info("catalog loaded", "exercises", len(exercises))

	conn, err := queue.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer conn.Close()

	evalOpts := []answer.Option{answer.WithLogger(slog.Default())}
	if cfg.CQLRunnerURL != "" {
		evalOpts = append(evalOpts, answer.WithRunner(answer.NewHTTPRunner(cfg.CQLRunnerURL, slog.Default())))
		slog.Info("execution service configured", "url", cfg.CQLRunnerURL)
	}
	evaluator := answer.NewEvaluator(evalOpts...)

	handler := func(ctx context.Context, job *queue.SubmissionJob) (*queue.EvaluationResult, error) {
		ex, err := registry.Get(job.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("unknown exercise %s: %w", job.ExerciseID, err)
		}

		result := evaluator.Evaluate(ctx, ex, job.Code)
		return &queue.EvaluationResult{
			Passed:   result.Passed,
			Score:    result.Score,
			Feedback: result.Feedback,
		}, nil
	}

	consumer := queue.NewConsumer(conn, handler, queue.ConsumerConfig{
		Workers: cfg.EvalWorkers,
		Timeout: time.Duration(cfg.EvalTimeout) * time.Second,
	})
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	slog.Info("evaluation worker running", "workers", cfg.EvalWorkers)

	// Block until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")
	consumer.Stop()
	return nil
}

// cmdStats prints catalog statistics from the local store
func cmdStats(cfg *config.Config) error {
	ctx := context.Background()

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	exercises, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	registry := catalog.NewRegistry()
	for _, ex := range exercises {
		if err := registry.Replace(ex); err != nil {
			return err
		}
	}

	stats := registry.Stats()
	fmt.Printf("Exercises:   %d\n", stats.ExerciseCount)
	fmt.Printf("Avg quality: %.1f\n", stats.AverageQuality)

	fmt.Println("\nBy difficulty:")
	for _, d := range []domain.Difficulty{
		domain.DifficultyBeginner,
		domain.DifficultyIntermediate,
		domain.DifficultyAdvanced,
		domain.DifficultyExpert,
	} {
		if n := stats.ByDifficulty[string(d)]; n > 0 {
			fmt.Printf("  %-12s %d\n", d, n)
		}
	}

	fmt.Println("\nBy type:")
	for t, n := range stats.ByType {
		fmt.Printf("  %-12s %d\n", t, n)
	}

	return nil
}
