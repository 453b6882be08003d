package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes pipeline messages
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishSubmission publishes a learner submission for evaluation
func (p *Producer) PublishSubmission(ctx context.Context, job *SubmissionJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, SubmissionQueueName, job); err != nil {
		return fmt.Errorf("failed to publish submission: %w", err)
	}

	slog.Info("published submission",
		"job_id", job.ID,
		"user_id", job.UserID,
		"exercise_id", job.ExerciseID,
	)
	return nil
}

// PublishEvaluation publishes a judged submission result
func (p *Producer) PublishEvaluation(ctx context.Context, result *EvaluationResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, EvaluationQueueName, result); err != nil {
		return fmt.Errorf("failed to publish evaluation result: %w", err)
	}

	slog.Debug("published evaluation result",
		"job_id", result.JobID,
		"exercise_id", result.ExerciseID,
		"passed", result.Passed,
		"score", result.Score,
	)
	return nil
}

// PublishImportCompleted announces a finished import run
func (p *Producer) PublishImportCompleted(ctx context.Context, event *ImportCompleted) error {
	if event.FinishedAt.IsZero() {
		event.FinishedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ImportQueueName, event); err != nil {
		return fmt.Errorf("failed to publish import event: %w", err)
	}

	slog.Info("published import event",
		"run_id", event.RunID,
		"retained", event.Retained,
		"duplicates", event.Duplicates,
	)
	return nil
}
