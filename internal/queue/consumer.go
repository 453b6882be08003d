package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SubmissionHandler judges one submission
type SubmissionHandler func(ctx context.Context, job *SubmissionJob) (*EvaluationResult, error)

// Consumer consumes submissions from the queue, judges them, and publishes
// the results.
type Consumer struct {
	conn       *Connection
	handler    SubmissionHandler
	producer   *Producer
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // Number of concurrent workers
	Prefetch int           // Prefetch count per worker
	Timeout  time.Duration // Per-submission evaluation timeout
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // Process one at a time per worker for fairness
		Timeout:  30 * time.Second,
	}
}

// NewConsumer creates a new submission consumer
func NewConsumer(conn *Connection, handler SubmissionHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		producer: NewProducer(conn),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		SubmissionQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting submission consumer", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single submission
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	start := time.Now()

	var job SubmissionJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal submission",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	slog.Info("judging submission",
		"worker_id", workerID,
		"job_id", job.ID,
		"user_id", job.UserID,
		"exercise_id", job.ExerciseID,
	)

	jobCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.handler(jobCtx, &job)
	duration := time.Since(start)

	if err != nil {
		slog.Error("submission judging failed",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
			"duration", duration,
		)

		result = &EvaluationResult{
			JobID:       job.ID,
			ExerciseID:  job.ExerciseID,
			Status:      "failed",
			Error:       err.Error(),
			Duration:    duration,
			CompletedAt: time.Now(),
		}
	} else {
		result.JobID = job.ID
		result.ExerciseID = job.ExerciseID
		result.Duration = duration
		result.CompletedAt = time.Now()
		if result.Status == "" {
			result.Status = "completed"
		}

		slog.Info("submission judged",
			"worker_id", workerID,
			"job_id", job.ID,
			"passed", result.Passed,
			"score", result.Score,
			"duration", duration,
		)
	}

	if err := c.producer.PublishEvaluation(ctx, result); err != nil {
		slog.Error("failed to publish evaluation result",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// EvaluationConsumer consumes judged results (for the platform API to
// stream back to clients).
type EvaluationConsumer struct {
	conn       *Connection
	handlers   map[string]EvaluationHandler
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// EvaluationHandler handles a result for a specific job
type EvaluationHandler func(result *EvaluationResult)

// NewEvaluationConsumer creates an evaluation result consumer
func NewEvaluationConsumer(conn *Connection) *EvaluationConsumer {
	return &EvaluationConsumer{
		conn:     conn,
		handlers: make(map[string]EvaluationHandler),
	}
}

// Subscribe registers a handler for results of a specific job
func (ec *EvaluationConsumer) Subscribe(jobID string, handler EvaluationHandler) {
	ec.handlersMu.Lock()
	defer ec.handlersMu.Unlock()
	ec.handlers[jobID] = handler
}

// Unsubscribe removes a handler
func (ec *EvaluationConsumer) Unsubscribe(jobID string) {
	ec.handlersMu.Lock()
	defer ec.handlersMu.Unlock()
	delete(ec.handlers, jobID)
}

// Start begins consuming results
func (ec *EvaluationConsumer) Start(ctx context.Context) error {
	ctx, ec.cancelFunc = context.WithCancel(ctx)

	ch := ec.conn.Channel()

	msgs, err := ch.Consume(
		EvaluationQueueName,
		"",    // consumer tag
		true,  // auto-ack (results are fire-and-forget)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start evaluation consumer: %w", err)
	}

	ec.wg.Add(1)
	go ec.consume(ctx, msgs)

	return nil
}

func (ec *EvaluationConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer ec.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var result EvaluationResult
			if err := json.Unmarshal(msg.Body, &result); err != nil {
				slog.Error("failed to unmarshal evaluation result", "error", err)
				continue
			}

			ec.handlersMu.RLock()
			handler, ok := ec.handlers[result.JobID.String()]
			ec.handlersMu.RUnlock()

			if ok {
				handler(&result)
			}
		}
	}
}

// Stop stops the evaluation consumer
func (ec *EvaluationConsumer) Stop() {
	if ec.cancelFunc != nil {
		ec.cancelFunc()
	}
	ec.wg.Wait()
}
