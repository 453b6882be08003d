package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// HTTPRunner executes submissions through a remote CQL execution service.
// Calls are wrapped with retry and a circuit breaker; when the service is
// down the evaluator's execution strategy fails closed instead of hanging.
type HTTPRunner struct {
	url     string
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[[]ExpressionResult]
	retrier retry.Retry[[]ExpressionResult]
	logger  *slog.Logger
}

type executeRequest struct {
	Source string `json:"source"`
}

type executeResponse struct {
	Results []ExpressionResult `json:"results"`
}

// NewHTTPRunner creates a runner backed by the execution service at url
func NewHTTPRunner(url string, logger *slog.Logger) *HTTPRunner {
	if logger == nil {
		logger = slog.Default()
	}

	r := &HTTPRunner{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}

	r.breaker = circuitbreaker.New[[]ExpressionResult](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("execution service circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	r.retrier = retry.New[[]ExpressionResult](retry.Config{
		MaxAttempts:   2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
	})

	return r
}

// Execute runs the source remotely and returns per-expression results
func (r *HTTPRunner) Execute(ctx context.Context, source string) ([]ExpressionResult, error) {
	return r.breaker.Execute(ctx, func(ctx context.Context) ([]ExpressionResult, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) ([]ExpressionResult, error) {
			return r.executeOnce(ctx, source)
		})
	})
}

func (r *HTTPRunner) executeOnce(ctx context.Context, source string) ([]ExpressionResult, error) {
	body, err := json.Marshal(executeRequest{Source: source})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execution service returned status %d", resp.StatusCode)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	r.logger.Debug("execution completed", "expressions", len(out.Results))
	return out.Results, nil
}
