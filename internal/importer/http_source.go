package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// HTTPSource fetches a JSON batch from a remote content service. Fetches
// are wrapped with retry and a circuit breaker so one flaky upstream cannot
// stall an import run.
type HTTPSource struct {
	name    string
	url     string
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[[]RawRecord]
	retrier retry.Retry[[]RawRecord]
	logger  *slog.Logger
}

// httpBatch is the remote service's response envelope
type httpBatch struct {
	Records []RawRecord `json:"records"`
}

// NewHTTPSource creates a resilient HTTP-backed source
func NewHTTPSource(name, url string, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}

	s := &HTTPSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}

	s.breaker = circuitbreaker.New[[]RawRecord](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("content source circuit breaker state change",
				"source", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	s.retrier = retry.New[[]RawRecord](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      15 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
	})

	return s
}

// Name returns the source name used in import reports
func (s *HTTPSource) Name() string { return s.name }

// Fetch retrieves the remote batch through the breaker and retrier
func (s *HTTPSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	return s.breaker.Execute(ctx, func(ctx context.Context) ([]RawRecord, error) {
		return s.retrier.Do(ctx, s.fetchOnce)
	})
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", s.url, resp.StatusCode)
	}

	var batch httpBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	s.logger.Debug("fetched remote batch", "source", s.name, "records", len(batch.Records))
	return batch.Records, nil
}
