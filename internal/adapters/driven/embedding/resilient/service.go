// Package resilient wraps an embedding service with bounded retries and
// client-side rate limiting.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure Service implements the interfaces.
var (
	_ driven.EmbeddingService = (*Service)(nil)
	_ driven.BatchLimiter     = (*Service)(nil)
)

// Default retry settings.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultMaxDelay   = 10 * time.Second
)

// Config controls retry and throttling behaviour.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// BaseDelay is the first backoff interval; it doubles per retry.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration

	// RateLimit throttles outgoing requests.
	RateLimit RateLimitConfig

	// RateLimitBackoff is the pause applied to all callers after a 429.
	RateLimitBackoff time.Duration
}

// Service decorates an EmbeddingService.
// Rate-limit and provider-unavailable errors are retried with exponential
// backoff; other errors and context cancellation return immediately.
type Service struct {
	next    driven.EmbeddingService
	cfg     Config
	limiter *RateLimiter
}

// New wraps next. Zero config fields take the defaults.
func New(next driven.EmbeddingService, cfg Config) *Service {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	return &Service{
		next:    next,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Embed generates a vector embedding for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.do(ctx, "embed", func(ctx context.Context) error {
		vec, err := s.next.Embed(ctx, text)
		if err != nil {
			return err
		}
		out = vec
		return nil
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := s.do(ctx, "embed batch", func(ctx context.Context) error {
		vecs, err := s.next.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		out = vecs
		return nil
	})
	return out, err
}

func (s *Service) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(s.cfg.BaseDelay)
	b = retry.WithCappedDuration(s.cfg.MaxDelay, b)
	b = retry.WithMaxRetries(s.cfg.MaxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return err
		}

		if errors.Is(err, domain.ErrRateLimited) {
			s.limiter.RecordRateLimit(s.cfg.RateLimitBackoff)
		}
		logger.Warn("%s attempt %d failed: %v", op, attempt, err)
		return retry.RetryableError(err)
	})
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrEmbeddingUnavailable)
}

// MaxBatchSize forwards the wrapped provider's limit, or zero if it has none.
func (s *Service) MaxBatchSize() int {
	if bl, ok := s.next.(driven.BatchLimiter); ok {
		return bl.MaxBatchSize()
	}
	return 0
}

// Dimensions returns the embedding vector size.
func (s *Service) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *Service) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service once, without retries.
func (s *Service) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close releases the wrapped service.
func (s *Service) Close() error {
	return s.next.Close()
}
