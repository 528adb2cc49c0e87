package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raphaelgruber/branchcast/internal/db"
	"github.com/raphaelgruber/branchcast/internal/models"
)

// RetryPolicy bounds retries of extract fetches and publishes.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the stock retry bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, InitialInterval: 200 * time.Millisecond, MaxInterval: 5 * time.Second}
}

// isPermanent reports errors that a retry cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrNoSourceData) ||
		errors.Is(err, models.ErrInvalidConfiguration) ||
		errors.Is(err, db.ErrVersionExists) ||
		errors.Is(err, context.Canceled)
}

// retry runs fn with exponential backoff until it succeeds, fails
// permanently, or the attempts run out.
func (s *GenerationService) retry(ctx context.Context, op string, fn func() error) error {
	p := s.opts.Retry
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1))
	}

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.logger.Warn("retrying", "op", op, "error", err, "backoff", wait)
	})
}
