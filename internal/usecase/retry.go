package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment_gateway/internal/domain/entities"
	"payment_gateway/internal/infrastructure/config"
	"payment_gateway/internal/infrastructure/logging"

	"go.uber.org/zap"
)

// nextBackoff grows the delay geometrically and clamps it to the configured maximum.
func nextBackoff(cfg config.RetryConfig, current time.Duration) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxBackoff || next <= 0 {
		return cfg.MaxBackoff
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// callProvider runs fn with a per-attempt timeout, retrying only retryable
// failures. Once attempts (or ctx) run out it returns ErrGatewayTimeout
// wrapping the last provider error.
func (r *GatewayRouter) callProvider(ctx context.Context, provider, op, paymentID string, fn func(ctx context.Context) error) error {
	backoff := r.retry.InitialBackoff
	var lastErr error
	attempts := 0

	for attempts < r.retry.MaxAttempts {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, r.retry.CallTimeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			r.metrics.ProviderCall(provider, op, "ok")
			if attempts > 1 {
				r.log.Info("provider call recovered",
					logging.Provider(provider), logging.PaymentID(paymentID),
					zap.String("op", op), zap.Int("attempts", attempts))
			}
			return nil
		}

		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = entities.NewProviderError(provider, op, entities.ErrProviderUnavailable, err)
		}
		lastErr = err

		if !entities.IsRetryable(err) {
			result := "error"
			if entities.IsRejection(err) {
				result = "rejected"
			}
			r.metrics.ProviderCall(provider, op, result)
			r.log.Warn("provider call failed",
				logging.Provider(provider), logging.PaymentID(paymentID),
				zap.String("op", op), zap.Int("attempt", attempts), zap.Error(err))
			return err
		}

		r.metrics.ProviderCall(provider, op, "unavailable")
		if attempts == r.retry.MaxAttempts || ctx.Err() != nil {
			break
		}
		r.metrics.ProviderRetry(provider, op)
		r.log.Warn("provider unavailable, retrying",
			logging.Provider(provider), logging.PaymentID(paymentID),
			zap.String("op", op), zap.Int("attempt", attempts),
			zap.Duration("backoff", backoff), zap.Error(err))
		if err := r.sleep(ctx, backoff); err != nil {
			break
		}
		backoff = nextBackoff(r.retry, backoff)
	}

	r.metrics.ProviderCall(provider, op, "timeout")
	r.log.Error("provider call gave up",
		logging.Provider(provider), logging.PaymentID(paymentID),
		zap.String("op", op), zap.Int("attempts", attempts), zap.Error(lastErr))
	return fmt.Errorf("%w: %s %s after %d attempts: %w", entities.ErrGatewayTimeout, provider, op, attempts, lastErr)
}
