package taskqueue

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// retry runs fn up to maxRetries times with exponential backoff starting
// at 100ms.
func retry(ctx context.Context, maxRetries int, operation, id string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying task queue operation",
				slog.String("operation", operation),
				slog.String("notification_id", id),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	slog.ErrorContext(ctx, "all retries exhausted for task queue operation",
		slog.String("operation", operation),
		slog.String("notification_id", id),
		slog.Int("max_retries", maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("failed to %s after %d retries: %w", operation, maxRetries, lastErr)
}
