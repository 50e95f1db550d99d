package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamewatch/gamewatch/internal/types"
)

// Do runs fn up to attempts times without backoff; the inter-item crawl
// delay already paces requests. It stops early on context cancellation or
// an error marked non-retryable.
func Do(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var fe *types.FetchError
		if errors.As(lastErr, &fe) && !fe.IsRetryable() {
			return lastErr
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", types.ErrMaxRetries, attempts, lastErr)
}
