package download

import (
	"context"
	"time"

	"github.com/fwojciec/feedsnap"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// RetryFunc is called before each retry with the number of the attempt
// about to be made and the error that caused it.
type RetryFunc func(attempt int, err error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetry fetches url, retrying transient failures up to maxRetries
// times. The wait before retry i is delays[i], or the last delay once the
// slice is exhausted; an empty slice retries immediately. It returns the
// number of attempts made alongside the result.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, maxRetries int, delays []time.Duration, onRetry RetryFunc) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		data, err := fetch(ctx, url)
		if err == nil {
			return data, attempt + 1, nil
		}
		lastErr = err

		if !feedsnap.IsTransient(err) || attempt >= maxRetries {
			return nil, attempt + 1, lastErr
		}

		if err := ctx.Err(); err != nil {
			return nil, attempt + 1, err
		}

		if onRetry != nil {
			onRetry(attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, attempt + 1, ctx.Err()
		case <-time.After(delayFor(delays, attempt)):
		}
	}
	return nil, maxRetries + 1, lastErr
}

func delayFor(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	return delays[min(attempt, len(delays)-1)]
}
