package misc

import (
	"context"
	"time"
)

// DefaultBackoff is the delay schedule used by the stores and the audit client.
var DefaultBackoff = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// Retry runs op until it succeeds, the error is not retryable, the schedule is
// used up or ctx is done. It makes at most len(delays)+1 attempts; a nil
// isRetryable retries every error.
func Retry(ctx context.Context, delays []time.Duration, isRetryable func(error) bool, op func() error) error {
	return RetryNotify(ctx, delays, isRetryable, op, nil)
}

// RetryNotify is Retry calling notify with the failed attempt number, its
// error and the upcoming wait before every pause.
func RetryNotify(
	ctx context.Context,
	delays []time.Duration,
	isRetryable func(error) bool,
	op func() error,
	notify func(attempt int, err error, wait time.Duration),
) error {
	for attempt := 1; ; attempt++ {
		err := op()
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case attempt > len(delays), isRetryable != nil && !isRetryable(err):
			return err
		}
		wait := delays[attempt-1]
		if notify != nil {
			notify(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
