package db

import (
	"context"
	"log/slog"
	"time"
)

// connectAttempts bounds how long startup waits for a database.
const connectAttempts = 5

// withRetry calls fn until it succeeds, doubling the wait between attempts.
func withRetry(ctx context.Context, name string, fn func() error) error {
	wait := 500 * time.Millisecond
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}
		slog.Warn("db: connect failed, retrying", "db", name, "attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
