// Package retry runs an operation a bounded number of times with a
// fixed delay between attempts. Used for persistence writes that may
// fail transiently; the policy values are configuration, not contract.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds how often and how quickly an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Backoff is the fixed delay between consecutive attempts.
	Backoff time.Duration
}

// DefaultPolicy matches the historical behavior: three attempts with a
// short pause between them.
var DefaultPolicy = Policy{Attempts: 3, Backoff: 100 * time.Millisecond}

// Do runs op until it succeeds, the attempts are exhausted, or ctx is
// done. The last error is returned wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
