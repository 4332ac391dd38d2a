// Package retry implements the backoff policy used for unreliable
// remote services.
package retry

import (
	"context"
	"time"
)

// Policy describes how a call is retried: how many attempts, how long
// the first wait is, and how the wait grows between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
}

// Outcome classifies a single attempt for the retry loop.
type Outcome int

const (
	// Done stops the loop; the attempt's result stands, success or not.
	Done Outcome = iota
	// Throttled retries after the current backoff delay, then grows the
	// delay by the policy multiplier.
	Throttled
	// Transient retries after the base delay without growing it.
	Transient
)

// Do runs fn up to p.MaxAttempts times. fn reports how its attempt went;
// Do handles the sleeping. The sleep is a cancellation point: a done
// context ends the loop early with ctx.Err(). When attempts are
// exhausted, the last error from fn is returned.
func (p Policy) Do(ctx context.Context, fn func() (Outcome, error)) error {
	delay := p.BaseDelay

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		outcome, err := fn()
		lastErr = err
		if outcome == Done {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		wait := p.BaseDelay
		if outcome == Throttled {
			wait = delay
			delay *= time.Duration(p.Multiplier)
		}

		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
