package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls retries around flaky remote calls. The defaults are
// tuned for page fetches: a few quick attempts, exponential backoff with
// a little jitter so parallel ingestions do not fall into lockstep.
type Policy struct {
	Attempts  int              // total tries including the first
	BaseDelay time.Duration    // delay before the second attempt
	MaxDelay  time.Duration    // backoff ceiling
	Jitter    float64          // fraction of the delay randomized either way
	Retryable func(error) bool // nil retries every error
	Logger    *zap.Logger
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 8 * time.Second
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}

// Do runs op until it succeeds, fails with a non-retryable error, exhausts
// the policy, or ctx is cancelled. The last operation error is returned on
// exhaustion.
func Do(ctx context.Context, p Policy, op func() error) error {
	p = p.withDefaults()

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				p.Logger.Info("Succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			p.Logger.Debug("Error not retryable",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			return err
		}
		if attempt == p.Attempts {
			break
		}

		p.Logger.Warn("Fetch failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("attempts", p.Attempts),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(delay, p.Jitter)):
		}

		delay = time.Duration(math.Min(float64(p.MaxDelay), float64(delay)*2))
	}

	return lastErr
}

// DoWithResult is Do for operations that produce a value. The zero value
// of T is returned alongside any final error.
func DoWithResult[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func() error {
		var err error
		result, err = op()
		return err
	})
	return result, err
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}

	j := time.Duration(rand.Float64() * float64(d) * fraction)
	if rand.Intn(2) == 0 {
		return d - j
	}
	return d + j
}
