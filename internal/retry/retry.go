package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/deletia/deletia/internal/pacing"
)

// Default retry parameters. Eight attempts with a 250ms base doubles out
// to roughly half a minute of cumulative backoff before giving up, which
// rides out the archive's short throttling windows without stalling a run
// on a genuinely dead endpoint.
const (
	// DefaultMaxRetries is the number of re-executions after the first
	// attempt.
	DefaultMaxRetries = 7
	// DefaultInitialInterval is the backoff base delay.
	DefaultInitialInterval = 250 * time.Millisecond
	// DefaultMaxInterval caps a single backoff delay.
	DefaultMaxInterval = 30 * time.Second
)

// Classification is the retry wrapper's view of one failed attempt.
type Classification struct {
	// Outcome is reported to the pacing controller.
	Outcome pacing.Outcome
	// Retryable selects between re-execution and surfacing the error.
	Retryable bool
}

// Classifier maps an operation error to its Classification.
// A nil error is never passed to a Classifier.
type Classifier func(error) Classification

// Reporter receives one pacing event per attempt. *pacing.Set and
// *pacing.Controller both satisfy it.
type Reporter interface {
	Report(pacing.Event)
}

// Config tunes the backoff schedule.
type Config struct {
	// MaxRetries is the number of re-executions after the first attempt.
	MaxRetries uint64
	// InitialInterval is the backoff base delay.
	InitialInterval time.Duration
	// MaxInterval caps a single backoff delay.
	MaxInterval time.Duration
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

// Do executes op, retrying retryable failures with exponential backoff and
// jitter until the attempt ceiling is reached or ctx is cancelled.
//
// Each attempt emits exactly one event to reporter for the given surface:
// success on a nil error, otherwise the Classifier's outcome. A failure
// caused by parent-context cancellation is fatal and reports no event,
// since no request completed. Per-request timeouts are ordinary failures
// and go through the Classifier like any other error.
//
// Design decision: We build on cenkalti/backoff rather than hand-rolling
// the loop; it supplies jittered exponential delays, context awareness,
// and permanent-error short-circuiting, leaving only classification and
// event emission to this package.
func Do[T any](ctx context.Context, cfg Config, surface pacing.Surface, reporter Reporter, classify Classifier, op func(context.Context) (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialInterval
	exp.MaxInterval = cfg.MaxInterval
	// The attempt ceiling bounds the schedule; no wall-clock cutoff.
	exp.MaxElapsedTime = 0

	attempt := func() (T, error) {
		start := time.Now()
		result, err := op(ctx)
		latency := time.Since(start)

		if err == nil {
			reporter.Report(pacing.Event{
				Surface: surface,
				Time:    time.Now(),
				Outcome: pacing.OutcomeSuccess,
				Latency: latency,
			})
			return result, nil
		}

		// Check the parent context itself rather than the error chain:
		// an http.Client timeout error also unwraps to
		// context.DeadlineExceeded, and that must stay retryable.
		if cause := ctx.Err(); cause != nil && errors.Is(err, cause) {
			return result, backoff.Permanent(err)
		}

		class := classify(err)
		reporter.Report(pacing.Event{
			Surface: surface,
			Time:    time.Now(),
			Outcome: class.Outcome,
			Latency: latency,
		})
		if !class.Retryable {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	return backoff.RetryWithData(attempt, backoff.WithContext(backoff.WithMaxRetries(exp, cfg.MaxRetries), ctx))
}
