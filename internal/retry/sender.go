// Package retry implements bounded retry with linear backoff for
// outbound HTTP calls.
package retry

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Policy defines retry behaviour for transport-level failures.
type Policy struct {
	// MaxAttempts is the total number of invocations (minimum 1).
	MaxAttempts int

	// BackoffBase is multiplied by the attempt number to produce the
	// wait before the next attempt.
	BackoffBase time.Duration
}

// Sender invokes outbound HTTP operations with bounded retry.
//
// Only transport-level failures are retried. A response with a bad
// status code is a normal result: interpreting status codes is the
// caller's concern, never the sender's.
type Sender struct {
	policy Policy
	logger *slog.Logger
}

// NewSender creates a Sender. A MaxAttempts below 1 is raised to 1.
func NewSender(policy Policy, logger *slog.Logger) *Sender {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Sender{policy: policy, logger: logger}
}

// Do invokes fn up to MaxAttempts times, waiting BackoffBase * attempt
// between attempts (never after the last). The label identifies the
// operation in logs. Returns the last successful response, or nil when
// every attempt failed at transport level or the context was cancelled
// mid-backoff. The caller owns the response body.
func (s *Sender) Do(ctx context.Context, label string, fn func() (*http.Response, error)) *http.Response {
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp
		}

		if attempt == s.policy.MaxAttempts {
			s.logger.Error("exhausted retries",
				"action", label,
				"attempts", s.policy.MaxAttempts,
				"error", err,
			)
			break
		}

		backoff := s.policy.BackoffBase * time.Duration(attempt)
		s.logger.Warn("request failed, retrying",
			"action", label,
			"attempt", attempt,
			"max_attempts", s.policy.MaxAttempts,
			"backoff", backoff,
			"error", err,
		)

		if !sleep(ctx, backoff) {
			s.logger.Warn("retry abandoned, context cancelled", "action", label)
			return nil
		}
	}
	return nil
}

// sleep blocks for d or until ctx is done. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
