package media

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy controls DeleteWithRetry. The backoff between attempts is
// fixed, not exponential.
type RetryPolicy struct {
	Attempts       int
	Backoff        time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy matches the platform's asset-cleanup behavior: three
// attempts spaced one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: time.Second, AttemptTimeout: 10 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = 10 * time.Second
	}
	return p
}

// DeleteWithRetry attempts to remove a remote asset, retrying transient
// failures so a single hiccup in the external store does not leave the
// primary delete half-done. It reports success or failure as a boolean and
// never propagates an error to the caller.
func DeleteWithRetry(ctx context.Context, host Host, ref string, kind AssetKind, policy RetryPolicy, logger *slog.Logger) bool {
	if host == nil || ref == "" {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	policy = policy.normalized()

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
		err := host.Delete(attemptCtx, ref, kind)
		cancel()
		if err == nil {
			return true
		}

		logger.Warn("remote asset delete failed",
			"ref", ref,
			"kind", string(kind),
			"attempt", attempt,
			"maxAttempts", policy.Attempts,
			"error", err,
		)

		if attempt == policy.Attempts {
			break
		}

		timer := time.NewTimer(policy.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	return false
}
