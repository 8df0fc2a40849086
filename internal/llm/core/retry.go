package core

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

const (
	defaultRetryMaxRetries = 3
	defaultRetryBaseDelay  = 300 * time.Millisecond
	defaultRetryMaxDelay   = 5 * time.Second
)

// retryableError tags a transport failure as safe to retry.
type retryableError struct {
	err error
}

func (e retryableError) Error() string { return e.err.Error() }

func (e retryableError) Unwrap() error { return e.err }

// MarkRetryable tags err so IsRetryableError reports true for it and for any
// error wrapping it.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err: err}
}

// IsRetryableError reports whether err carries a retryable tag.
func IsRetryableError(err error) bool {
	var target retryableError
	return errors.As(err, &target)
}

// NormalizeRetryPolicy fills unset fields with defaults. Negative MaxRetries
// disables retries; zero means unset.
func NormalizeRetryPolicy(policy RetryPolicy) RetryPolicy {
	switch {
	case policy.MaxRetries < 0:
		policy.MaxRetries = 0
	case policy.MaxRetries == 0:
		policy.MaxRetries = defaultRetryMaxRetries
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = defaultRetryBaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = defaultRetryMaxDelay
	}
	return policy
}

// MergeRetryPolicy overlays the positive fields of override on base.
func MergeRetryPolicy(base, override RetryPolicy) RetryPolicy {
	merged := NormalizeRetryPolicy(base)
	if override.MaxRetries > 0 {
		merged.MaxRetries = override.MaxRetries
	}
	if override.BaseDelay > 0 {
		merged.BaseDelay = override.BaseDelay
	}
	if override.MaxDelay > 0 {
		merged.MaxDelay = override.MaxDelay
	}
	merged.MaxDelay = max(merged.MaxDelay, merged.BaseDelay)
	return merged
}

// ComputeBackoffDelay returns the jittered exponential delay before retry
// number attempt (zero based), capped at policy.MaxDelay.
func ComputeBackoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay
	for i := 0; i < attempt && delay < policy.MaxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, policy.MaxDelay)
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(delay) * jitter)
}

// SleepContext waits for delay or until ctx is done.
func SleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
