package payment

import (
	"math"
	"time"
)

// RetryPolicy is an immutable description of how failed payment attempts
// may be retried. The policy only yields decisions and delay values; the
// caller owns the actual waiting, polling and cancellation.
type RetryPolicy struct {
	MaxAttempts         int      `json:"max_attempts"`
	InitialDelaySeconds int64    `json:"initial_delay_seconds"`
	BackoffMultiplier   float64  `json:"backoff_multiplier"`
	MaxDelaySeconds     int64    `json:"max_delay_seconds"`
	RetriableErrorCodes []string `json:"retriable_error_codes"`
}

// DefaultRetryPolicy returns the standard gateway retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         3,
		InitialDelaySeconds: 60,
		BackoffMultiplier:   2.0,
		MaxDelaySeconds:     3600,
		RetriableErrorCodes: []string{"TIMEOUT", "NETWORK_ERROR", "GATEWAY_UNAVAILABLE"},
	}
}

// isRetriableCode reports whether the error code is in the policy's set
func (p RetryPolicy) isRetriableCode(code string) bool {
	for _, c := range p.RetriableErrorCodes {
		if c == code {
			return true
		}
	}
	return false
}

// CalculateRetryDelay returns the exponential-backoff delay in whole
// seconds before the given attempt: initial * multiplier^(attempt-1),
// capped at the policy maximum. Attempt numbers at or below zero yield no
// delay. This function never sleeps.
func CalculateRetryDelay(attemptNumber int, policy RetryPolicy) int64 {
	if attemptNumber <= 0 {
		return 0
	}
	delay := float64(policy.InitialDelaySeconds) * math.Pow(policy.BackoffMultiplier, float64(attemptNumber-1))
	if delay > float64(policy.MaxDelaySeconds) {
		return policy.MaxDelaySeconds
	}
	return int64(delay)
}

// RetryDelayDuration is CalculateRetryDelay expressed as a time.Duration
// for callers that feed it straight into a timer.
func RetryDelayDuration(attemptNumber int, policy RetryPolicy) time.Duration {
	return time.Duration(CalculateRetryDelay(attemptNumber, policy)) * time.Second
}

// ShouldRetry classifies an already-observed payment result: the attempt
// budget must not be exhausted, the status must be retriable, and when the
// result carries an error code that code must be in the policy's retriable
// set. A retriable status with no specific code defaults to retry.
func ShouldRetry(result PaymentResult, attemptNumber int, policy RetryPolicy) bool {
	if attemptNumber >= policy.MaxAttempts {
		return false
	}
	if !result.Status.IsRetriable() {
		return false
	}
	if result.ErrorCode != "" {
		return policy.isRetriableCode(result.ErrorCode)
	}
	return true
}
