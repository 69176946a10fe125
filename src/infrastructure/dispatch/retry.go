package dispatch

import (
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
)

// RetryPolicy is a pure decision function over attempt count and error class.
// It holds no state and has no side effects.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

// RetryDecision is the outcome of evaluating a failed attempt
type RetryDecision struct {
	// Retry is false when the recipient should be given up on
	Retry bool

	// Delay is how long to wait before the next attempt. A zero delay with
	// Retry true means "re-check the rate limiter now" (rate_limited class).
	Delay time.Duration

	// RecheckLimiter signals that the failure was the provider throttling
	// us, so the next step is the rate limiter, not a blind resend
	RecheckLimiter bool
}

// NextDelay decides what to do after attempt number attempt (1-based) failed
// with the given class.
//
// permanent and internal errors never retry. rate_limited is not counted as a
// failure: the worker goes back to the rate limiter. transient errors back off
// exponentially, base * 2^attempt capped at Cap, until MaxAttempts is spent.
func (p RetryPolicy) NextDelay(attempt int, class domainCampaign.ErrorClass) RetryDecision {
	switch class {
	case domainCampaign.ErrorPermanent, domainCampaign.ErrorInternal:
		return RetryDecision{Retry: false}
	case domainCampaign.ErrorRateLimited:
		return RetryDecision{Retry: true, RecheckLimiter: true}
	}

	if attempt >= p.MaxAttempts {
		return RetryDecision{Retry: false}
	}

	delay := p.Base << uint(attempt)
	if p.Cap > 0 && delay > p.Cap {
		delay = p.Cap
	}
	return RetryDecision{Retry: true, Delay: delay}
}
