package dispatch

import (
	"testing"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Base: time.Minute, Cap: 15 * time.Minute}

	tests := []struct {
		name               string
		attempt            int
		class              domainCampaign.ErrorClass
		wantRetry          bool
		wantDelay          time.Duration
		wantRecheckLimiter bool
	}{
		{
			name:    "permanent error never retries",
			attempt: 1, class: domainCampaign.ErrorPermanent,
			wantRetry: false,
		},
		{
			name:    "internal error never retries",
			attempt: 1, class: domainCampaign.ErrorInternal,
			wantRetry: false,
		},
		{
			name:    "rate limited goes back to the limiter without delay",
			attempt: 1, class: domainCampaign.ErrorRateLimited,
			wantRetry: true, wantDelay: 0, wantRecheckLimiter: true,
		},
		{
			name:    "rate limited ignores the attempt budget",
			attempt: 9, class: domainCampaign.ErrorRateLimited,
			wantRetry: true, wantDelay: 0, wantRecheckLimiter: true,
		},
		{
			name:    "first transient failure backs off",
			attempt: 1, class: domainCampaign.ErrorTransient,
			wantRetry: true, wantDelay: 2 * time.Minute,
		},
		{
			name:    "second transient failure doubles the backoff",
			attempt: 2, class: domainCampaign.ErrorTransient,
			wantRetry: true, wantDelay: 4 * time.Minute,
		},
		{
			name:    "transient failure at the attempt budget gives up",
			attempt: 3, class: domainCampaign.ErrorTransient,
			wantRetry: false,
		},
		{
			name:    "transient failure past the attempt budget gives up",
			attempt: 7, class: domainCampaign.ErrorTransient,
			wantRetry: false,
		},
	}

	for _, tt := range tests {
		decision := policy.NextDelay(tt.attempt, tt.class)
		if decision.Retry != tt.wantRetry {
			t.Errorf("[%s] got retry = %v, want %v", tt.name, decision.Retry, tt.wantRetry)
		}
		if decision.Delay != tt.wantDelay {
			t.Errorf("[%s] got delay = %v, want %v", tt.name, decision.Delay, tt.wantDelay)
		}
		if decision.RecheckLimiter != tt.wantRecheckLimiter {
			t.Errorf("[%s] got recheckLimiter = %v, want %v", tt.name, decision.RecheckLimiter, tt.wantRecheckLimiter)
		}
	}
}

func TestRetryPolicyBackoffCap(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, Base: time.Minute, Cap: 15 * time.Minute}

	decision := policy.NextDelay(3, domainCampaign.ErrorTransient)
	if !decision.Retry || decision.Delay != 8*time.Minute {
		t.Fatalf("got (%v, %v), want an 8m retry below the cap", decision.Retry, decision.Delay)
	}

	decision = policy.NextDelay(6, domainCampaign.ErrorTransient)
	if !decision.Retry || decision.Delay != 15*time.Minute {
		t.Fatalf("got (%v, %v), want the delay clamped to the 15m cap", decision.Retry, decision.Delay)
	}
}

func TestRetryPolicyIsPure(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Base: time.Minute, Cap: 15 * time.Minute}

	first := policy.NextDelay(2, domainCampaign.ErrorTransient)
	for i := 0; i < 5; i++ {
		if got := policy.NextDelay(2, domainCampaign.ErrorTransient); got != first {
			t.Fatalf("call %d returned %+v, first call returned %+v", i, got, first)
		}
	}
}
