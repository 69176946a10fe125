package dispatch

import (
	"sync"
	"time"

	domainChannel "go-campaign-api/src/domain/channel"
)

// Admission is the rate limiter's answer to an acquire request
type Admission struct {
	OK bool

	// Wait is how long the caller must wait before asking again. Only
	// meaningful when OK is false.
	Wait time.Duration
}

// RateLimiter enforces per-tenant-channel send ceilings. Official channels
// carry hard minute/hour/day rolling windows; unofficial channels carry a
// minimum inter-send interval plus a coarse hourly precaution.
//
// Acquire both checks and consumes: an admitted call is counted against every
// window. All workers sending through the same channel, across campaigns,
// share one ledger.
type RateLimiter struct {
	mu      sync.Mutex
	ledgers map[string]*ledger
	clock   Clock
}

// NewRateLimiter creates a rate limiter with one ledger per tenant-channel
func NewRateLimiter(clock Clock) *RateLimiter {
	return &RateLimiter{
		ledgers: make(map[string]*ledger),
		clock:   clock,
	}
}

type ledger struct {
	mu       sync.Mutex
	minute   window
	hour     window
	day      window
	lastSend time.Time
}

// window tracks send timestamps inside a rolling span
type window struct {
	span   time.Duration
	limit  int
	stamps []time.Time
}

func (w *window) active() bool {
	return w.limit > 0
}

// wait returns 0 when the window admits another send, otherwise the time
// until its most restrictive slot frees up
func (w *window) wait(now time.Time) time.Duration {
	if !w.active() {
		return 0
	}
	w.prune(now)
	if len(w.stamps) < w.limit {
		return 0
	}
	return w.stamps[0].Add(w.span).Sub(now)
}

func (w *window) record(now time.Time) {
	if !w.active() {
		return
	}
	w.stamps = append(w.stamps, now)
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = w.stamps[i:]
	}
}

// Acquire asks for permission to send one message through the channel. When
// denied it returns the wait until the most restrictive window resets.
func (rl *RateLimiter) Acquire(ch *domainChannel.Channel) Admission {
	led := rl.ledgerFor(ch)

	led.mu.Lock()
	defer led.mu.Unlock()

	now := rl.clock.Now()

	var wait time.Duration
	if ch.Class == domainChannel.ClassUnofficial {
		if ch.RateProfile.MinInterval > 0 && !led.lastSend.IsZero() {
			if d := led.lastSend.Add(ch.RateProfile.MinInterval).Sub(now); d > wait {
				wait = d
			}
		}
		if d := led.hour.wait(now); d > wait {
			wait = d
		}
	} else {
		for _, w := range []*window{&led.minute, &led.hour, &led.day} {
			if d := w.wait(now); d > wait {
				wait = d
			}
		}
	}

	if wait > 0 {
		return Admission{OK: false, Wait: wait}
	}

	led.lastSend = now
	led.minute.record(now)
	led.hour.record(now)
	led.day.record(now)
	return Admission{OK: true}
}

func (rl *RateLimiter) ledgerFor(ch *domainChannel.Channel) *ledger {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	led, ok := rl.ledgers[ch.Key()]
	if !ok {
		led = newLedger(ch)
		rl.ledgers[ch.Key()] = led
	}
	return led
}

func newLedger(ch *domainChannel.Channel) *ledger {
	led := &ledger{}
	if ch.Class == domainChannel.ClassUnofficial {
		led.hour = window{span: time.Hour, limit: ch.RateProfile.HourlyCeiling}
		return led
	}
	led.minute = window{span: time.Minute, limit: ch.RateProfile.PerMinute}
	led.hour = window{span: time.Hour, limit: ch.RateProfile.PerHour}
	led.day = window{span: 24 * time.Hour, limit: ch.RateProfile.PerDay}
	return led
}
