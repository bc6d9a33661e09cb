package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle limits authentication attempts per normalized email to slow
// down brute forcing. Limiters are created on demand and idle ones are
// dropped during periodic cleanup.
type LoginThrottle struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewLoginThrottle allows attempts per window, with the full window available
// as a burst.
func NewLoginThrottle(attempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		rate:        rate.Limit(float64(attempts) / window.Seconds()),
		burst:       attempts,
		lastCleanup: time.Now(),
	}
}

// Allow reports whether another attempt for the key may proceed now.
func (t *LoginThrottle) Allow(key string) bool {
	return t.limiter(key).Allow()
}

func (t *LoginThrottle) limiter(key string) *rate.Limiter {
	if limiter, ok := t.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(t.rate, t.burst)
	actual, _ := t.limiters.LoadOrStore(key, limiter)

	t.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose token buckets are full again, which means
// the key has been idle for at least a window.
func (t *LoginThrottle) maybeCleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastCleanup) < 5*time.Minute {
		return
	}
	t.lastCleanup = time.Now()

	t.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(t.burst) {
			t.limiters.Delete(key)
		}
		return true
	})
}
