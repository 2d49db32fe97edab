package httpserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// playerLimiter hands out one token bucket per player id. Idle buckets are
// dropped once the map grows past sweepAt.
type playerLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const (
	sweepAt = 10000
	idleTTL = 10 * time.Minute
)

// newPlayerLimiter returns nil (unlimited) when perSecond <= 0.
func newPlayerLimiter(perSecond float64, burst int) *playerLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &playerLimiter{limit: rate.Limit(perSecond), burst: burst, buckets: make(map[string]*bucket)}
}

func (l *playerLimiter) allow(player string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[player]
	if !ok {
		if len(l.buckets) >= sweepAt {
			l.sweep(now)
		}
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[player] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (l *playerLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > idleTTL {
			delete(l.buckets, k)
		}
	}
}
