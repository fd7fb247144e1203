package middleware

import (
	"sync"
	"time"

	"github.com/akolanti/FlashRAG/internal/config"
	"golang.org/x/time/rate"
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP. Entries idle
// longer than the sweep interval are dropped so the map stays bounded.
type IPRateLimiter struct {
	ips       map[string]*ipLimiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
	lastSweep time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*ipLimiter),
		rateLimit: r,
		burstRate: b,
		lastSweep: time.Now(),
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	if now.Sub(i.lastSweep) > config.RateLimiterSweepInterval {
		for addr, entry := range i.ips {
			if now.Sub(entry.lastSeen) > config.RateLimiterSweepInterval {
				delete(i.ips, addr)
			}
		}
		i.lastSweep = now
	}

	entry, exists := i.ips[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}
