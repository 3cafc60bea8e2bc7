package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// siteLimiter hands out a token-bucket limiter per calling site,
// grounded on the pack's golang.org/x/time/rate import (see
// DESIGN.md): requestJob callers are rate-limited per site rather than
// globally, so one noisy site can't starve another's fair share of
// claim attempts.
type siteLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newSiteLimiter(rps float64) *siteLimiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &siteLimiter{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (s *siteLimiter) allow(site string) bool {
	if s.rps <= 0 {
		return true
	}
	s.mu.Lock()
	l, ok := s.limiters[site]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.rps), s.burst)
		s.limiters[site] = l
	}
	s.mu.Unlock()
	return l.Allow()
}
