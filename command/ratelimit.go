package command

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet keeps one token bucket per source connection.
type limiterSet struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *limiterSet) allow(source string) bool {
	s.mu.Lock()
	limiter, exists := s.limiters[source]
	if !exists {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[source] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow()
}

func (s *limiterSet) forget(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.limiters, source)
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
