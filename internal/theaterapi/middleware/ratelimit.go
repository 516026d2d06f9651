package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/stagehand/theater/internal/theaterapi/response"
)

// RateLimit enforces a per-client-IP token bucket over the debug API:
// requestsPerSecond tokens refill per second, up to burst held at once.
func RateLimit(requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := &clientLimiters{
		byClient: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.forClient(clientID(r)).Allow() {
				response.Error(w, http.StatusTooManyRequests, response.ErrCodeServiceDegraded,
					"rate limit exceeded", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiters struct {
	mu       sync.Mutex
	byClient map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (c *clientLimiters) forClient(id string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.byClient[id]
	if !ok {
		l = rate.NewLimiter(c.rate, c.burst)
		c.byClient[id] = l
	}
	return l
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
