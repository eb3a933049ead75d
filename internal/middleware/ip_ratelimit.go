package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/UtpalSharma619/Ashtavakra/internal/audit"
	"github.com/UtpalSharma619/Ashtavakra/internal/service"
)

// IPRateLimitMiddleware throttles an endpoint per client IP. The room
// endpoints are unauthenticated and the code space is small, so join
// attempts in particular are kept below code-guessing rates.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			log.Warn().Str("ip", ip).Str("prefix", m.prefix).Msg("rate limit exceeded")
			audit.Log(r.Context(), audit.Event{
				Type:    audit.EventRateLimited,
				IP:      ip,
				Details: map[string]interface{}{"endpoint": m.prefix},
			})
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
