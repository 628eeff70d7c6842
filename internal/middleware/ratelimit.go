package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/daraw/billing-server-go/internal/audit"
	"github.com/daraw/billing-server-go/internal/service"
)

// CredentialRateLimitMiddleware throttles credential submissions
// (password logins, code redemptions) per client IP so codes and
// passwords cannot be guessed by brute force. Backed by the redis
// sliding-window limiter; redis failures deny the request.
type CredentialRateLimitMiddleware struct {
	limiter *service.RateLimiter
	keyFn   func(ip string) string
	limit   int
	window  time.Duration
}

func NewCredentialRateLimitMiddleware(
	limiter *service.RateLimiter,
	keyFn func(ip string) string,
	limit int,
	window time.Duration,
) *CredentialRateLimitMiddleware {
	return &CredentialRateLimitMiddleware{
		limiter: limiter,
		keyFn:   keyFn,
		limit:   limit,
		window:  window,
	}
}

func (m *CredentialRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// chi's RealIP middleware has already resolved the client IP.
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), m.keyFn(r.RemoteAddr), m.limit, m.window)
		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitHit,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many attempts. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
