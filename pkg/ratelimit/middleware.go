package ratelimit

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
)

// KeyFunc derives the counter key for a request under a given rule — the
// caller composes it from whatever the rule should scope on (client IP,
// email from the request body, tenant ID from context, and so on).
type KeyFunc func(r *http.Request) string

// Middleware returns an http middleware enforcing the named rule, keying
// each request with keyFunc. It sets X-RateLimit-Limit / -Remaining /
// -Reset on every response the rule decided on, and Retry-After plus a 429
// body when the request is denied.
func Middleware(limiter *Limiter, ruleName string, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), ruleName, keyFunc(r))
			if err != nil {
				// The store is unavailable. Fail open rather than take the
				// API down over a rate-limiter outage.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(int64(decision.RetryAfter.Seconds()), 10))

			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				if decision.Blocked {
					httputil.ErrorLocalized(w, r, pkgerrors.Blocked(retryAfter))
				} else {
					httputil.ErrorLocalized(w, r, pkgerrors.RateLimited(retryAfter))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the caller's address for IP-keyed rules, preferring the
// first hop recorded in X-Forwarded-For (set by the load balancer) over
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	host := r.RemoteAddr
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return host[:i]
		}
	}
	return host
}
