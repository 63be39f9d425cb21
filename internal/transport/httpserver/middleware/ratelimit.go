package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"welfare-app-go/internal/ratelimit"
	"welfare-app-go/pkg/logger"
)

type RateLimitRecorder interface {
	RecordRateLimited(scope string)
}

// RateLimit applies a fixed window per client address. chi's RealIP must run
// first so RemoteAddr holds the forwarded address. Limiter failures fail open.
func RateLimit(limiter ratelimit.Limiter, scope string, limit int, window time.Duration, recorder RateLimitRecorder, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := scope + ":" + clientIP(r)
			allowed, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				log.InternalError("ratelimit.allow: limiter unavailable", err, "scope", scope)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if recorder != nil {
					recorder.RecordRateLimited(scope)
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
