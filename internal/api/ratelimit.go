package api

import (
	"net"
	"net/http"

	"github.com/orgball2608/fedi-albums/internal/ratelimit"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

// rateLimitByIP answers 429 once a client IP exhausts its bucket.
func (s *Server) rateLimitByIP(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !limiter.Allow(key) {
				s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				s.writeError(w, r, errors.RateLimited(0, "too many requests, please try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. middleware.RealIP has already
// applied X-Forwarded-For and X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
