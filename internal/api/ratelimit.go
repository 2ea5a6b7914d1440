package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/daylogapp/daylog-server/internal/http/response"
)

// exportRateLimit is a Huma operation middleware that limits full exports
// per client IP. Over-limit requests get a 429 before the handler runs.
func (s *Server) exportRateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.exportLimiter == nil {
		next(ctx)
		return
	}

	r, w := humachi.Unwrap(ctx)
	key := getClientIP(r)

	if !s.exportLimiter.Allow(key) {
		s.logger.Warn("export rate limit exceeded",
			"ip", key,
			"path", r.URL.Path,
		)
		response.TooManyRequests(w, s.opts.ExportRetryAfter, s.logger)
		return
	}

	next(ctx)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// First entry of X-Forwarded-For is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
