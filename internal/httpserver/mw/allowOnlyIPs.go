package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/utils"
)

// AdminOnly restricts a route group to callers inside cidrs (CIDRs or bare
// addresses). An empty list leaves the routes open. trustProxy makes the
// client address come from proxy headers (cloudflared and the like).
func AdminOnly(cidrs []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, invalid := utils.NewIPMatcher(cidrs)
	if len(invalid) > 0 {
		log.Warn("ignoring unparsable admin networks", logger.Strings("entries", invalid))
	}
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("admin route rejected",
					logger.String("client_ip", ip),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				reject(w, http.StatusForbidden, CodeForbidden, "address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
