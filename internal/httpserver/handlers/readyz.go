package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// Readyz answers 200 once the KV store responds within two seconds, 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Repo.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.String("backend", d.Backend), logger.Error(err))
			writeStatus(w, http.StatusServiceUnavailable, Envelope{Error: "store unavailable", Code: domain.KindStore})
			return
		}
		writeOK(w, map[string]any{"ready": true, "backend": d.Backend})
	}
}
