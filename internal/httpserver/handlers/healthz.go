package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
)

type healthz struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	Backend       string  `json:"backend,omitempty"`
}

// Healthz reports liveness without touching the KV store; /readyz covers it.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, healthz{
			Status:        "ok",
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			Backend:       d.Backend,
		})
	}
}
