package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	AppsLoaded *int   `json:"apps_loaded,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	ServiceMode string                     `json:"service_mode"`
	Components  map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store":   checkStore(ctx, d),
			"indexes": checkIndexes(ctx, d),
		}
		if d.SeedFile != "" {
			components["seed"] = seedStatus(d)
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			ServiceMode: determineServiceMode(components),
			Components:  components,
		})
	}
}

func determineServiceMode(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "critical" // nothing can be served without the store
	}
	if idx, exists := components["indexes"]; exists && !idx.OK {
		return "degraded" // lists still work, index consumers see drift
	}
	return "optimal"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Repo.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.Backend,
			Impact: "catalog-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.Backend}
}

func checkIndexes(ctx context.Context, d deps.Deps) componentStatus {
	drift, err := d.Repo.Verify(ctx)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	n := drift.Apps
	st := componentStatus{OK: drift.Clean(), AppsLoaded: &n}
	if !st.OK {
		st.Impact = "index-drift"
		st.Mode = "reindex-pending"
	}
	return st
}

func seedStatus(d deps.Deps) componentStatus {
	last := "never"
	var ok bool
	if d.LastReload != nil {
		if t := d.LastReload(); !t.IsZero() {
			last = t.Format("2006-01-02 15:04:05")
			ok = true
		}
	}
	return componentStatus{OK: ok, LastReload: last}
}
