package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/mw"
)

func init() { Register("apps", registerApps) }

func registerApps(r chi.Router, d deps.Deps) {
	admin := []Middleware{
		mw.AdminOnly(d.AdminCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateBurst,
			RefillPerIPPerMin: d.RatePerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}),
	}

	r.Route("/apps", func(r chi.Router) {
		r.Get("/", handlers.ListApps(d))
		r.Get("/export", handlers.ExportApps(d))
		r.Get("/{url}", handlers.GetApp(d))
		r.Post("/{url}/like", handlers.LikeApp(d))

		r.Group(func(r chi.Router) {
			r.Use(admin...)
			r.Post("/", handlers.CreateApp(d))
			r.Post("/batch", handlers.BatchApps(d))
			r.Post("/import", handlers.ImportApps(d))
			r.Post("/reindex", handlers.Reindex(d))
			r.Put("/{url}", handlers.UpdateApp(d))
			r.Delete("/{url}", handlers.DeleteApp(d))
		})
	})
}
