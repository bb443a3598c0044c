package routes

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// Middleware is a per-group HTTP middleware.
type Middleware = func(http.Handler) http.Handler

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type group struct {
	name string
	reg  Registrar
}

var groups []group

// Register adds a named route group. Packages call it from init.
func Register(name string, reg Registrar) {
	groups = append(groups, group{name: name, reg: reg})
}

// RegisterAll mounts every group, in name order, and logs the resulting
// route table at debug level.
func RegisterAll(r chi.Router, d deps.Deps) {
	sorted := make([]group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })

	names := make([]string, 0, len(sorted))
	for _, g := range sorted {
		g.reg(r, d)
		names = append(names, g.name)
	}
	d.Logger.Info("routes registered", logger.Strings("groups", names))

	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		d.Logger.Debugf("route %-7s %s", method, route)
		return nil
	})
}
