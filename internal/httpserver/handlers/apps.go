package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// queryFrom reads the list parameters. Unparseable page/limit fall back to
// the defaults applied by domain.Query.Normalized.
func queryFrom(r *http.Request) domain.Query {
	v := r.URL.Query()
	page, _ := strconv.Atoi(v.Get("page"))
	limit, _ := strconv.Atoi(v.Get("limit"))
	return domain.Query{
		Category: v.Get("category"),
		Tag:      v.Get("tag"),
		Author:   v.Get("author"),
		Q:        v.Get("q"),
		Sort:     v.Get("sort"),
		Order:    v.Get("order"),
		Page:     page,
		Limit:    limit,
	}
}

// appKey returns the {url} path segment decoded once. Clients send the
// directUrl (or id) URL-encoded.
func appKey(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "url")
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.ValidationFailed("malformed app key", raw)
	}
	if key == "" {
		return "", domain.ValidationFailed("app key is required", nil)
	}
	return key, nil
}

func ListApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Repo.List(r.Context(), queryFrom(r))
		if err != nil {
			writeErr(w, d.Logger, "list", err)
			return
		}
		writeOK(w, res)
	}
}

func CreateApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.Patch
		if err := decode(w, r, &p); err != nil {
			writeErr(w, d.Logger, "create", err)
			return
		}
		app, err := d.Repo.Create(r.Context(), p)
		if err != nil {
			writeErr(w, d.Logger, "create", err)
			return
		}
		d.Logger.Info("app created",
			logger.String("id", app.ID),
			logger.String("direct_url", app.DirectURL))
		writeOK(w, app)
	}
}

func GetApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := appKey(r)
		if err != nil {
			writeErr(w, d.Logger, "get", err)
			return
		}
		app, err := d.Repo.Get(r.Context(), key)
		if err != nil {
			writeErr(w, d.Logger, "get", err)
			return
		}
		writeOK(w, app)
	}
}

func UpdateApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := appKey(r)
		if err != nil {
			writeErr(w, d.Logger, "update", err)
			return
		}
		var p domain.Patch
		if err := decode(w, r, &p); err != nil {
			writeErr(w, d.Logger, "update", err)
			return
		}
		app, err := d.Repo.Update(r.Context(), key, p)
		if err != nil {
			writeErr(w, d.Logger, "update", err)
			return
		}
		writeOK(w, app)
	}
}

func DeleteApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := appKey(r)
		if err != nil {
			writeErr(w, d.Logger, "delete", err)
			return
		}
		app, err := d.Repo.Delete(r.Context(), key)
		if err != nil {
			writeErr(w, d.Logger, "delete", err)
			return
		}
		d.Logger.Info("app deleted",
			logger.String("id", app.ID),
			logger.String("direct_url", app.DirectURL))
		writeOK(w, app)
	}
}

func LikeApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := appKey(r)
		if err != nil {
			writeErr(w, d.Logger, "like", err)
			return
		}
		app, err := d.Repo.Like(r.Context(), key)
		if err != nil {
			writeErr(w, d.Logger, "like", err)
			return
		}
		writeOK(w, app)
	}
}

// BatchApps accepts a JSON array of create payloads.
func BatchApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patches []domain.Patch
		if err := decode(w, r, &patches); err != nil {
			writeErr(w, d.Logger, "batch", err)
			return
		}
		res, err := d.Repo.BatchCreate(r.Context(), patches)
		if err != nil {
			writeErr(w, d.Logger, "batch", err)
			return
		}
		writeOK(w, res)
	}
}

// ImportApps accepts a JSON array of full records, typically an export.
func ImportApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var records []domain.App
		if err := decode(w, r, &records); err != nil {
			writeErr(w, d.Logger, "import", err)
			return
		}
		res, err := d.Repo.Import(r.Context(), records)
		if err != nil {
			writeErr(w, d.Logger, "import", err)
			return
		}
		writeOK(w, res)
	}
}

func ExportApps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := d.Repo.Export(r.Context())
		if err != nil {
			writeErr(w, d.Logger, "export", err)
			return
		}
		writeOK(w, apps)
	}
}

// Reindex rebuilds indexes and stats from the canonical list and reports
// the drift it repaired.
func Reindex(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drift, err := d.Repo.Rebuild(r.Context())
		if err != nil {
			writeErr(w, d.Logger, "reindex", err)
			return
		}
		d.Logger.Info("reindex triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("repaired", !drift.Clean()))
		writeOK(w, drift)
	}
}
