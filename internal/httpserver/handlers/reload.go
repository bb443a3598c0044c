package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// KindReloadBusy is reported while a seed import is already queued.
const KindReloadBusy domain.ErrorKind = "RELOAD_IN_PROGRESS"

// Reload queues a manual import of the seed catalog. The import itself
// runs on the reloader goroutine; 202 only means it was queued.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeStatus(w, http.StatusNotFound, Envelope{Error: "no seed file configured", Code: domain.KindNotFound})
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload queued",
				logger.String("file", d.SeedFile),
				logger.String("remote_addr", r.RemoteAddr))
			writeStatus(w, http.StatusAccepted, Envelope{Success: true, Data: map[string]string{"file": d.SeedFile}})
		default:
			d.Logger.Warn("seed reload already queued", logger.String("remote_addr", r.RemoteAddr))
			writeStatus(w, http.StatusTooManyRequests, Envelope{Error: "reload already in progress", Code: KindReloadBusy})
		}
	}
}
