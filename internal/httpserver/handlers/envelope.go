package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// maxBody bounds request bodies; imports of a few thousand apps fit easily.
const maxBody = 8 << 20

// Envelope is the body of every /apps response. Domain failures are
// reported with HTTP 200 and success=false.
type Envelope struct {
	Success bool             `json:"success"`
	Data    any              `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Code    domain.ErrorKind `json:"code,omitempty"`
	Details any              `json:"details,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	writeStatus(w, http.StatusOK, env)
}

// writeStatus is for the ops endpoints, where the HTTP status matters to
// probes and schedulers.
func writeStatus(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, Envelope{Success: true, Data: data})
}

func writeErr(w http.ResponseWriter, log logger.Logger, op string, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error("unexpected handler error", logger.String("op", op), logger.Error(err))
		writeEnvelope(w, Envelope{Error: "internal error", Code: domain.KindUnknown})
		return
	}

	switch de.Kind {
	case domain.KindStore, domain.KindUnknown:
		log.Error("operation failed", logger.String("op", op), logger.Error(err))
	default:
		log.Debug("operation rejected",
			logger.String("op", op),
			logger.String("code", string(de.Kind)),
			logger.String("error", de.Message))
	}
	writeEnvelope(w, Envelope{Error: de.Message, Code: de.Kind, Details: de.Details})
}

// decode reads a JSON body into dst. Malformed bodies are validation errors.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ValidationFailed("request body is empty", nil)
		}
		return domain.ValidationFailed("invalid JSON body", err.Error())
	}
	return nil
}
