package mw

import (
	"encoding/json"
	"net/http"
)

// Codes carried by middleware rejections, next to the domain error kinds.
const (
	CodeForbidden   = "FORBIDDEN"
	CodeRateLimited = "RATE_LIMITED"
)

type rejection struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// reject writes a failure envelope with an explicit HTTP status.
func reject(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rejection{Error: msg, Code: code})
}
