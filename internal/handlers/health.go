package handlers

import (
	"net/http"

	"github.com/magfest/uber/internal/db"
)

// GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, Flash{Kind: "error", Text: "database unavailable"})
		return
	}
	ok(w, "ok")
}
