package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/magfest/uber/internal/errs"
)

// Flash is the one-line outcome of an admin action.
type Flash struct {
	Kind string `json:"kind"` // "ok" or "error"
	Text string `json:"text"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func ok(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, Flash{Kind: "ok", Text: text})
}

// fail maps err onto a response: refusals and bad input are the caller's
// problem, anything else is logged and hidden.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *errs.ValidationError
	var re *errs.RuleError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve)
	case errors.As(err, &re):
		writeJSON(w, http.StatusBadRequest, Flash{Kind: "error", Text: re.Message})
	case errors.Is(err, errs.NotFound):
		writeJSON(w, http.StatusNotFound, Flash{Kind: "error", Text: "Not found"})
	case errors.Is(err, errs.PostRequired):
		writeJSON(w, http.StatusMethodNotAllowed, Flash{Kind: "error", Text: err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, Flash{Kind: "error", Text: "Internal error"})
	}
}

func badRequest(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusBadRequest, Flash{Kind: "error", Text: text})
}
