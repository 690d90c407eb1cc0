package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/models"
)

// checkInURL is the admin page a scanned badge QR code opens.
func checkInURL(r *http.Request, attendeeID string) string {
	base := strings.TrimRight(config.Get().Server.PublicURL, "/")
	if base == "" {
		base = "http://" + r.Host
	}
	return base + "/admin/attendees/" + attendeeID
}

// GET /qr/{id}.png
func QR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	// ensure the attendee exists
	err := db.Do(r.Context(), func(s *db.Session) error {
		_, err := db.Get[models.Attendee](s, id)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	png, err := qrcode.Encode(checkInURL(r, id), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
