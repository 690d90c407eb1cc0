package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/handlers"
	"github.com/magfest/uber/internal/metrics"
)

func Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	// Public
	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/preregister", handlers.Preregister)
	r.Get("/qr/{id}.png", handlers.QR)

	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/login", handlers.AdminLoginSubmit)
		ar.Post("/logout", handlers.AdminLogout)

		ar.Group(func(ag chi.Router) {
			ag.Use(handlers.RequireAdmin)

			// Registration
			ag.Group(func(reg chi.Router) {
				reg.Use(handlers.RequireAccess(config.AccessPeople))
				reg.Get("/search", handlers.AdminSearch)
				reg.Post("/attendees", handlers.AdminAttendeeSave)
				reg.Get("/attendees/{id}", handlers.AdminAttendee)
				reg.Post("/attendees/{id}", handlers.AdminAttendeeSave)
				reg.Post("/attendees/{id}/badge", handlers.AdminChangeBadge)
				reg.Post("/attendees/{id}/delete", handlers.AdminDeleteAttendee)
				reg.Post("/groups/{id}/badges", handlers.AdminGroupBadges)
				reg.Get("/tracking/{id}", handlers.AdminTracking)
			})

			ag.With(handlers.RequireAccess(config.AccessCheckins)).
				Post("/attendees/{id}/checkin", handlers.AdminCheckIn)

			// Staffing
			ag.Group(func(st chi.Router) {
				st.Use(handlers.RequireAccess(config.AccessStaffing))
				st.Get("/jobs", handlers.AdminJobs)
				st.Post("/jobs/{id}/assign", handlers.AdminAssignJob)
			})

			// Budget
			ag.Group(func(bg chi.Router) {
				bg.Use(handlers.RequireAccess(config.AccessMoney))
				bg.Get("/budget", handlers.AdminBudget)
				bg.Get("/affiliates", handlers.AdminAffiliates)
			})
		})
	})

	return r
}

// instrument counts requests by route pattern and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
