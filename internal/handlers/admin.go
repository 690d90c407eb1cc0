package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/models"
	"github.com/magfest/uber/internal/services"
)

// GET /admin/search?q=
func AdminSearch(w http.ResponseWriter, r *http.Request) {
	var views []attendeeView
	err := db.Do(r.Context(), func(s *db.Session) error {
		found, err := services.Search(s, r.URL.Query().Get("q"))
		views = viewAttendees(found)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// POST /admin/groups/{id}/badges
func AdminGroupBadges(w http.ResponseWriter, r *http.Request) {
	count, err := formInt(r, "count")
	if err != nil {
		fail(w, r, err)
		return
	}
	badgeType, err := formInt(r, "badge_type")
	if err != nil {
		fail(w, r, err)
		return
	}

	var g *models.Group
	err = db.Do(r.Context(), func(s *db.Session) error {
		g, err = db.Get[models.Group](s, chi.URLParam(r, "id"), db.Preload("Attendees"))
		if err != nil {
			return err
		}
		return services.AssignBadges(s, g, count, badgeType)
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, g.Name+" now has "+plural(g.Badges(), "badge"))
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}

// GET /admin/jobs?location=
func AdminJobs(w http.ResponseWriter, r *http.Request) {
	location, err := formInt(r, "location")
	if err != nil {
		fail(w, r, err)
		return
	}
	var jobs []jobView
	err = db.Do(r.Context(), func(s *db.Session) error {
		roster, err := services.Everything(s, location)
		if err != nil {
			return err
		}
		jobs = viewRoster(roster)
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// POST /admin/jobs/{id}/assign
func AdminAssignJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, err.Error())
		return
	}
	var name string
	err := db.Do(r.Context(), func(s *db.Session) error {
		shift, err := services.Assign(s, r.PostForm.Get("attendee_id"), chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		name = shift.Name()
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "Assigned "+name)
}

// GET /admin/tracking/{id}
func AdminTracking(w http.ResponseWriter, r *http.Request) {
	var rows []trackingView
	err := db.Do(r.Context(), func(s *db.Session) error {
		history, err := db.History(s, chi.URLParam(r, "id"))
		rows = viewTracking(history)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /admin/affiliates
func AdminAffiliates(w http.ResponseWriter, r *http.Request) {
	var affs []services.Affiliate
	err := db.Do(r.Context(), func(s *db.Session) error {
		var err error
		affs, err = services.Affiliates(s)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affs)
}

// GET /admin/budget
func AdminBudget(w http.ResponseWriter, r *http.Request) {
	var passes []services.SeasonPassHolder
	err := db.Do(r.Context(), func(s *db.Session) error {
		if err := services.TrackPageview(s, r.URL.Path, r.URL.RawQuery); err != nil {
			return err
		}
		var err error
		passes, err = services.SeasonPasses(s)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	type holder struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	out := make([]holder, len(passes))
	for i, p := range passes {
		out[i] = holder{ID: p.ID, Name: p.FirstName + " " + p.LastName, Email: p.Email}
	}
	writeJSON(w, http.StatusOK, map[string]any{"season_passes": out})
}
