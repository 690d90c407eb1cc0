package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
	"github.com/magfest/uber/internal/services"
)

func formInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.NewValidation("The form could not be read", errs.FieldError{Field: name, Error: "must be a whole number"})
	}
	return n, nil
}

// POST /preregister
func Preregister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, err.Error())
		return
	}
	var view attendeeView
	err := db.Do(r.Context(), func(s *db.Session) error {
		a, err := services.Preregister(s, r.PostForm)
		if err != nil {
			return err
		}
		if err := s.Flush(); err != nil {
			return err
		}
		view = viewAttendee(a)
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GET /admin/attendees/{id}
func AdminAttendee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view attendeeView
	err := db.Do(r.Context(), func(s *db.Session) error {
		a, err := db.Get[models.Attendee](s, id, db.Preload("Group"))
		if err != nil {
			return err
		}
		view = viewAttendee(a)
		return services.TrackPageview(s, "/registration/form", "id="+id)
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /admin/attendees and /admin/attendees/{id}
func AdminAttendeeSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, err.Error())
		return
	}
	params := r.PostForm
	if id := chi.URLParam(r, "id"); id != "" {
		params.Set("id", id)
	}

	var view attendeeView
	err := db.Do(r.Context(), func(s *db.Session) error {
		a, err := db.FromParams[models.Attendee](s, params, db.FormOpts{
			ApplyOpts: models.ApplyOpts{Post: true},
		})
		if err != nil {
			return err
		}
		s.Add(a)
		if err := s.Flush(); err != nil {
			return err
		}
		view = viewAttendee(a)
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /admin/attendees/{id}/badge
func AdminChangeBadge(w http.ResponseWriter, r *http.Request) {
	badgeType, err := formInt(r, "badge_type")
	if err != nil {
		fail(w, r, err)
		return
	}
	badgeNum, err := formInt(r, "badge_num")
	if err != nil {
		fail(w, r, err)
		return
	}

	var msg string
	err = db.Do(r.Context(), func(s *db.Session) error {
		a, err := db.Get[models.Attendee](s, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		msg, err = services.ChangeBadge(s, a, badgeType, badgeNum)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, msg)
}

// POST /admin/attendees/{id}/checkin
func AdminCheckIn(w http.ResponseWriter, r *http.Request) {
	badgeNum, err := formInt(r, "badge_num")
	if err != nil {
		fail(w, r, err)
		return
	}
	var msg string
	err = db.Do(r.Context(), func(s *db.Session) error {
		a, err := db.Get[models.Attendee](s, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		msg, err = services.CheckIn(s, a, badgeNum)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, msg)
}

// POST /admin/attendees/{id}/delete
func AdminDeleteAttendee(w http.ResponseWriter, r *http.Request) {
	var name string
	err := db.Do(r.Context(), func(s *db.Session) error {
		a, err := db.Get[models.Attendee](s, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		name = a.FullName()
		s.Delete(a)
		return nil
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, name+" deleted")
}
