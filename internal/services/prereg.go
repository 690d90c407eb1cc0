package services

import (
	"errors"
	"net/url"

	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

// Preregister binds an attendee's own registration form onto a new
// attendee. Only the columns attendees may set are bound; email and
// cellphone are normalized. The attendee is added to the session only when
// the form is clean, and is returned either way so the form can be shown
// again.
func Preregister(s *db.Session, params url.Values) (*models.Attendee, error) {
	form := make(url.Values, len(params))
	for k, v := range params {
		if k != "id" {
			form[k] = v
		}
	}
	a, err := db.FromParams[models.Attendee](s, form, db.FormOpts{
		ApplyOpts: models.ApplyOpts{Restricted: true, Post: true},
	})
	if a == nil {
		return nil, err
	}
	ve := errs.NewValidation("Attendee could not be registered", errs.Fields(err)...)
	if err != nil && len(ve.Fields) == 0 {
		return a, err
	}

	email, ok := NormEmail(a.Email)
	switch {
	case email == "":
		ve.Add("email", "Email address is required")
	case !ok:
		ve.Add("email", "Enter a valid email address")
	default:
		a.Email = email
	}
	if a.Cellphone != "" {
		if phone := NormPhone(a.Cellphone); phone != "" {
			a.Cellphone = phone
			a.NoCellphone = false
		} else {
			ve.Add("cellphone", "Your phone number was not a valid phone number")
		}
	}
	if a.FirstName == "" || a.LastName == "" {
		ve.Add("first_name", "First and last name are required")
	}
	if err := ve.OrNil(); err != nil {
		return a, err
	}
	s.Add(a)
	return a, nil
}

// IsFormError reports whether err describes bad form input rather than a
// failure to reach the database.
func IsFormError(err error) bool {
	var ve *errs.ValidationError
	return errors.As(err, &ve) || errs.IsRule(err) || errors.Is(err, errs.PostRequired)
}
