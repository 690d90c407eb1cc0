package db

import (
	"net/url"

	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

// FormOpts controls FromParams.
type FormOpts struct {
	models.ApplyOpts
	// Allowed names the params a non-POST request may carry without being
	// refused, e.g. the filters of a page that only displays the row.
	Allowed []string
}

// FromParams loads the row named by the "id" param, or starts a new one
// when it is missing or "None", and binds the remaining params onto it.
// Requests that are not POSTs may only carry Allowed params.
//
// The row is returned along with any binding error so a form can be shown
// again with its problems. New rows are not added to the session.
func FromParams[T any, P interface {
	*T
	models.Model
}](s *Session, params url.Values, opts FormOpts) (P, error) {
	rest := make(url.Values, len(params))
	for k, v := range params {
		if k != "id" {
			rest[k] = v
		}
	}

	if !opts.Post {
		for k := range rest {
			if !contains(opts.Allowed, k) {
				return nil, errs.PostRequired
			}
		}
	}

	var m P
	if id := params.Get("id"); id == "" || id == "None" {
		m = models.New[T, P]()
	} else {
		var err error
		if m, err = Get[T, P](s, id); err != nil {
			return nil, err
		}
	}
	return m, models.Apply(m, rest, opts.ApplyOpts)
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
