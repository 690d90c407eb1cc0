package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/errs"
)

// ApplyOpts controls how form values are bound onto a model.
type ApplyOpts struct {
	// Restricted binds only the columns attendees may set, and treats the
	// attendee-settable bools and checkgroups as the form's checkboxes.
	Restricted bool
	// Bools and Checkgroups name the checkbox columns of an admin form.
	// They are ignored when Restricted is set.
	Bools       []string
	Checkgroups []string
	// Post is set for POST submissions. Only then do unchecked boxes
	// (which browsers do not send) clear their columns.
	Post bool
}

// Apply binds form params onto m. Lists are joined with commas, strings
// are trimmed and the value is coerced to the column's type. The id column
// is never bound. A value that cannot be coerced leaves its column alone
// and is reported in the returned *errs.ValidationError.
func Apply(m Model, params url.Values, opts ApplyOpts) error {
	bools, checkgroups := opts.Bools, opts.Checkgroups
	if opts.Restricted {
		bools, checkgroups = RegformBools(m), RegformCheckgroups(m)
	}

	ve := errs.NewValidation(fmt.Sprintf("%s could not be updated", Name(m)))
	for _, c := range Columns(m) {
		if c.Name == "id" || (opts.Restricted && c.AdminOnly) {
			continue
		}
		raw, ok := params[c.Name]
		if !ok {
			continue
		}
		var value string
		if len(raw) == 1 {
			value = strings.TrimSpace(raw[0])
		} else {
			value = strings.Join(raw, ",")
		}
		v, err := coerce(c, value)
		if err != nil {
			ve.Add(c.Name, err.Error())
			continue
		}
		if v == unchanged {
			continue
		}
		if err := c.Set(m, v); err != nil {
			ve.Add(c.Name, err.Error())
		}
	}

	if opts.Post {
		for _, c := range Columns(m) {
			switch {
			case contains(bools, c.Name):
				checked := false
				if raw, ok := params[c.Name]; ok && len(raw) > 0 {
					n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
					if err != nil {
						ve.Add(c.Name, "expected 0 or 1")
						continue
					}
					checked = n != 0
				}
				_ = c.Set(m, checked)
			case contains(checkgroups, c.Name):
				if _, ok := params[c.Name]; !ok {
					_ = c.Set(m, MultiChoice(""))
				}
			}
		}
	}
	return ve.OrNil()
}

type sentinel struct{}

// unchanged tells Apply to leave a column as it is.
var unchanged any = sentinel{}

func coerce(c Column, value string) (any, error) {
	ev := config.Event()
	switch c.Kind {
	case KindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", value)
		}
		return f, nil
	case KindChoice, KindInt:
		if value == "" {
			if c.Nullable {
				return nil, nil
			}
			if c.Kind == KindChoice {
				return unchanged, nil
			}
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", value)
		}
		return int(f), nil
	case KindBool:
		return parseBool(value)
	case KindDateTime:
		if value == "" && c.Nullable {
			return nil, nil
		}
		t, err := time.ParseInLocation(ev.TimestampFormat, value, ev.Location())
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid date and time", value)
		}
		return t.UTC(), nil
	case KindDate:
		if value == "" && c.Nullable {
			return nil, nil
		}
		t, err := time.Parse(ev.DateFormat, value)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid date", value)
		}
		return t, nil
	case KindMultiChoice:
		return MultiChoice(value), nil
	}
	return value, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes":
		return true, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("%q is not a yes/no value", s)
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
