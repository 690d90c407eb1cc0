package services_test

import (
	"net/url"
	"testing"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/services"
)

func TestNormPhone(t *testing.T) {
	for in, want := range map[string]string{
		"":                  "",
		"call me":           "",
		"555-1234":          "",
		"(555) 123-4567":    "+15551234567",
		"1 555 123 4567":    "+15551234567",
		"555.123.4567":      "+15551234567",
		"+44 20 7946 0958":  "+442079460958",
		"0044 20 7946 0958": "+442079460958",
	} {
		if got := services.NormPhone(in); got != want {
			t.Errorf("NormPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormEmail(t *testing.T) {
	if e, ok := services.NormEmail("  Jane@Example.COM "); !ok || e != "jane@example.com" {
		t.Errorf("NormEmail = %q, %v", e, ok)
	}
	if _, ok := services.NormEmail("not an address"); ok {
		t.Error("bad address accepted")
	}
	if e, ok := services.NormEmail(" "); !ok || e != "" {
		t.Errorf("blank = %q, %v", e, ok)
	}
}

func TestPreregister(t *testing.T) {
	g := testDB(t, nil)
	var id string
	withSession(t, g, func(s *db.Session) {
		a, err := services.Preregister(s, url.Values{
			"id":         {"None"},
			"first_name": {"Jane"},
			"last_name":  {"Doe"},
			"email":      {" Jane@Example.COM "},
			"cellphone":  {"(555) 123-4567"},
			"paid":       {"1"},
		})
		if err != nil {
			t.Fatalf("preregister: %v", err)
		}
		id = a.ID
	})

	withSession(t, g, func(s *db.Session) {
		a := get(t, s, id)
		if a.Email != "jane@example.com" || a.Cellphone != "+15551234567" || a.NoCellphone {
			t.Errorf("contact = %q %q no_cellphone=%v", a.Email, a.Cellphone, a.NoCellphone)
		}
		if a.Paid != config.NotPaid {
			t.Errorf("paid = %s, the form may not set it", a.PaidLabel())
		}

		for _, phone := range []string{"555.123.4567", "+1 (555) 123-4567"} {
			found, err := services.FindByCellphone(s, phone)
			if err != nil || found.ID != id {
				t.Errorf("find %q = %v, %v", phone, found, err)
			}
		}
		found, err := services.Search(s, "phone:555 123 4567")
		if err != nil || len(found) != 1 {
			t.Errorf("phone search = %d, %v", len(found), err)
		}
	})

	withSession(t, g, func(s *db.Session) {
		a, err := services.Preregister(s, url.Values{
			"first_name": {"Joe"},
			"email":      {"not an address"},
			"cellphone":  {"call me"},
		})
		if a == nil || !services.IsFormError(err) {
			t.Fatalf("bad form = %v, %v", a, err)
		}
		fields := map[string]bool{}
		for _, f := range errs.Fields(err) {
			fields[f.Field] = true
		}
		if !fields["email"] || !fields["cellphone"] || !fields["first_name"] {
			t.Errorf("fields = %v", errs.Fields(err))
		}
		if len(s.New()) != 0 {
			t.Error("a rejected registration was added to the session")
		}
	})
}

func TestFindByCellphoneDigits(t *testing.T) {
	g := testDB(t, nil)
	a := newAttendee("Ray", config.AttendeeBadge)
	a.Cellphone = "555-987-6543"
	withSession(t, g, func(s *db.Session) { s.Add(a) })

	withSession(t, g, func(s *db.Session) {
		found, err := services.FindByCellphone(s, "(555) 987 6543")
		if err != nil || found.ID != a.ID {
			t.Errorf("find = %v, %v", found, err)
		}
		if _, err := services.FindByCellphone(s, "nothing"); err == nil {
			t.Error("found an attendee for a non-number")
		}
	})
}
