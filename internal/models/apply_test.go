package models

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/errs"
)

func TestApplyCoercesValues(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	params := url.Values{
		"id":         {"ignored"},
		"first_name": {"  Jane  "},
		"badge_num":  {"12.0"},
		"age_group":  {""},
		"shirt":      {""},
		"birthdate":  {"1990-04-02"},
		"interests":  {"1", "3"},
		"checked_in": {"2027-01-07T10:30:00"},
	}
	if err := Apply(a, params, ApplyOpts{}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.ID == "ignored" {
		t.Error("id was bound from the form")
	}
	if a.FirstName != "Jane" {
		t.Errorf("first name = %q", a.FirstName)
	}
	if a.BadgeNum != 12 {
		t.Errorf("badge num = %d, want 12", a.BadgeNum)
	}
	if a.AgeGroup != nil {
		t.Errorf("blank nullable choice kept %d", *a.AgeGroup)
	}
	if a.Shirt != config.NoShirt {
		t.Errorf("blank choice changed shirt to %d", a.Shirt)
	}
	if a.Birthdate == nil || !a.Birthdate.Equal(time.Date(1990, time.April, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("birthdate = %v", a.Birthdate)
	}
	if a.Interests != "1,3" {
		t.Errorf("interests = %q", a.Interests)
	}
	want := time.Date(2027, time.January, 7, 10, 30, 0, 0, config.Event().Location()).UTC()
	if a.CheckedIn == nil || !a.CheckedIn.Equal(want) {
		t.Errorf("checked in = %v, want %v", a.CheckedIn, want)
	}
}

func TestApplyRestricted(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.CanSpam = true
	params := url.Values{
		"first_name": {"Jane"},
		"badge_num":  {"7"},
		"paid":       {"2"},
	}
	if err := Apply(a, params, ApplyOpts{Restricted: true, Post: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.BadgeNum != 0 || a.Paid != config.NotPaid {
		t.Errorf("admin-only columns bound: badge=%d paid=%d", a.BadgeNum, a.Paid)
	}
	if a.FirstName != "Jane" {
		t.Errorf("first name = %q", a.FirstName)
	}
	if a.CanSpam {
		t.Error("unchecked box left set on POST")
	}

	a.CanSpam = true
	if err := Apply(a, url.Values{}, ApplyOpts{Restricted: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !a.CanSpam {
		t.Error("GET cleared a checkbox")
	}
}

func TestApplyAdminCheckboxes(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.Trusted = true
	a.AssignedDepts = MultiChoiceOf(config.DeptArcade)
	opts := ApplyOpts{Bools: []string{"trusted", "got_merch"}, Checkgroups: []string{"assigned_depts"}, Post: true}
	if err := Apply(a, url.Values{"got_merch": {"1"}}, opts); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.Trusted || !a.GotMerch {
		t.Errorf("trusted=%v got_merch=%v", a.Trusted, a.GotMerch)
	}
	if a.AssignedDepts != "" {
		t.Errorf("unchecked group kept %q", a.AssignedDepts)
	}
}

func TestApplyReportsBadValues(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.BadgeNum = 5
	err := Apply(a, url.Values{"badge_num": {"five"}, "last_name": {"Doe"}}, ApplyOpts{})

	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want a validation error", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "badge_num" {
		t.Errorf("fields = %+v", ve.Fields)
	}
	if a.BadgeNum != 5 {
		t.Errorf("bad value overwrote badge num: %d", a.BadgeNum)
	}
	if a.LastName != "Doe" {
		t.Error("good values not bound alongside a bad one")
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"": false, "on": true, "No": false, "1": true, "2": true} {
		got, err := parseBool(in)
		if err != nil || got != want {
			t.Errorf("parseBool(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Error("expected an error for maybe")
	}
}
