package services_test

import (
	"context"
	"testing"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
	"github.com/magfest/uber/internal/services"
)

func TestChangeBadgeShiftsOthers(t *testing.T) {
	g := testDB(t, nil)
	ids := addStaffers(t, g, "Ann", "Bob", "Cat")

	withSession(t, g, func(s *db.Session) {
		msg, err := services.ChangeBadge(s, get(t, s, ids[2]), config.StaffBadge, 1)
		if err != nil || msg != services.BadgeUpdated {
			t.Fatalf("change badge = %q, %v", msg, err)
		}
	})
	if got := badgeNums(t, g, ids); !equalInts(got, []int{2, 3, 1}) {
		t.Fatalf("after moving Cat to 1: %v", got)
	}

	withSession(t, g, func(s *db.Session) {
		msg, err := services.ChangeBadge(s, get(t, s, ids[0]), config.StaffBadge, 50)
		if err != nil || msg != services.BadgeTooHigh {
			t.Fatalf("change badge = %q, %v", msg, err)
		}
	})
	if got := badgeNums(t, g, ids); !equalInts(got, []int{3, 2, 1}) {
		t.Fatalf("after asking Ann for 50: %v", got)
	}

	withSession(t, g, func(s *db.Session) {
		rows, err := db.TrackingFor(s, ids[1], config.AutoBadgeShift)
		if err != nil {
			t.Fatalf("tracking: %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("Bob was shifted twice, got %d automatic rows", len(rows))
		}
	})
}

func TestChangeBadgeKeepsNumberWhenNoneGiven(t *testing.T) {
	g := testDB(t, nil)
	ids := addStaffers(t, g, "Ann", "Bob", "Cat")

	withSession(t, g, func(s *db.Session) {
		msg, err := services.ChangeBadge(s, get(t, s, ids[1]), config.StaffBadge, 0)
		if err != nil || msg != services.BadgeUpdated {
			t.Fatalf("change badge = %q, %v", msg, err)
		}
	})
	if got := badgeNums(t, g, ids); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("re-saving Bob with no number renumbered badges: %v", got)
	}
}

func TestChangeBadgeTypeClosesHole(t *testing.T) {
	g := testDB(t, nil)
	ids := addStaffers(t, g, "Ann", "Bob", "Cat")

	withSession(t, g, func(s *db.Session) {
		a := get(t, s, ids[0])
		if _, err := services.ChangeBadge(s, a, config.AttendeeBadge, 0); err != nil {
			t.Fatalf("change badge: %v", err)
		}
		if a.BadgeNum != 0 || a.BadgeType != config.AttendeeBadge {
			t.Errorf("attendee badge = %s", a.Badge())
		}
	})
	if got := badgeNums(t, g, ids); !equalInts(got, []int{0, 1, 2}) {
		t.Fatalf("numbers = %v, want [0 1 2]", got)
	}
}

func TestChangeBadgeRefusals(t *testing.T) {
	g := testDB(t, func(e *config.EventConfig) {
		e.ShiftCustomBadges = false
		e.BadgeRanges[config.StaffBadge] = config.BadgeRange{Lo: 1, Hi: 2}
	})
	ids := addStaffers(t, g, "Ann", "Bob")
	walkIn := newAttendee("Dee", config.AttendeeBadge)
	withSession(t, g, func(s *db.Session) { s.Add(walkIn) })

	s, err := db.BeginOn(context.Background(), g)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer s.Close()

	_, err = services.ChangeBadge(s, get(t, s, ids[0]), config.StaffBadge, 500)
	if !errs.IsRule(err) {
		t.Errorf("out of range number: %v", err)
	}
	_, err = services.ChangeBadge(s, get(t, s, ids[0]), config.StaffBadge, 2)
	wantRule(t, err, `That badge number already belongs to "Bob Tester"`)

	_, err = services.ChangeBadge(s, get(t, s, walkIn.ID), config.StaffBadge, 0)
	wantRule(t, err, services.NoMoreBadges)
}

func TestMatchToGroup(t *testing.T) {
	g := testDB(t, nil)
	grp := models.New[models.Group]()
	grp.Name = "Guild"
	walkIn := newAttendee("Eve", config.AttendeeBadge)
	walkIn.Paid = config.HasPaid
	withSession(t, g, func(s *db.Session) {
		if err := services.AssignBadges(s, grp, 2, 0); err != nil {
			t.Fatalf("assign badges: %v", err)
		}
		s.Add(walkIn)
	})

	withSession(t, g, func(s *db.Session) {
		guild, err := db.Get[models.Group](s, grp.ID, db.Preload("Attendees"))
		if err != nil {
			t.Fatalf("get group: %v", err)
		}
		if err := services.MatchToGroup(s, get(t, s, walkIn.ID), guild); err != nil {
			t.Fatalf("match: %v", err)
		}
		if len(guild.Attendees) != 2 || len(guild.Floating()) != 1 {
			t.Errorf("members=%d floating=%d", len(guild.Attendees), len(guild.Floating()))
		}
	})

	withSession(t, g, func(s *db.Session) {
		a := get(t, s, walkIn.ID)
		if a.GroupID == nil || *a.GroupID != grp.ID || a.Paid != config.PaidByGroup {
			t.Errorf("walk-in group=%v paid=%s", a.GroupID, a.PaidLabel())
		}
		n, err := db.Count[models.Attendee](s, db.Where("group_id = ?", grp.ID))
		if err != nil || n != 2 {
			t.Errorf("group members = %d, %v", n, err)
		}

		other := newAttendee("Fay", config.StaffBadge)
		guild, err := db.Get[models.Group](s, grp.ID)
		if err != nil {
			t.Fatalf("get group: %v", err)
		}
		err = services.MatchToGroup(s, other, guild)
		wantRule(t, err, "Badge #0 is a Staff badge, but Guild has no badges of that type")
	})
}

func TestCheckIn(t *testing.T) {
	g := testDB(t, func(e *config.EventConfig) { e.AtTheCon = true })
	a := newAttendee("Gus", config.AttendeeBadge)
	a.Paid = config.HasPaid
	unpaid := newAttendee("Hal", config.AttendeeBadge)
	unpaid.Paid = config.NotPaid
	withSession(t, g, func(s *db.Session) {
		s.Add(a)
		s.Add(unpaid)
	})

	withSession(t, g, func(s *db.Session) {
		got := get(t, s, a.ID)
		msg, err := services.CheckIn(s, got, 0)
		if err != nil {
			t.Fatalf("check in: %v", err)
		}
		if got.CheckedIn == nil || got.BadgeNum == 0 {
			t.Errorf("checked in=%v badge=%d", got.CheckedIn, got.BadgeNum)
		}
		if msg != "Gus Tester checked in as "+got.Badge() {
			t.Errorf("message = %q", msg)
		}

		_, err = services.CheckIn(s, got, 0)
		wantRule(t, err, "Gus Tester is already checked in")
		_, err = services.CheckIn(s, get(t, s, unpaid.ID), 0)
		wantRule(t, err, "You cannot check in an attendee who has not paid")
	})
}
