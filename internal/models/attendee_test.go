package models

import (
	"testing"
	"time"

	"github.com/magfest/uber/internal/config"
)

type shiftCall struct {
	badgeType, from, until int
	down                   bool
}

// fakeUOW hands out badge numbers from next and records what adjustments
// ask of it.
type fakeUOW struct {
	next    int
	shifts  []shiftCall
	deleted []Model
}

func (u *fakeUOW) NextBadgeNum(badgeType, oldNum int) (int, error) {
	if !config.Event().IsPreassigned(badgeType) {
		return 0, nil
	}
	return u.next, nil
}

func (u *fakeUOW) ShiftBadges(badgeType, from int, down bool, until int) error {
	u.shifts = append(u.shifts, shiftCall{badgeType: badgeType, from: from, until: until, down: down})
	return nil
}

func (u *fakeUOW) Delete(m Model) { u.deleted = append(u.deleted, m) }

// beforeEvent resets the configuration and pins the clock months before
// the event starts.
func beforeEvent(t *testing.T) {
	t.Helper()
	setClock(t, time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC))
}

func setClock(t *testing.T, now time.Time) {
	t.Helper()
	orig := config.Now
	config.Now = func() time.Time { return now }
	config.Set(config.Default())
	t.Cleanup(func() { config.Now = orig })
}

// persisted marks m as loaded with its current values.
func persisted[M Model](m M) M {
	m.Base().EnsureID()
	m.Base().MarkPersisted(Values(m))
	return m
}

func newStaffer() *Attendee {
	a := New[Attendee]()
	a.FirstName = "Jane"
	a.LastName = "Doe"
	a.BadgeType = config.StaffBadge
	a.Paid = config.NeedNotPay
	return a
}

func TestPresaveAssignsBadgeNumber(t *testing.T) {
	beforeEvent(t)
	a := newStaffer()
	a.FirstName = "JANE"
	a.LastName = "McDonald"
	uow := &fakeUOW{next: 7}

	if err := a.PresaveAdjust(uow); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeNum != 7 {
		t.Errorf("badge num = %d, want 7", a.BadgeNum)
	}
	if a.FirstName != "Jane" || a.LastName != "McDonald" {
		t.Errorf("name = %q %q", a.FirstName, a.LastName)
	}
	if !a.Staffing {
		t.Error("staff badge should imply staffing")
	}
}

func TestPresaveClearsNumberOfUnpaidBadge(t *testing.T) {
	beforeEvent(t)
	a := newStaffer()
	a.Paid = config.NotPaid
	a.BadgeNum = 5

	if err := a.PresaveAdjust(&fakeUOW{next: 9}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeNum != 0 {
		t.Errorf("badge num = %d, want 0", a.BadgeNum)
	}
}

func TestPresaveKeepsNumbersAtTheCon(t *testing.T) {
	setClock(t, time.Date(2027, time.January, 8, 12, 0, 0, 0, time.UTC))
	a := newStaffer()
	a.Paid = config.NotPaid
	a.BadgeNum = 5

	if err := a.PresaveAdjust(&fakeUOW{next: 9}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeNum != 5 {
		t.Errorf("badge num = %d, want it left alone once the event started", a.BadgeNum)
	}
}

func TestPresavePromotesSupporter(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.FirstName = "Sam"
	a.AmountExtra = config.Event().SupporterLevel
	a.Paid = config.HasPaid
	a.AmountPaid = a.TotalCost()

	if err := a.PresaveAdjust(&fakeUOW{next: 400}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeType != config.SupporterBadge {
		t.Errorf("badge type = %s, want Supporter", a.BadgeTypeLabel())
	}
	if a.BadgeNum != 400 {
		t.Errorf("badge num = %d, want 400", a.BadgeNum)
	}
}

func TestPresaveUnpaidKickinStaysAttendee(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.FirstName = "Sam"
	a.AmountExtra = config.Event().SupporterLevel

	if err := a.PresaveAdjust(&fakeUOW{}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeType != config.AttendeeBadge {
		t.Errorf("badge type = %s, want Attendee until paid", a.BadgeTypeLabel())
	}
}

func TestPresavePseudoBadges(t *testing.T) {
	beforeEvent(t)
	dealer := New[Attendee]()
	dealer.FirstName = "Dee"
	dealer.BadgeType = config.PseudoDealerBadge
	group := New[Attendee]()
	group.FirstName = "Gee"
	group.BadgeType = config.PseudoGroupBadge

	for _, a := range []*Attendee{dealer, group} {
		if err := a.PresaveAdjust(&fakeUOW{}); err != nil {
			t.Fatalf("presave: %v", err)
		}
		if a.BadgeType != config.AttendeeBadge {
			t.Errorf("%s: badge type = %s", a.FirstName, a.BadgeTypeLabel())
		}
	}
	if dealer.Ribbon != config.DealerRibbon {
		t.Errorf("dealer ribbon = %s", dealer.RibbonLabel())
	}
	if group.Ribbon != config.NoRibbon {
		t.Errorf("group ribbon = %s", group.RibbonLabel())
	}
}

func TestPresaveDeptHead(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.FirstName = "Head"
	a.Ribbon = config.DeptHeadRibbon
	a.Staffing = false

	if err := a.PresaveAdjust(&fakeUOW{next: 1}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeType != config.StaffBadge || a.Paid != config.NeedNotPay || !a.Staffing || !a.Trusted {
		t.Errorf("dept head = %s/%s staffing=%v trusted=%v", a.BadgeTypeLabel(), a.PaidLabel(), a.Staffing, a.Trusted)
	}
}

func TestPresaveStartsVolunteering(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.FirstName = "Val"
	a.Staffing = false
	persisted(a)
	a.Staffing = true

	if err := a.PresaveAdjust(&fakeUOW{}); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.Ribbon != config.VolunteerRibbon {
		t.Errorf("ribbon = %s, want Volunteer", a.RibbonLabel())
	}
}

func TestPresaveStopsVolunteering(t *testing.T) {
	beforeEvent(t)
	a := newStaffer()
	a.BadgeNum = 3
	a.Staffing = true
	a.AssignedDepts = MultiChoiceOf(config.DeptArcade)
	job := New[Job]()
	job.Location = config.DeptArcade
	shift := New[Shift]()
	shift.Job = job
	a.Shifts = []*Shift{shift}
	persisted(a)
	a.Staffing = false
	uow := &fakeUOW{}

	if err := a.PresaveAdjust(uow); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if a.BadgeType != config.AttendeeBadge || a.BadgeNum != 0 {
		t.Errorf("badge = %s #%d", a.BadgeTypeLabel(), a.BadgeNum)
	}
	if a.AssignedDepts != "" || a.Trusted {
		t.Errorf("departments = %q trusted=%v", a.AssignedDepts, a.Trusted)
	}
	if len(uow.deleted) != 1 || uow.deleted[0] != shift {
		t.Errorf("deleted = %v, want the shift", uow.deleted)
	}
	want := shiftCall{badgeType: config.StaffBadge, from: 4, down: true}
	if len(uow.shifts) != 1 || uow.shifts[0] != want {
		t.Errorf("shifts = %+v, want %+v", uow.shifts, want)
	}
}

func TestPromotedVolunteerKeepsShifts(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.FirstName = "Val"
	a.Ribbon = config.VolunteerRibbon
	a.Shifts = []*Shift{New[Shift]()}
	persisted(a)
	a.Ribbon = config.DeptHeadRibbon
	uow := &fakeUOW{next: 2}

	if err := a.PresaveAdjust(uow); err != nil {
		t.Fatalf("presave: %v", err)
	}
	if len(uow.deleted) != 0 || len(a.Shifts) != 1 {
		t.Error("promotion to dept head dropped shifts")
	}
}

func TestPredeleteClosesHole(t *testing.T) {
	beforeEvent(t)
	a := newStaffer()
	a.BadgeNum = 10
	uow := &fakeUOW{}
	if err := a.PredeleteAdjust(uow); err != nil {
		t.Fatalf("predelete: %v", err)
	}
	want := shiftCall{badgeType: config.StaffBadge, from: 11, down: true}
	if len(uow.shifts) != 1 || uow.shifts[0] != want {
		t.Errorf("shifts = %+v", uow.shifts)
	}

	a.BadgeNum = 0
	uow = &fakeUOW{}
	if err := a.PredeleteAdjust(uow); err != nil {
		t.Fatalf("predelete: %v", err)
	}
	if len(uow.shifts) != 0 {
		t.Error("unnumbered badge shifted others")
	}
}

func TestAgeGroupFromBirthdate(t *testing.T) {
	beforeEvent(t)
	cases := []struct {
		born time.Time
		want int
	}{
		{time.Date(2010, 1, 8, 0, 0, 0, 0, time.UTC), config.UnderEighteen},
		{time.Date(2006, 1, 7, 0, 0, 0, 0, time.UTC), config.OverTwentyOne},
		{time.Date(2006, 1, 8, 0, 0, 0, 0, time.UTC), config.UnderTwentyOne},
		{time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), config.UnderThirteen},
	}
	for _, c := range cases {
		a := New[Attendee]()
		born := c.born
		a.Birthdate = &born
		if got := a.AgeGroupConf().Val; got != c.want {
			t.Errorf("born %s: age group %d, want %d", c.born.Format("2006-01-02"), got, c.want)
		}
	}

	a := New[Attendee]()
	chosen := config.UnderThirteen
	a.AgeGroup = &chosen
	if a.AgeGroupConf().Val != config.UnderThirteen {
		t.Error("chosen age group ignored")
	}
}

func TestBadgeDescription(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	if got := a.Badge(); got != "Unpaid Attendee" {
		t.Errorf("unpaid badge = %q", got)
	}
	s := newStaffer()
	s.BadgeNum = 3
	s.Ribbon = config.VolunteerRibbon
	if got := s.Badge(); got != "Staff #3 (Volunteer)" {
		t.Errorf("staff badge = %q", got)
	}
	if got := s.RibbonAndOrBadge(); got != "Staff / Volunteer" {
		t.Errorf("ribbon and badge = %q", got)
	}

	g := New[Group]()
	u := New[Attendee]()
	u.Paid = config.PaidByGroup
	gid := g.EnsureID()
	u.GroupID = &gid
	if got := u.FullName(); got != "[Unassigned Attendee]" {
		t.Errorf("unassigned name = %q", got)
	}
}

func TestCosts(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.AmountExtra = 25
	a.AmountPaid = 50
	if a.TotalCost() != 75 {
		t.Errorf("total = %d, want 75", a.TotalCost())
	}
	if a.AmountUnpaid() != 25 {
		t.Errorf("unpaid = %d, want 25", a.AmountUnpaid())
	}

	override := 10
	a.OverriddenPrice = &override
	if a.BadgeCost() != 10 {
		t.Errorf("overridden badge cost = %d", a.BadgeCost())
	}
	a.Paid = config.NeedNotPay
	if a.BadgeCost() != 0 {
		t.Errorf("comped badge cost = %d", a.BadgeCost())
	}
}

func TestMerch(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.AmountExtra = config.Event().SupporterLevel
	if got := a.Merch(); got != "T-shirt and Supporter Package" {
		t.Errorf("merch = %q", got)
	}

	s := newStaffer()
	if got := s.Merch(); got != "T-shirt" {
		t.Errorf("staff merch = %q", got)
	}
	s.AmountExtra = config.Event().ShirtLevel
	if got := s.Merch(); got != "T-shirt and 2nd T-shirt" {
		t.Errorf("staff kick-in merch = %q", got)
	}
}

func TestAccoutrements(t *testing.T) {
	beforeEvent(t)
	a := New[Attendee]()
	a.Ribbon = config.PanelistRibbon
	young := config.UnderEighteen
	a.AgeGroup = &young
	if got := a.Accoutrements(); got != "a Panelist ribbon and a red wristband" {
		t.Errorf("accoutrements = %q", got)
	}
}

func TestNoOverlap(t *testing.T) {
	beforeEvent(t)
	epoch := config.Event().Epoch
	first := New[Job]()
	first.StartTime = epoch
	first.Duration = 2
	first.Location = config.DeptArcade
	first.Extra15 = true

	a := New[Attendee]()
	a.Shifts = []*Shift{{Job: first}}

	overlapping := New[Job]()
	overlapping.StartTime = epoch.Add(time.Hour)
	overlapping.Duration = 1
	overlapping.Location = config.DeptArcade
	if overlapping.NoOverlap(a) {
		t.Error("overlapping job allowed")
	}

	elsewhere := New[Job]()
	elsewhere.StartTime = epoch.Add(2 * time.Hour)
	elsewhere.Duration = 1
	elsewhere.Location = config.DeptConsole
	if elsewhere.NoOverlap(a) {
		t.Error("job right after an overrunning shift elsewhere allowed")
	}

	sameRoom := New[Job]()
	sameRoom.StartTime = epoch.Add(2 * time.Hour)
	sameRoom.Duration = 1
	sameRoom.Location = config.DeptArcade
	if !sameRoom.NoOverlap(a) {
		t.Error("job right after an overrunning shift in the same place refused")
	}

	if got := a.WeightedHours(); got != 2.25 {
		t.Errorf("weighted hours = %v, want 2.25", got)
	}
	if len(a.Hours()) != 2 {
		t.Errorf("hours = %v", a.Hours())
	}
}

func TestHotelStatus(t *testing.T) {
	beforeEvent(t)
	a := newStaffer()
	if got := a.HotelStatus(); got != "Has not filled out volunteer checklist" {
		t.Errorf("no request: %q", got)
	}
	a.HotelRequests = &HotelRequests{}
	if got := a.HotelStatus(); got != "Declined hotel space" {
		t.Errorf("declined: %q", got)
	}
	a.HotelRequests.Nights = MultiChoiceOf(config.Friday, config.Wednesday)
	if got := a.HotelStatus(); got != "Hotel nights: Wed / Fri (not yet approved)" {
		t.Errorf("setup night: %q", got)
	}
	a.HotelRequests.Decline()
	if got := a.HotelStatus(); got != "Hotel nights: Fri" {
		t.Errorf("declined setup: %q", got)
	}
}
