package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/magfest/uber/internal/config"
)

type Attendee struct {
	MagModel
	GroupID *string `gorm:"type:varchar(36);index" uber:"fk=group"`

	Placeholder bool       `uber:"admin_only"`
	FirstName   string     `gorm:"index"`
	LastName    string     `gorm:"index"`
	Email       string     `gorm:"index" validate:"omitempty,email"`
	Birthdate   *time.Time `uber:"date"`
	AgeGroup    *int       `uber:"choice=age_group"`

	International bool
	ZipCode       string
	Address1      string
	Address2      string
	City          string
	Region        string
	Country       string
	NoCellphone   bool
	EcPhone       string
	Cellphone     string

	Interests  MultiChoice `uber:"choice=interest"`
	FoundHow   string
	Comments   string
	ForReview  string `uber:"admin_only"`
	AdminNotes string `uber:"admin_only"`

	BadgeNum  int `gorm:"index:idx_attendee_badge,priority:2" uber:"admin_only"`
	BadgeType int `gorm:"index:idx_attendee_badge,priority:1" uber:"choice=badge,admin_only"`
	Ribbon    int `uber:"choice=ribbon,admin_only"`

	Affiliate   string
	Shirt       int    `uber:"choice=shirt"`
	CanSpam     bool
	RegdeskInfo string `uber:"admin_only"`
	ExtraMerch  string `uber:"admin_only"`
	GotMerch    bool   `uber:"admin_only"`

	RegStation *int       `uber:"admin_only"`
	Registered time.Time  `gorm:"autoCreateTime"`
	CheckedIn  *time.Time

	Paid            int  `uber:"choice=paid,admin_only"`
	OverriddenPrice *int `uber:"admin_only"`
	AmountPaid      int  `uber:"admin_only" validate:"gte=0"`
	AmountExtra     int  `uber:"choice=donation_tier,unspecified" validate:"gte=0"`
	AmountRefunded  int  `uber:"admin_only" validate:"gte=0"`
	PaymentMethod   *int `uber:"choice=payment_method"`

	BadgePrintedName string

	Staffing       bool
	FireSafetyCert string
	RequestedDepts MultiChoice `uber:"choice=job_interest"`
	AssignedDepts  MultiChoice `uber:"choice=job_location,admin_only"`
	Trusted        bool        `uber:"admin_only"`
	NonshiftHours  int         `uber:"admin_only"`
	PastYears      string      `uber:"admin_only"`

	Group              *Group               `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" validate:"-"`
	Shifts             []*Shift             `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	HotelRequests      *HotelRequests       `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	FoodRestrictions   *FoodRestrictions    `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	AdminAccount       *AdminAccount        `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	NoShirt            *NoShirt             `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	RoomAssignment     *RoomAssignment      `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	Games              []*Game              `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	Checkouts          []*Checkout          `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	Sales              []*Sale              `gorm:"foreignKey:AttendeeID;constraint:OnDelete:SET NULL" validate:"-"`
	MPointsForCash     []*MPointsForCash    `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	AssignedPanelists  []*AssignedPanelist  `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	OldMPointExchanges []*OldMPointExchange `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	DeptChecklistItems []*DeptChecklistItem `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (Attendee) TableName() string { return "attendee" }

func (a *Attendee) SetDefaults() {
	unknown := config.AgeUnknown
	a.AgeGroup = &unknown
	a.NoCellphone = true
	a.BadgeType = config.AttendeeBadge
	a.Ribbon = config.NoRibbon
	a.Shirt = config.NoShirt
	a.Paid = config.NotPaid
	a.Staffing = true
}

func (a *Attendee) Describe() string { return "<Attendee " + a.FullName() + ">" }

// Touches reports the group, whose cost depends on its members.
func (a *Attendee) Touches() []Model {
	if a.Group == nil {
		return nil
	}
	return []Model{a.Group}
}

// PresaveAdjust derives the columns that follow from the rest of the row.
func (a *Attendee) PresaveAdjust(uow UnitOfWork) error {
	a.miscAdjustments()
	if err := a.badgeAdjustments(uow); err != nil {
		return err
	}
	return a.staffingAdjustments(uow)
}

// PredeleteAdjust closes the hole a deleted custom badge leaves behind.
func (a *Attendee) PredeleteAdjust(uow UnitOfWork) error {
	if a.HasPersonalizedBadge() && a.BadgeNum != 0 && config.Event().ShiftCustomBadges {
		return uow.ShiftBadges(a.BadgeType, a.BadgeNum+1, true, 0)
	}
	return nil
}

var titleCaser = cases.Title(language.Und)

func (a *Attendee) miscAdjustments() {
	ev := config.Event()
	if a.AmountExtra == 0 {
		a.Affiliate = ""
	}
	if !a.ShirtEligible() {
		a.Shirt = config.NoShirt
	}
	if a.Paid != config.Refunded {
		a.AmountRefunded = 0
	}
	if ev.AtTheCon && a.BadgeNum != 0 && a.IsNew() {
		now := config.Now().UTC()
		a.CheckedIn = &now
	}
	if (a.Birthdate != nil && a.ageGroup() == 0) || a.ageGroup() == config.AgeUnknown {
		val := a.AgeGroupConf().Val
		a.AgeGroup = &val
	}
	a.FirstName = fixCase(a.FirstName)
	a.LastName = fixCase(a.LastName)
}

// fixCase title-cases names typed in all upper or all lower case.
func fixCase(s string) string {
	upper, lower := strings.ToUpper(s), strings.ToLower(s)
	if upper == lower || (s != upper && s != lower) {
		return s
	}
	return titleCaser.String(s)
}

func (a *Attendee) badgeAdjustments(uow UnitOfWork) error {
	ev := config.Event()
	if a.BadgeType == config.PseudoGroupBadge || a.BadgeType == config.PseudoDealerBadge {
		dealer := a.IsDealer()
		a.BadgeType = config.AttendeeBadge
		if dealer {
			a.Ribbon = config.DealerRibbon
		}
	}

	if a.AmountExtra >= ev.SupporterLevel && a.AmountUnpaid() == 0 && a.BadgeType == config.AttendeeBadge {
		a.BadgeType = config.SupporterBadge
	}

	if ev.PreCon() {
		switch {
		case a.Paid == config.NotPaid || !a.HasPersonalizedBadge() || a.IsUnassigned():
			a.BadgeNum = 0
		case a.BadgeNum == 0:
			n, err := uow.NextBadgeNum(a.BadgeType, 0)
			if err != nil {
				return err
			}
			a.BadgeNum = n
		}
	}
	return nil
}

func (a *Attendee) staffingAdjustments(uow UnitOfWork) error {
	if a.Ribbon == config.DeptHeadRibbon {
		a.Staffing = true
		a.Trusted = true
		a.BadgeType = config.StaffBadge
		if a.Paid == config.NotPaid {
			a.Paid = config.NeedNotPay
		}
	}

	if !a.IsNew() {
		oldRibbon, _ := asInt(OrigValueOf(a, "ribbon"))
		oldStaffing, _ := OrigValueOf(a, "staffing").(bool)
		switch {
		case (a.Staffing && !oldStaffing) || (a.Ribbon == config.VolunteerRibbon && oldRibbon != config.VolunteerRibbon):
			a.Staffing = true
			if a.Ribbon == config.NoRibbon {
				a.Ribbon = config.VolunteerRibbon
			}
		case (oldStaffing && !a.Staffing) ||
			(oldRibbon == config.VolunteerRibbon && a.Ribbon != config.VolunteerRibbon && a.Ribbon != config.DeptHeadRibbon):
			if err := a.UnsetVolunteering(uow); err != nil {
				return err
			}
		}
	}

	if a.BadgeType == config.StaffBadge && a.Ribbon == config.VolunteerRibbon {
		a.Ribbon = config.NoRibbon
	}
	if a.BadgeType == config.StaffBadge {
		a.Staffing = true
	}
	return nil
}

// UnsetVolunteering takes the attendee off staff: departments, ribbon,
// staff badge and every shift go.
func (a *Attendee) UnsetVolunteering(uow UnitOfWork) error {
	a.Staffing = false
	a.Trusted = false
	a.RequestedDepts = ""
	a.AssignedDepts = ""
	if a.Ribbon == config.VolunteerRibbon {
		a.Ribbon = config.NoRibbon
	}
	if a.BadgeType == config.StaffBadge {
		if config.Event().ShiftCustomBadges && a.BadgeNum != 0 {
			if err := uow.ShiftBadges(config.StaffBadge, a.BadgeNum+1, true, 0); err != nil {
				return err
			}
		}
		a.BadgeType = config.AttendeeBadge
		a.BadgeNum = 0
	}
	for _, s := range a.Shifts {
		uow.Delete(s)
	}
	a.Shifts = nil
	return nil
}

func (a *Attendee) ageGroup() int {
	if a.AgeGroup == nil {
		return 0
	}
	return *a.AgeGroup
}

func (a *Attendee) BadgeTypeLabel() string { return Label(a, "badge_type") }
func (a *Attendee) RibbonLabel() string    { return Label(a, "ribbon") }
func (a *Attendee) PaidLabel() string      { return Label(a, "paid") }
func (a *Attendee) ShirtLabel() string     { return Label(a, "shirt") }

func (a *Attendee) RibbonAndOrBadge() string {
	switch {
	case a.Ribbon != config.NoRibbon && a.BadgeType != config.AttendeeBadge:
		return a.BadgeTypeLabel() + " / " + a.RibbonLabel()
	case a.Ribbon != config.NoRibbon:
		return a.RibbonLabel()
	default:
		return a.BadgeTypeLabel()
	}
}

func (a *Attendee) BadgeCost() int {
	ev := config.Event()
	registered := a.Registered
	if registered.IsZero() {
		registered = ev.LocalizedNow()
	}
	switch {
	case a.Paid == config.PaidByGroup || a.Paid == config.NeedNotPay:
		return 0
	case a.OverriddenPrice != nil:
		return *a.OverriddenPrice
	case a.BadgeType == config.OneDayBadge:
		return ev.OneDayBadgePrice(registered)
	default:
		return ev.AttendeePrice(registered)
	}
}

func (a *Attendee) CostProperties() []Cost {
	return []Cost{{"badge_cost", a.BadgeCost()}}
}

// AgeGroupConf is the attendee's age bracket: the one chosen, else the
// one their age in whole years falls into on the first day of the event
// (or today once it has started).
func (a *Attendee) AgeGroupConf() config.AgeGroup {
	ev := config.Event()
	if g := a.ageGroup(); g != 0 && g != config.AgeUnknown {
		if conf, ok := ev.AgeGroup(g); ok {
			return conf
		}
	} else if a.Birthdate != nil {
		day := ev.Epoch.In(ev.Location())
		if now := ev.LocalizedNow(); now.After(day) {
			day = now
		}
		age := wholeYears(*a.Birthdate, day)
		for _, conf := range ev.AgeGroups {
			if conf.Val != config.AgeUnknown && conf.MinAge <= age && age <= conf.MaxAge {
				return conf
			}
		}
	}
	conf, _ := ev.AgeGroup(config.AgeUnknown)
	return conf
}

func wholeYears(born, on time.Time) int {
	years := on.Year() - born.Year()
	if on.Month() < born.Month() || (on.Month() == born.Month() && on.Day() < born.Day()) {
		years--
	}
	return years
}

func (a *Attendee) TotalCost() int { return DefaultCost(a) + a.AmountExtra }

func (a *Attendee) AmountUnpaid() int { return max(0, a.TotalCost()-a.AmountPaid) }

func (a *Attendee) IsUnpaid() bool { return a.Paid == config.NotPaid }

// IsUnassigned reports a group badge nobody has claimed yet.
func (a *Attendee) IsUnassigned() bool { return a.FirstName == "" }

func (a *Attendee) IsDealer() bool {
	return a.Ribbon == config.DealerRibbon || a.BadgeType == config.PseudoDealerBadge
}

func (a *Attendee) IsDeptHead() bool { return a.Ribbon == config.DeptHeadRibbon }

func (a *Attendee) IsGroupLeader() bool {
	return a.Group != nil && a.Group.LeaderID != nil && *a.Group.LeaderID == a.ID
}

func (a *Attendee) ShirtSizeMarked() bool {
	return a.Shirt != config.NoShirt && a.Shirt != config.SizeUnknown
}

func (a *Attendee) UnassignedName() string {
	if a.GroupID != nil && a.IsUnassigned() {
		return "[Unassigned " + a.Badge() + "]"
	}
	return ""
}

func (a *Attendee) FullName() string {
	if n := a.UnassignedName(); n != "" {
		return n
	}
	return a.FirstName + " " + a.LastName
}

func (a *Attendee) LastFirst() string {
	if n := a.UnassignedName(); n != "" {
		return n
	}
	return a.LastName + ", " + a.FirstName
}

// SortName orders attendees the way the database does: unclaimed badges
// last, everyone else by lower-cased name.
func (a *Attendee) SortName() string {
	if a.FirstName == "" {
		return "zzz"
	}
	return strings.ToLower(a.FirstName + " " + a.LastName)
}

func (a *Attendee) Banned() bool { return config.Event().IsBanned(a.FullName()) }

func (a *Attendee) Badge() string {
	var badge string
	switch {
	case a.Paid == config.NotPaid:
		badge = "Unpaid " + a.BadgeTypeLabel()
	case a.BadgeNum != 0:
		badge = fmt.Sprintf("%s #%d", a.BadgeTypeLabel(), a.BadgeNum)
	default:
		badge = a.BadgeTypeLabel()
	}
	if a.Ribbon != config.NoRibbon {
		badge += " (" + a.RibbonLabel() + ")"
	}
	return badge
}

func (a *Attendee) IsTransferable() bool {
	return !a.IsNew() && !a.Trusted && a.CheckedIn == nil &&
		(a.Paid == config.HasPaid || a.Paid == config.PaidByGroup) &&
		config.Event().IsTransferable(a.BadgeType)
}

func (a *Attendee) GetsFreeShirt() bool {
	return a.IsDeptHead() || a.BadgeType == config.StaffBadge ||
		(a.Staffing && ((a.AssignedDepts != "" && !a.TakesShifts()) || a.WeightedHours() >= 6))
}

func (a *Attendee) GetsPaidShirt() bool {
	return a.AmountExtra >= config.Event().ShirtLevel || a.BadgeType == config.SupporterBadge
}

func (a *Attendee) GetsShirt() bool { return a.GetsPaidShirt() || a.GetsFreeShirt() }

func (a *Attendee) ShirtEligible() bool { return a.GetsShirt() || a.Staffing }

// HasPersonalizedBadge reports whether the badge type is numbered in
// advance.
func (a *Attendee) HasPersonalizedBadge() bool {
	return config.Event().IsPreassigned(a.BadgeType)
}

// DonationSwag lists the tier rewards the kick-in pays for.
func (a *Attendee) DonationSwag() []string {
	ev := config.Event()
	extra := a.AmountExtra
	if extra == 0 && a.BadgeType == config.SupporterBadge {
		extra = ev.SupporterLevel
	}
	amounts := make([]int, 0, len(ev.DonationTiers))
	for amt := range ev.DonationTiers {
		amounts = append(amounts, amt)
	}
	sort.Ints(amounts)
	var swag []string
	for _, amt := range amounts {
		if amt > 0 && extra >= amt {
			swag = append(swag, ev.DonationTiers[amt])
		}
	}
	return swag
}

// Merch is what the merch booth should hand over.
func (a *Attendee) Merch() string {
	ev := config.Event()
	shirt := ev.DonationTier(ev.ShirtLevel)
	merch := a.DonationSwag()
	hasShirt := false
	for _, m := range merch {
		if m == shirt {
			hasShirt = true
		}
	}
	switch {
	case a.GetsShirt() && !hasShirt:
		merch = append(merch, shirt)
	case a.GetsFreeShirt():
		second := "2nd " + shirt
		if a.TakesShifts() && a.WorkedHours() < 6 {
			second += " (tell them they will be reported if they take their shirt and then do not work their shifts)"
		}
		merch = append(merch, second)
	}
	if a.ExtraMerch != "" {
		merch = append(merch, a.ExtraMerch)
	}
	return CommaAnd(merch)
}

// Accoutrements is what the registration desk hands over with the badge.
func (a *Attendee) Accoutrements() string {
	var stuff []string
	if a.Ribbon != config.NoRibbon {
		stuff = append(stuff, "a "+a.RibbonLabel()+" ribbon")
	}
	stuff = append(stuff, fmt.Sprintf("a %s wristband", a.AgeGroupConf().Wristband))
	if a.RegdeskInfo != "" {
		stuff = append(stuff, a.RegdeskInfo)
	}
	return CommaAnd(stuff)
}

func (a *Attendee) AssignedDeptInts() []int {
	return a.AssignedDepts.Ints(config.JobLocationOpts)
}

func (a *Attendee) RequestedDeptInts() []int {
	return a.RequestedDepts.Ints(config.JobInterestOpts)
}

func (a *Attendee) IsSingleDeptHead() bool {
	return a.IsDeptHead() && len(a.AssignedDeptInts()) == 1
}

func (a *Attendee) MultiplyAssigned() bool { return len(a.AssignedDeptInts()) > 1 }

// TakesShifts reports a volunteer assigned to at least one department that
// schedules shifts.
func (a *Attendee) TakesShifts() bool {
	if !a.Staffing {
		return false
	}
	ev := config.Event()
	for _, d := range a.AssignedDeptInts() {
		if !ev.IsShiftless(d) {
			return true
		}
	}
	return false
}

func (a *Attendee) HotelShiftsRequired() bool {
	return config.Event().ShiftsCreated && len(a.HotelNights()) > 0 &&
		a.Ribbon != config.DeptHeadRibbon && a.TakesShifts()
}

func (a *Attendee) ApprovedForSetup() bool {
	hr := a.HotelRequests
	return hr != nil && hr.Approved && intersects(hr.NightInts(), config.Event().SetupNights)
}

func (a *Attendee) ApprovedForTeardown() bool {
	hr := a.HotelRequests
	return hr != nil && hr.Approved && intersects(hr.NightInts(), config.Event().TeardownNights)
}

// Hours are the starts of every hour the attendee is scheduled, sorted.
func (a *Attendee) Hours() []time.Time {
	hm := a.HourMap()
	hours := make([]time.Time, 0, len(hm))
	for k := range hm {
		hours = append(hours, time.Unix(k, 0).UTC())
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })
	return hours
}

// HourMap maps each scheduled hour, keyed by Unix time, to its job.
func (a *Attendee) HourMap() map[int64]*Job {
	hm := make(map[int64]*Job)
	for _, s := range a.Shifts {
		if s.Job == nil {
			continue
		}
		for _, h := range s.Job.Hours() {
			hm[h.Unix()] = s.Job
		}
	}
	return hm
}

func (a *Attendee) WorkedShifts() []*Shift {
	var out []*Shift
	for _, s := range a.Shifts {
		if s.Worked == config.ShiftWorked {
			out = append(out, s)
		}
	}
	return out
}

func (a *Attendee) WeightedHours() float64 {
	wh := 0.0
	for _, s := range a.Shifts {
		if s.Job != nil {
			wh += s.Job.WeightedHours()
		}
	}
	return wh + float64(a.NonshiftHours)
}

func (a *Attendee) WorkedHours() float64 {
	wh := 0.0
	for _, s := range a.WorkedShifts() {
		if s.Job != nil {
			wh += s.Job.RealDuration() * s.Job.Weight
		}
	}
	return wh + float64(a.NonshiftHours)
}

func (a *Attendee) Requested(dept int) bool { return a.RequestedDepts.Has(dept) }

func (a *Attendee) AssignedTo(dept int) bool { return a.AssignedDepts.Has(dept) }

func (a *Attendee) HasShiftsIn(dept int) bool {
	for _, s := range a.Shifts {
		if s.Job != nil && s.Job.Location == dept {
			return true
		}
	}
	return false
}

// ShiftPrereqsComplete reports whether the volunteer checklist is done
// enough to sign up for shifts.
func (a *Attendee) ShiftPrereqsComplete() bool {
	return !a.Placeholder && a.FoodRestrictions != nil && a.ShirtSizeMarked() &&
		(a.BadgeType != config.StaffBadge || a.HotelRequests != nil || !config.Event().BeforeRoomDeadline())
}

// PastYearsJSON decodes the past_years column; malformed data decodes as
// nothing.
func (a *Attendee) PastYearsJSON() []any {
	var years []any
	if a.PastYears == "" {
		return years
	}
	if err := json.Unmarshal([]byte(a.PastYears), &years); err != nil {
		return nil
	}
	return years
}

func (a *Attendee) HotelEligible() bool {
	return !config.Event().RoomDeadline.IsZero() && a.BadgeType == config.StaffBadge
}

func (a *Attendee) HotelNights() []int {
	if a.HotelRequests == nil {
		return nil
	}
	return a.HotelRequests.NightInts()
}

func (a *Attendee) HotelStatus() string {
	hr := a.HotelRequests
	switch {
	case hr == nil:
		return "Has not filled out volunteer checklist"
	case hr.Nights == "":
		return "Declined hotel space"
	case hr.SetupTeardown():
		status := "not yet approved"
		if hr.Approved {
			status = "approved"
		}
		return fmt.Sprintf("Hotel nights: %s (%s)", hr.NightsDisplay(), status)
	default:
		return "Hotel nights: " + hr.NightsDisplay()
	}
}

func (a *Attendee) PaymentDeadline() time.Time {
	return paymentDeadline(a.Registered)
}

func intersects(xs, ys []int) bool {
	for _, x := range xs {
		for _, y := range ys {
			if x == y {
				return true
			}
		}
	}
	return false
}
