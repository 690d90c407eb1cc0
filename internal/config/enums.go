package config

import (
	"sort"
	"strings"
)

// Opt is one entry of a dropdown or checkbox group.
type Opt struct {
	Val  int
	Desc string
}

// Opts is an ordered option list.
type Opts []Opt

func (o Opts) Label(v int) (string, bool) {
	for _, opt := range o {
		if opt.Val == v {
			return opt.Desc, true
		}
	}
	return "", false
}

func (o Opts) Has(v int) bool {
	_, ok := o.Label(v)
	return ok
}

func (o Opts) Vals() []int {
	vals := make([]int, len(o))
	for i, opt := range o {
		vals[i] = opt.Val
	}
	return vals
}

// Badge types.
const (
	AttendeeBadge = iota + 1
	SupporterBadge
	StaffBadge
	GuestBadge
	OneDayBadge
	PseudoGroupBadge
	PseudoDealerBadge
)

var BadgeOpts = Opts{
	{AttendeeBadge, "Attendee"},
	{SupporterBadge, "Supporter"},
	{StaffBadge, "Staff"},
	{GuestBadge, "Guest"},
	{OneDayBadge, "One Day"},
	{PseudoGroupBadge, "Group"},
	{PseudoDealerBadge, "Dealer"},
}

// Ribbons.
const (
	NoRibbon = iota + 1
	VolunteerRibbon
	DeptHeadRibbon
	DealerRibbon
	DealerAsstRibbon
	BandRibbon
	PanelistRibbon
	PressRibbon
)

var RibbonOpts = Opts{
	{NoRibbon, "no ribbon"},
	{VolunteerRibbon, "Volunteer"},
	{DeptHeadRibbon, "Department Head"},
	{DealerRibbon, "Shopkeep"},
	{DealerAsstRibbon, "Shopkeep Assistant"},
	{BandRibbon, "Band"},
	{PanelistRibbon, "Panelist"},
	{PressRibbon, "Camera"},
}

// Payment statuses.
const (
	NotPaid = iota + 1
	HasPaid
	NeedNotPay
	Refunded
	PaidByGroup
)

var PaymentOpts = Opts{
	{NotPaid, "no"},
	{HasPaid, "yes"},
	{NeedNotPay, "doesn't need to"},
	{Refunded, "paid and refunded"},
	{PaidByGroup, "paid by group"},
}

// Payment methods.
const (
	Cash = iota + 1
	Stripe
	Square
	Manual
)

var PaymentMethodOpts = Opts{
	{Cash, "Cash"},
	{Stripe, "Stripe"},
	{Square, "Square"},
	{Manual, "Manual"},
}

// Age groups.
const (
	AgeUnknown = iota + 1
	UnderTwentyOne
	OverTwentyOne
	UnderThirteen
	UnderEighteen
)

// Shirt sizes.
const (
	NoShirt = iota + 1
	SizeUnknown
	ShirtS
	ShirtM
	ShirtL
	ShirtXL
	Shirt2XL
	Shirt3XL
)

var ShirtOpts = Opts{
	{NoShirt, "no shirt"},
	{SizeUnknown, "size unknown"},
	{ShirtS, "small"},
	{ShirtM, "medium"},
	{ShirtL, "large"},
	{ShirtXL, "x-large"},
	{Shirt2XL, "2x-large"},
	{Shirt3XL, "3x-large"},
}

// Attendee interests.
const (
	InterestConsole = iota + 1
	InterestArcade
	InterestLAN
	InterestMusic
	InterestPanels
	InterestTabletop
)

var InterestOpts = Opts{
	{InterestConsole, "Consoles"},
	{InterestArcade, "Arcade"},
	{InterestLAN, "LAN"},
	{InterestMusic, "Music"},
	{InterestPanels, "Guests/Panels"},
	{InterestTabletop, "Tabletop games"},
}

// Departments, used both as job locations and volunteer interests.
const (
	DeptArcade = iota + 1
	DeptConsole
	DeptRegdesk
	DeptStops
	DeptTechOps
	DeptMerch
	DeptPanels
	DeptSecurity
	DeptStaffSupport
	DeptTreasury
)

var JobLocationOpts = Opts{
	{DeptArcade, "Arcade"},
	{DeptConsole, "Consoles"},
	{DeptRegdesk, "Registration"},
	{DeptStops, "Staff Ops"},
	{DeptTechOps, "Tech Ops"},
	{DeptMerch, "Merchandise"},
	{DeptPanels, "Panels"},
	{DeptSecurity, "Security"},
	{DeptStaffSupport, "Staff Support"},
	{DeptTreasury, "Treasury"},
}

// JobInterestOpts are the departments a volunteer may ask for.
var JobInterestOpts = Opts{
	{DeptArcade, "Arcade"},
	{DeptConsole, "Consoles"},
	{DeptRegdesk, "Registration"},
	{DeptTechOps, "Tech Ops"},
	{DeptMerch, "Merchandise"},
	{DeptPanels, "Panels"},
	{DeptSecurity, "Security"},
}

// Dealer application statuses.
const (
	Unapproved = iota + 1
	Waitlisted
	Approved
)

var DealerStatusOpts = Opts{
	{Unapproved, "Pending Approval"},
	{Waitlisted, "Waitlisted"},
	{Approved, "Approved"},
}

// Job types.
const (
	Regular = iota + 1
	Setup
	Teardown
)

var JobTypeOpts = Opts{
	{Regular, "Regular"},
	{Setup, "Setup"},
	{Teardown, "Teardown"},
}

// Shift worked statuses.
const (
	ShiftUnmarked = iota + 1
	ShiftWorked
	ShiftUnworked
)

var WorkedStatusOpts = Opts{
	{ShiftUnmarked, "SELECT A STATUS"},
	{ShiftWorked, "This shift was worked"},
	{ShiftUnworked, "Staffer didn't show up or left early"},
}

// Shift ratings.
const (
	Unrated = iota + 1
	RatedBad
	RatedGood
	RatedGreat
)

var RatingOpts = Opts{
	{Unrated, "Shift Unrated"},
	{RatedBad, "Staffer performed poorly"},
	{RatedGood, "Staffer performed well"},
	{RatedGreat, "Staffer went above and beyond"},
}

// Hotel nights.
const (
	Monday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var NightOpts = Opts{
	{Monday, "Mon"},
	{Tuesday, "Tue"},
	{Wednesday, "Wed"},
	{Thursday, "Thu"},
	{Friday, "Fri"},
	{Saturday, "Sat"},
	{Sunday, "Sun"},
}

// NightNames maps the lowercase night names to their values.
var NightNames = map[string]int{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"sunday":    Sunday,
}

// Admin access levels.
const (
	AccessAccounts = iota + 1
	AccessPeople
	AccessRegAtCon
	AccessStuff
	AccessMoney
	AccessCheckins
	AccessStaffing
)

var AccessOpts = Opts{
	{AccessAccounts, "Account Management"},
	{AccessPeople, "Registration and Staffing"},
	{AccessRegAtCon, "At-the-Con Registration"},
	{AccessStuff, "Inventory and Scheduling"},
	{AccessMoney, "Budget"},
	{AccessCheckins, "Checkins"},
	{AccessStaffing, "Staffing"},
}

// Tracking actions.
const (
	Created = iota + 1
	Updated
	Deleted
	AutoBadgeShift
	UnpaidPrereg
	EditedPrereg
	PageViewed
)

var TrackingOpts = Opts{
	{Created, "created"},
	{Updated, "updated"},
	{Deleted, "deleted"},
	{AutoBadgeShift, "automatic badge-shift"},
	{UnpaidPrereg, "unpaid preregistration"},
	{EditedPrereg, "edited_unpaid_prereg"},
	{PageViewed, "viewed"},
}

// Food restrictions.
const (
	Vegetarian = iota + 1
	Vegan
	GlutenFree
	NoPork
	NutAllergy
)

var FoodRestrictionOpts = Opts{
	{Vegetarian, "Vegetarian"},
	{Vegan, "Vegan"},
	{GlutenFree, "Cannot eat gluten"},
	{NoPork, "Cannot eat pork"},
	{NutAllergy, "Nut allergy"},
}

// Sandwich preferences.
const (
	SandwichTurkey = iota + 1
	SandwichHam
	SandwichVeggie
	SandwichPBJ
)

var SandwichOpts = Opts{
	{SandwichTurkey, "Turkey"},
	{SandwichHam, "Ham"},
	{SandwichVeggie, "Veggie"},
	{SandwichPBJ, "Peanut butter and jelly"},
}

// Event (panel schedule) locations.
const (
	PanelsOne = iota + 1
	PanelsTwo
	Autographs
	Concerts
)

var EventLocationOpts = Opts{
	{PanelsOne, "Panels 1"},
	{PanelsTwo, "Panels 2"},
	{Autographs, "Autographs"},
	{Concerts, "Concerts"},
}

// Sale methods.
const (
	SaleMerch = iota + 1
	SaleCash
	SaleCredit
)

var SaleOpts = Opts{
	{SaleMerch, "Merch"},
	{SaleCash, "Cash"},
	{SaleCredit, "Credit Card"},
}

var optSets = map[string]func() Opts{
	"badge":            func() Opts { return BadgeOpts },
	"ribbon":           func() Opts { return RibbonOpts },
	"paid":             func() Opts { return PaymentOpts },
	"payment_method":   func() Opts { return PaymentMethodOpts },
	"age_group":        func() Opts { return Get().Event.AgeGroupOpts() },
	"shirt":            func() Opts { return ShirtOpts },
	"interest":         func() Opts { return InterestOpts },
	"job_location":     func() Opts { return JobLocationOpts },
	"job_interest":     func() Opts { return JobInterestOpts },
	"dealer_status":    func() Opts { return DealerStatusOpts },
	"job_type":         func() Opts { return JobTypeOpts },
	"worked":           func() Opts { return WorkedStatusOpts },
	"rating":           func() Opts { return RatingOpts },
	"night":            func() Opts { return NightOpts },
	"access":           func() Opts { return AccessOpts },
	"tracking":         func() Opts { return TrackingOpts },
	"food_restriction": func() Opts { return FoodRestrictionOpts },
	"sandwich":         func() Opts { return SandwichOpts },
	"event_location":   func() Opts { return EventLocationOpts },
	"sale":             func() Opts { return SaleOpts },
	"donation_tier":    func() Opts { return Get().Event.DonationTierOpts() },
}

// OptSet returns the named option list; ok is false for unknown names.
func OptSet(name string) (Opts, bool) {
	f, ok := optSets[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	return f(), true
}

// OptSetNames lists every registered option set, sorted.
func OptSetNames() []string {
	names := make([]string, 0, len(optSets))
	for name := range optSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
