package config

import (
	"sort"
	"strconv"
	"time"
)

// BadgeRange is the closed interval of numbers one badge type may use.
type BadgeRange struct {
	Lo int `koanf:"lo" validate:"gte=0"`
	Hi int `koanf:"hi" validate:"gtefield=Lo"`
}

// PriceBump raises the badge price from Starts onward.
type PriceBump struct {
	Starts time.Time `koanf:"starts"`
	Price  int       `koanf:"price" validate:"gte=0"`
}

// AgeGroup describes one age bracket.
type AgeGroup struct {
	Val       int    `koanf:"val"`
	Desc      string `koanf:"desc"`
	MinAge    int    `koanf:"min_age"`
	MaxAge    int    `koanf:"max_age"`
	Wristband string `koanf:"wristband"`
}

// EventConfig holds the rules of the event being registered for.
type EventConfig struct {
	Name     string `koanf:"name" validate:"required"`
	Timezone string `koanf:"timezone" validate:"required"`

	// Epoch and Eschaton bound the event itself; setup jobs start before
	// Epoch and teardown jobs start at or after Eschaton.
	Epoch        time.Time `koanf:"epoch"`
	Eschaton     time.Time `koanf:"eschaton"`
	RoomDeadline time.Time `koanf:"room_deadline"`
	Takedown     time.Time `koanf:"takedown"`

	AtTheCon          bool `koanf:"at_the_con"`
	ShiftCustomBadges bool `koanf:"shift_custom_badges"`
	NumberedBadges    bool `koanf:"numbered_badges"`
	ShiftsCreated     bool `koanf:"shifts_created"`

	BadgeRanges            map[int]BadgeRange `koanf:"badge_ranges" validate:"dive"`
	PreassignedBadgeTypes  []int              `koanf:"preassigned_badge_types"`
	TransferableBadgeTypes []int              `koanf:"transferable_badge_types"`

	BadgePrice       int         `koanf:"badge_price" validate:"gte=0"`
	PriceBumps       []PriceBump `koanf:"price_bumps" validate:"dive"`
	GroupDiscount    int         `koanf:"group_discount" validate:"gte=0"`
	DealerBadgePrice int         `koanf:"dealer_badge_price" validate:"gte=0"`
	OneDayPrice      int         `koanf:"oneday_price" validate:"gte=0"`
	TablePrices      []int       `koanf:"table_prices" validate:"min=1"`

	ShirtLevel     int            `koanf:"shirt_level"`
	SupporterLevel int            `koanf:"supporter_level"`
	SeasonLevel    int            `koanf:"season_level"`
	DonationTiers  map[int]string `koanf:"donation_tiers"`

	AgeGroups []AgeGroup `koanf:"age_groups" validate:"min=1"`

	BannedAttendees   []string `koanf:"banned_attendees"`
	ShiftlessDepts    []int    `koanf:"shiftless_depts"`
	DefaultAffiliates []string `koanf:"default_affiliates"`

	CoreNights        []int `koanf:"core_nights"`
	SetupNights       []int `koanf:"setup_nights"`
	TeardownNights    []int `koanf:"teardown_nights"`
	NightDisplayOrder []int `koanf:"night_display_order"`

	// Go reference layouts for form input.
	TimestampFormat string `koanf:"timestamp_format" validate:"required"`
	DateFormat      string `koanf:"date_format" validate:"required"`
}

func defaultEvent() EventConfig {
	loc := time.UTC
	epoch := time.Date(2027, time.January, 7, 8, 0, 0, 0, loc)
	return EventConfig{
		Name:         "MAGFest",
		Timezone:     "America/New_York",
		Epoch:        epoch,
		Eschaton:     epoch.Add(4*24*time.Hour - 8*time.Hour),
		RoomDeadline: epoch.AddDate(0, -1, 0),
		Takedown:     epoch.AddDate(0, 0, -7),

		ShiftCustomBadges: true,
		NumberedBadges:    true,

		BadgeRanges: map[int]BadgeRange{
			StaffBadge:     {Lo: 1, Hi: 399},
			SupporterBadge: {Lo: 400, Hi: 999},
			GuestBadge:     {Lo: 1000, Hi: 1999},
			AttendeeBadge:  {Lo: 3000, Hi: 29999},
			OneDayBadge:    {Lo: 30000, Hi: 39999},
		},
		PreassignedBadgeTypes:  []int{StaffBadge, SupporterBadge},
		TransferableBadgeTypes: []int{AttendeeBadge},

		BadgePrice:       50,
		GroupDiscount:    10,
		DealerBadgePrice: 30,
		OneDayPrice:      40,
		TablePrices:      []int{125, 175, 225, 300},

		ShirtLevel:     25,
		SupporterLevel: 60,
		SeasonLevel:    160,
		DonationTiers: map[int]string{
			0:   "No thanks",
			25:  "T-shirt",
			60:  "Supporter Package",
			160: "Season Supporter Pass",
		},

		AgeGroups: []AgeGroup{
			{Val: AgeUnknown, Desc: "How old are you?", MinAge: 0, MaxAge: 99, Wristband: "none"},
			{Val: UnderThirteen, Desc: "12 and under", MinAge: 0, MaxAge: 12, Wristband: "green"},
			{Val: UnderEighteen, Desc: "13 to 17", MinAge: 13, MaxAge: 17, Wristband: "red"},
			{Val: UnderTwentyOne, Desc: "18 to 20", MinAge: 18, MaxAge: 20, Wristband: "blue"},
			{Val: OverTwentyOne, Desc: "21 or over", MinAge: 21, MaxAge: 150, Wristband: "none"},
		},

		ShiftlessDepts:    []int{DeptStaffSupport, DeptTreasury},
		DefaultAffiliates: []string{"OverClocked ReMix", "Child's Play"},

		CoreNights:        []int{Thursday, Friday, Saturday},
		SetupNights:       []int{Monday, Tuesday, Wednesday},
		TeardownNights:    []int{Sunday},
		NightDisplayOrder: []int{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday},

		TimestampFormat: "2006-01-02T15:04:05",
		DateFormat:      "2006-01-02",
	}
}

// Location is the event's time zone, UTC when the name does not resolve.
func (e EventConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalizedNow is the current time in the event's time zone.
func (e EventConfig) LocalizedNow() time.Time {
	return Now().In(e.Location())
}

// PreCon reports whether the event has not started yet.
func (e EventConfig) PreCon() bool {
	return !e.AtTheCon && Now().Before(e.Epoch)
}

func (e EventConfig) BeforeRoomDeadline() bool {
	return !e.RoomDeadline.IsZero() && Now().Before(e.RoomDeadline)
}

func (e EventConfig) BadgeRange(badgeType int) (BadgeRange, bool) {
	r, ok := e.BadgeRanges[badgeType]
	return r, ok
}

// MaxBadge is the highest number any badge type may use.
func (e EventConfig) MaxBadge() int {
	max := 0
	for _, r := range e.BadgeRanges {
		if r.Hi > max {
			max = r.Hi
		}
	}
	return max
}

func (e EventConfig) IsPreassigned(badgeType int) bool {
	return containsInt(e.PreassignedBadgeTypes, badgeType)
}

func (e EventConfig) IsTransferable(badgeType int) bool {
	return containsInt(e.TransferableBadgeTypes, badgeType)
}

func (e EventConfig) IsShiftless(dept int) bool {
	return containsInt(e.ShiftlessDepts, dept)
}

func (e EventConfig) IsBanned(fullName string) bool {
	for _, n := range e.BannedAttendees {
		if n == fullName {
			return true
		}
	}
	return false
}

// AttendeePrice is the single badge price for a registration made at t.
func (e EventConfig) AttendeePrice(t time.Time) int {
	bumps := append([]PriceBump(nil), e.PriceBumps...)
	sort.Slice(bumps, func(i, j int) bool { return bumps[i].Starts.Before(bumps[j].Starts) })
	price := e.BadgePrice
	for _, b := range bumps {
		if !t.Before(b.Starts) {
			price = b.Price
		}
	}
	return price
}

// GroupPrice is the per-badge price for group registrations made at t.
func (e EventConfig) GroupPrice(t time.Time) int {
	return e.AttendeePrice(t) - e.GroupDiscount
}

func (e EventConfig) OneDayBadgePrice(t time.Time) int {
	return e.OneDayPrice
}

// TablePrice is the price of the nth dealer table (1-based); tables past
// the end of the list cost the same as the last one.
func (e EventConfig) TablePrice(n int) int {
	if len(e.TablePrices) == 0 || n < 1 {
		return 0
	}
	if n > len(e.TablePrices) {
		return e.TablePrices[len(e.TablePrices)-1]
	}
	return e.TablePrices[n-1]
}

// DonationTierOpts lists the donation tiers ordered by amount.
func (e EventConfig) DonationTierOpts() Opts {
	amounts := make([]int, 0, len(e.DonationTiers))
	for amt := range e.DonationTiers {
		amounts = append(amounts, amt)
	}
	sort.Ints(amounts)
	opts := make(Opts, 0, len(amounts))
	for _, amt := range amounts {
		desc := e.DonationTiers[amt]
		if amt > 0 {
			desc = "$" + strconv.Itoa(amt) + ": " + desc
		}
		opts = append(opts, Opt{Val: amt, Desc: desc})
	}
	return opts
}

// DonationTier is the bare tier description for amount.
func (e EventConfig) DonationTier(amount int) string {
	return e.DonationTiers[amount]
}

func (e EventConfig) AgeGroupOpts() Opts {
	opts := make(Opts, len(e.AgeGroups))
	for i, g := range e.AgeGroups {
		opts[i] = Opt{Val: g.Val, Desc: g.Desc}
	}
	return opts
}

func (e EventConfig) AgeGroup(val int) (AgeGroup, bool) {
	for _, g := range e.AgeGroups {
		if g.Val == val {
			return g, true
		}
	}
	return AgeGroup{}, false
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
