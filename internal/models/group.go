package models

import (
	"math"
	"sort"
	"time"

	"github.com/magfest/uber/internal/config"
)

type Group struct {
	MagModel
	Name         string
	Tables       float64
	Address      string
	Website      string
	Wares        string
	Description  string
	SpecialNeeds string
	AmountPaid   int        `uber:"admin_only" validate:"gte=0"`
	Cost         int        `uber:"admin_only" validate:"gte=0"`
	AutoRecalc   bool       `uber:"admin_only"`
	CanAdd       bool       `uber:"admin_only"`
	AdminNotes   string     `uber:"admin_only"`
	Status       int        `uber:"choice=dealer_status,admin_only"`
	Registered   time.Time  `gorm:"autoCreateTime"`
	Approved     *time.Time
	LeaderID     *string    `gorm:"type:varchar(36)" uber:"fk=attendee"`

	Attendees []*Attendee `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" validate:"-"`
}

func (Group) TableName() string { return "group" }

func (g *Group) SetDefaults() {
	g.AutoRecalc = true
	g.Status = config.Unapproved
}

func (g *Group) Describe() string { return "<Group " + g.Name + ">" }

// Leader is the attendee whose id is LeaderID, looked up among the
// group's attendees.
func (g *Group) Leader() *Attendee {
	if g.LeaderID == nil {
		return nil
	}
	for _, a := range g.Attendees {
		if a.ID == *g.LeaderID {
			return a
		}
	}
	return nil
}

// PresaveAdjust picks the leader when exactly one badge has been claimed,
// recalculates the cost, stamps approval and gives a dealer's leader the
// dealer ribbon.
func (g *Group) PresaveAdjust(uow UnitOfWork) error {
	var assigned []*Attendee
	for _, a := range g.Attendees {
		if !a.IsUnassigned() {
			assigned = append(assigned, a)
		}
	}
	if len(assigned) == 1 {
		id := assigned[0].EnsureID()
		g.LeaderID = &id
	}
	if g.AutoRecalc {
		g.Cost = DefaultCost(g)
	}
	if g.Status == config.Approved && g.Approved == nil {
		now := config.Now().UTC()
		g.Approved = &now
	}
	if leader := g.Leader(); leader != nil && g.IsDealer() {
		leader.Ribbon = config.DealerRibbon
	}
	return nil
}

// SortedAttendees puts claimed badges first, the leader first among them,
// then orders by name.
func (g *Group) SortedAttendees() []*Attendee {
	sorted := append([]*Attendee(nil), g.Attendees...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsUnassigned() != b.IsUnassigned() {
			return !a.IsUnassigned()
		}
		aLead := g.LeaderID != nil && a.ID == *g.LeaderID
		bLead := g.LeaderID != nil && b.ID == *g.LeaderID
		if aLead != bLead {
			return aLead
		}
		return a.FullName() < b.FullName()
	})
	return sorted
}

// Floating are the unclaimed badges the group paid for.
func (g *Group) Floating() []*Attendee {
	var out []*Attendee
	for _, a := range g.Attendees {
		if a.IsUnassigned() && a.Paid == config.PaidByGroup {
			out = append(out, a)
		}
	}
	return out
}

// NewRibbon is the ribbon a badge added to the group should get.
func (g *Group) NewRibbon() int {
	for _, a := range g.Attendees {
		if a.Ribbon == config.BandRibbon {
			return config.BandRibbon
		}
	}
	if g.IsDealer() {
		return config.DealerAsstRibbon
	}
	return config.NoRibbon
}

// RibbonAndOrBadge describes the next badge to be claimed.
func (g *Group) RibbonAndOrBadge() string {
	floating := g.Floating()
	if len(floating) == 0 {
		return ""
	}
	return floating[0].RibbonAndOrBadge()
}

func (g *Group) IsDealer() bool {
	return g.Tables != 0 && (g.Registered.IsZero() || g.AmountPaid != 0 || g.Cost != 0)
}

func (g *Group) IsUnpaid() bool {
	return g.Cost > 0 && g.AmountPaid == 0
}

// Email is the leader's address, or the only address in the group.
func (g *Group) Email() string {
	if leader := g.Leader(); leader != nil {
		return leader.Email
	}
	var emails []string
	for _, a := range g.Attendees {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	if len(emails) == 1 {
		return emails[0]
	}
	return ""
}

func (g *Group) BadgesPurchased() int {
	n := 0
	for _, a := range g.Attendees {
		if a.Paid == config.PaidByGroup {
			n++
		}
	}
	return n
}

func (g *Group) Badges() int { return len(g.Attendees) }

func (g *Group) UnregisteredBadges() int {
	n := 0
	for _, a := range g.Attendees {
		if a.IsUnassigned() {
			n++
		}
	}
	return n
}

func (g *Group) TableCost() int {
	total := 0
	for i := 1; i <= int(g.Tables); i++ {
		total += config.Event().TablePrice(i)
	}
	return total
}

func (g *Group) NewBadgeCost() int {
	ev := config.Event()
	if g.Tables != 0 {
		return ev.DealerBadgePrice
	}
	return ev.GroupPrice(ev.LocalizedNow())
}

func (g *Group) BadgeCost() int {
	ev := config.Event()
	total := 0
	for _, a := range g.Attendees {
		if a.Paid == config.PaidByGroup {
			registered := a.Registered
			if registered.IsZero() {
				registered = ev.LocalizedNow()
			}
			total += ev.GroupPrice(registered)
		}
	}
	return total
}

// AmountExtra is what the members of a brand new group pledged on top of
// their badges.
func (g *Group) AmountExtra() int {
	if !g.IsNew() {
		return 0
	}
	total := 0
	for _, a := range g.Attendees {
		if a.Paid == config.PaidByGroup {
			total += a.AmountUnpaid()
		}
	}
	return total
}

func (g *Group) CostProperties() []Cost {
	return []Cost{
		{"amount_extra", g.AmountExtra()},
		{"badge_cost", g.BadgeCost()},
		{"table_cost", g.TableCost()},
	}
}

func (g *Group) AmountUnpaid() int {
	if g.Registered.IsZero() {
		return DefaultCost(g)
	}
	return max(0, g.Cost-g.AmountPaid)
}

func (g *Group) DealerMaxBadges() int {
	return int(math.Ceil(g.Tables)) + 1
}

func (g *Group) DealerBadgesRemaining() int {
	return g.DealerMaxBadges() - g.Badges()
}

func (g *Group) MinBadgesAddable() int {
	switch {
	case g.IsDealer() && g.Badges() >= g.DealerMaxBadges():
		return 0
	case g.IsDealer() || g.CanAdd:
		return 1
	default:
		return 5
	}
}

func (g *Group) PaymentDeadline() time.Time {
	return paymentDeadline(g.Registered)
}

func (g *Group) StatusLabel() string { return Label(g, "status") }
