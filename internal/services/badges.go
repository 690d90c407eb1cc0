package services

import (
	"fmt"

	"github.com/magfest/uber/internal/badges"
	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

const (
	BadgeUpdated  = "Badge updated"
	BadgeTooHigh  = "That badge number was too high, so the next available badge was assigned instead"
	NoMoreBadges  = "There are no more badges available for that type"
	badgeTakenFmt = "That badge number already belongs to %q"
)

// ChangeBadge gives a a new badge type and, for numbered types, a number.
// A badgeNum of 0 asks for the next free number. The badge lock is held
// until the session ends.
//
// When custom badges shift, the badges between the old and new number
// move up or down by one to make room, and leaving a type closes the hole
// in its range. Otherwise a number that is already taken is refused.
// Refusals come back as *errs.RuleError.
func ChangeBadge(s *db.Session, a *models.Attendee, badgeType, badgeNum int) (string, error) {
	ev := config.Event()
	r, hasRange := ev.BadgeRange(badgeType)
	rng := badges.Range{Lo: r.Lo, Hi: r.Hi}
	if hasRange {
		label, _ := config.BadgeOpts.Label(badgeType)
		if msg := badges.CheckRange(badgeNum, rng, label); msg != "" {
			return "", errs.Rule(msg)
		}
	}

	s.Add(a)
	s.LockBadges()

	numbered := hasRange && (ev.IsPreassigned(badgeType) || (ev.NumberedBadges && a.CheckedIn != nil))
	if !numbered || badgeType != a.BadgeType {
		if err := vacate(s, a); err != nil {
			return "", err
		}
		a.BadgeType = badgeType
	}
	if !numbered {
		return BadgeUpdated, nil
	}

	old := a.BadgeNum
	highest, err := s.HighestInUse(badgeType)
	if err != nil {
		return "", err
	}

	if !ev.ShiftCustomBadges {
		if badgeNum == 0 || badgeNum == old {
			plan := badges.PlanChange(rng, old, highest, 0)
			if plan.Full {
				return "", errs.Rule(NoMoreBadges)
			}
			if old == 0 {
				a.BadgeNum = plan.Num
			}
			return BadgeUpdated, nil
		}
		holder, err := badgeHolder(s, badgeType, badgeNum, a)
		if err != nil {
			return "", err
		}
		if holder != nil {
			return "", errs.Rule(fmt.Sprintf(badgeTakenFmt, holder.FullName()))
		}
		a.BadgeNum = badgeNum
		return BadgeUpdated, nil
	}

	plan := badges.PlanChange(rng, old, highest, badgeNum)
	if plan.Full {
		return "", errs.Rule(NoMoreBadges)
	}
	if plan.Shift != nil {
		a.BadgeNum = 0
		if err := s.ShiftBadges(badgeType, plan.Shift.From, plan.Shift.Down, plan.Shift.Until); err != nil {
			a.BadgeNum = old
			return "", err
		}
	}
	a.BadgeNum = plan.Num
	if plan.TooHigh {
		return BadgeTooHigh, nil
	}
	return BadgeUpdated, nil
}

// vacate takes a's number away and, when custom badges shift, closes the
// hole it leaves in its type's range.
func vacate(s *db.Session, a *models.Attendee) error {
	num := a.BadgeNum
	a.BadgeNum = 0
	if num == 0 || !config.Event().ShiftCustomBadges || !a.HasPersonalizedBadge() {
		return nil
	}
	return s.ShiftBadges(a.BadgeType, num+1, true, 0)
}

// badgeHolder finds the attendee other than a who holds num, looking at
// the session's unflushed numbers first.
func badgeHolder(s *db.Session, badgeType, num int, a *models.Attendee) (*models.Attendee, error) {
	for _, m := range append(s.New(), s.Dirty()...) {
		if other, ok := m.(*models.Attendee); ok && other != a && other.BadgeType == badgeType && other.BadgeNum == num {
			return other, nil
		}
	}
	rows, err := db.All[models.Attendee](s, db.Where("badge_type = ? AND badge_num = ?", badgeType, num))
	if err != nil {
		return nil, err
	}
	for _, other := range rows {
		if other != a && other.BadgeType == badgeType && other.BadgeNum == num {
			return other, nil
		}
	}
	return nil, nil
}

// MatchToGroup lets a, who already has a badge, take the place of one of
// g's unclaimed badges of the same type. The group's badge is deleted and
// a inherits its group, payment and ribbon. Changes are flushed.
func MatchToGroup(s *db.Session, a *models.Attendee, g *models.Group) error {
	s.LockBadges()
	if err := s.Load(g, "Attendees"); err != nil {
		return err
	}

	var available, matching []*models.Attendee
	for _, m := range g.Attendees {
		if !m.IsUnassigned() {
			continue
		}
		available = append(available, m)
		if m.BadgeType == a.BadgeType {
			matching = append(matching, m)
		}
	}
	switch {
	case len(available) == 0:
		return errs.Rule("The last badge for that group has already been assigned by another station")
	case len(matching) == 0:
		return errs.Rule(fmt.Sprintf("Badge #%d is a %s badge, but %s has no badges of that type",
			a.BadgeNum, a.BadgeTypeLabel(), g.Name))
	}

	spare := matching[0]
	gid := g.EnsureID()
	a.GroupID = &gid
	a.Group = g
	a.Paid = spare.Paid
	a.AmountPaid = spare.AmountPaid
	a.Ribbon = spare.Ribbon
	DeleteFromGroup(s, spare, g)
	s.Add(a)
	return s.Flush()
}

// CheckIn marks a as picked up at the registration desk. Numbered badges
// without a number get one, or badgeNum when it is set.
func CheckIn(s *db.Session, a *models.Attendee, badgeNum int) (string, error) {
	switch {
	case a.CheckedIn != nil:
		return "", errs.Rule(a.FullName() + " is already checked in")
	case a.Banned():
		return "", errs.Rule(a.FullName() + " is on the banned list")
	case a.Paid == config.NotPaid:
		return "", errs.Rule("You cannot check in an attendee who has not paid")
	}

	s.Add(a)
	now := config.Now().UTC()
	a.CheckedIn = &now
	if config.Event().NumberedBadges && (a.BadgeNum == 0 || (badgeNum != 0 && badgeNum != a.BadgeNum)) {
		if _, err := ChangeBadge(s, a, a.BadgeType, badgeNum); err != nil {
			a.CheckedIn = nil
			return "", err
		}
	}
	return fmt.Sprintf("%s checked in as %s", a.FullName(), a.Badge()), nil
}
