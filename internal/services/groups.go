package services

import (
	"sort"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

// DeleteFromGroup deletes a and takes it out of g's member list, so the
// group's cost is recalculated without it at the next flush.
func DeleteFromGroup(s *db.Session, a *models.Attendee, g *models.Group) {
	s.Delete(a)
	kept := make([]*models.Attendee, 0, len(g.Attendees))
	for _, other := range g.Attendees {
		if other != a {
			kept = append(kept, other)
		}
	}
	g.Attendees = kept
}

// AssignBadges grows or shrinks g to count badges. New badges are paid by
// the group and get badgeType (attendee badges when 0) and the group's
// ribbon. Shrinking removes the most recently registered unclaimed badges
// and is refused when there are not enough of them.
func AssignBadges(s *db.Session, g *models.Group, count, badgeType int) error {
	if badgeType == 0 {
		badgeType = config.AttendeeBadge
	}
	s.Add(g)
	if err := s.Load(g, "Attendees"); err != nil {
		return err
	}

	diff := count - g.Badges()
	switch {
	case diff > 0:
		gid := g.EnsureID()
		for i := 0; i < diff; i++ {
			a := models.New[models.Attendee]()
			a.BadgeType = badgeType
			a.Ribbon = g.NewRibbon()
			a.Paid = config.PaidByGroup
			a.GroupID = &gid
			a.Group = g
			g.Attendees = append(g.Attendees, a)
		}
		s.Add(g)
	case diff < 0:
		floating := g.Floating()
		if len(floating) < -diff {
			return errs.Rule("You cannot reduce the number of badges for a group to below the number of assigned badges")
		}
		sort.SliceStable(floating, func(i, j int) bool {
			return floating[i].Registered.After(floating[j].Registered)
		})
		for _, a := range floating[:-diff] {
			DeleteFromGroup(s, a, g)
		}
	}
	return nil
}
