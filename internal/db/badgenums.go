package db

import (
	"fmt"

	"github.com/magfest/uber/internal/badges"
	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/metrics"
	"github.com/magfest/uber/internal/models"
)

// HighestBadgeNum is the largest number stored for badgeType inside its
// range, 0 when there is none. Unflushed changes are not counted.
func (s *Session) HighestBadgeNum(badgeType int) (int, error) {
	r, ok := config.Event().BadgeRange(badgeType)
	if !ok {
		return 0, nil
	}
	var n int
	err := s.tx.Model(&models.Attendee{}).
		Where("badge_type = ? AND badge_num BETWEEN ? AND ?", badgeType, r.Lo, r.Hi).
		Select("COALESCE(MAX(badge_num), 0)").
		Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("highest badge number: %w", err)
	}
	return n, nil
}

// HighestInUse is like HighestBadgeNum but reads attendees already in the
// session from memory, so unflushed renumbering is counted.
func (s *Session) HighestInUse(badgeType int) (int, error) {
	r, ok := config.Event().BadgeRange(badgeType)
	if !ok {
		return 0, nil
	}
	var tracked []string
	highest := 0
	for _, m := range s.order {
		a, ok := m.(*models.Attendee)
		if !ok {
			continue
		}
		if !a.IsNew() {
			tracked = append(tracked, a.ID)
		}
		if s.deleted[keyOf(a)] || a.BadgeType != badgeType || a.BadgeNum < r.Lo || a.BadgeNum > r.Hi {
			continue
		}
		highest = max(highest, a.BadgeNum)
	}

	q := s.tx.Model(&models.Attendee{}).
		Where("badge_type = ? AND badge_num BETWEEN ? AND ?", badgeType, r.Lo, r.Hi)
	if len(tracked) > 0 {
		q = q.Where("id NOT IN ?", tracked)
	}
	var stored int
	if err := q.Select("COALESCE(MAX(badge_num), 0)").Scan(&stored).Error; err != nil {
		return 0, fmt.Errorf("highest badge number: %w", err)
	}
	return max(highest, stored), nil
}

// NextBadgeNum is the number the next badge of badgeType should get,
// counting numbers handed out in this session but not yet written. Types
// that are not pre-assigned get 0 before the event.
func (s *Session) NextBadgeNum(badgeType, oldNum int) (int, error) {
	ev := config.Event()
	r, ok := ev.BadgeRange(badgeType)
	if !ok || (!ev.AtTheCon && !ev.IsPreassigned(badgeType)) {
		return 0, nil
	}
	if !s.locked {
		s.LockBadges()
	}
	highest, err := s.HighestBadgeNum(badgeType)
	if err != nil {
		return 0, err
	}
	var pending []int
	for _, m := range s.order {
		a, ok := m.(*models.Attendee)
		if !ok || s.deleted[keyOf(a)] || a.BadgeType != badgeType || a.BadgeNum == 0 {
			continue
		}
		if a.IsNew() || models.Changed(a, "badge_num") || models.Changed(a, "badge_type") {
			pending = append(pending, a.BadgeNum)
		}
	}
	return badges.Next(badges.Range{Lo: r.Lo, Hi: r.Hi}, highest, oldNum, pending), nil
}

// ShiftBadges moves every numbered badge of badgeType between from and
// until one step down or up. An until of 0 means the top of every range.
// Badges already in the session are matched on their current numbers.
func (s *Session) ShiftBadges(badgeType, from int, down bool, until int) error {
	if until == 0 {
		until = config.Event().MaxBadge()
	}
	if !s.locked {
		s.LockBadges()
	}
	stored, err := All[models.Attendee](s,
		Where("badge_type = ? AND badge_num BETWEEN ? AND ? AND badge_num <> 0", badgeType, from, until))
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Attendee)
	var holders []badges.Holder
	hold := func(a *models.Attendee) {
		if _, ok := byID[a.ID]; ok || a.BadgeType != badgeType {
			return
		}
		byID[a.ID] = a
		holders = append(holders, badges.Holder{ID: a.ID, Num: a.BadgeNum})
	}
	for _, a := range stored {
		hold(a)
	}
	for _, m := range s.order {
		if a, ok := m.(*models.Attendee); ok && !s.deleted[keyOf(a)] {
			hold(a)
		}
	}

	moves := badges.Shift(holders, from, until, down)
	for _, mv := range moves {
		byID[mv.ID].BadgeNum = mv.To
	}
	metrics.BadgeShifts.Add(float64(len(moves)))
	return nil
}
