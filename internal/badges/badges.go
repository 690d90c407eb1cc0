// Package badges holds the numbering arithmetic for pre-assigned badges.
//
// Numbers of one badge type live in a closed numeric range and are kept
// contiguous from the bottom of that range. Nothing here touches the
// database: callers hand in the numbers they see and apply the moves that
// come back.
package badges

import "fmt"

// Range is the closed interval of numbers a badge type may use.
type Range struct {
	Lo int
	Hi int
}

func (r Range) Contains(n int) bool {
	return n >= r.Lo && n <= r.Hi
}

// CheckRange returns a message when num is set and falls outside r.
// Zero means "no number" and is always accepted.
func CheckRange(num int, r Range, label string) string {
	if num == 0 || r.Contains(num) {
		return ""
	}
	return fmt.Sprintf("Badge number %d is out of range for %s badges (%d - %d)", num, label, r.Lo, r.Hi)
}

// Next returns the number the next badge of a type should get.
//
// highest is the largest number already stored in r (0 when none), old is
// the number the badge being assigned currently holds, and pending holds
// numbers handed out in memory but not yet written. A badge that already
// holds the highest number keeps it.
func Next(r Range, highest, old int, pending []int) int {
	next := r.Lo
	if highest != 0 {
		next = highest
		if old == 0 || highest != old {
			next++
		}
	}
	for _, p := range pending {
		if p != old && r.Contains(p) && p+1 > next {
			next = p + 1
		}
	}
	return next
}

// Holder is one numbered badge.
type Holder struct {
	ID  string
	Num int
}

// Move is a single renumbering.
type Move struct {
	ID   string
	From int
	To   int
}

// Shift moves every numbered holder in [from, until] one step down or up.
func Shift(holders []Holder, from, until int, down bool) []Move {
	delta := 1
	if down {
		delta = -1
	}
	var moves []Move
	for _, h := range holders {
		if h.Num == 0 || h.Num < from || h.Num > until {
			continue
		}
		moves = append(moves, Move{ID: h.ID, From: h.Num, To: h.Num + delta})
	}
	return moves
}

// Span is a block of numbers to shift by one.
type Span struct {
	From  int
	Until int
	Down  bool
}

// ChangePlan describes how to give one badge a new number in a range.
type ChangePlan struct {
	Num     int
	Shift   *Span
	TooHigh bool
	Full    bool
}

// PlanChange works out where a badge lands when it asks for requested
// (0 meaning "the next free number", or the current one when the badge
// already holds a number in r) inside r.
//
// old is the number the badge holds now; it counts as part of the block
// only when it lies inside r. highest is the largest number stored in r.
// A requested number past the end of the block is clamped to the end and
// reported as TooHigh. The returned Shift never includes the badge itself.
func PlanChange(r Range, old, highest, requested int) ChangePlan {
	holds := old != 0 && r.Contains(old)

	limit := r.Lo
	switch {
	case holds:
		limit = highest
	case highest != 0:
		limit = highest + 1
	}

	plan := ChangePlan{Num: requested}
	if !holds && limit > r.Hi {
		plan.Full = true
		return plan
	}
	switch {
	case requested == 0 && holds:
		plan.Num = old
	case requested == 0:
		plan.Num = limit
	case requested > limit:
		plan.Num = limit
		plan.TooHigh = true
	}

	switch {
	case holds && old < plan.Num:
		plan.Shift = &Span{From: old + 1, Until: plan.Num, Down: true}
	case holds && old > plan.Num:
		plan.Shift = &Span{From: plan.Num, Until: old - 1}
	case !holds && highest != 0 && plan.Num <= highest:
		plan.Shift = &Span{From: plan.Num, Until: highest}
	}
	return plan
}
