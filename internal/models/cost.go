package models

import (
	"strings"
	"time"

	"github.com/magfest/uber/internal/config"
)

// Cost is one named component of what a row owes.
type Cost struct {
	Name   string
	Amount int
}

// Coster is implemented by rows that owe money.
type Coster interface {
	CostProperties() []Cost
}

// DefaultCost sums the cost components of c.
func DefaultCost(c Coster) int {
	total := 0
	for _, cost := range c.CostProperties() {
		total += cost.Amount
	}
	return total
}

// paymentDeadline is two weeks after registering, at 23:59 event time, but
// never later than two days before the takedown date.
func paymentDeadline(registered time.Time) time.Time {
	ev := config.Event()
	loc := ev.Location()
	if registered.IsZero() {
		registered = ev.LocalizedNow()
	}
	d := registered.In(loc).AddDate(0, 0, 14)
	deadline := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc)
	if limit := ev.Takedown.AddDate(0, 0, -2); limit.Before(deadline) {
		return limit
	}
	return deadline
}

// CommaAnd joins xs as English prose: "a", "a and b", "a, b, and c".
func CommaAnd(xs []string) string {
	switch len(xs) {
	case 0:
		return ""
	case 1:
		return xs[0]
	case 2:
		return xs[0] + " and " + xs[1]
	}
	return strings.Join(xs[:len(xs)-1], ", ") + ", and " + xs[len(xs)-1]
}

// HourDayFormat renders t in event time as e.g. "2pm Fri".
func HourDayFormat(t time.Time) string {
	return t.In(config.Event().Location()).Format("3pm Mon")
}
