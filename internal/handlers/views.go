package handlers

import (
	"time"

	"github.com/magfest/uber/internal/models"
	"github.com/magfest/uber/internal/services"
)

type attendeeView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Badge     string     `json:"badge"`
	BadgeType int        `json:"badge_type"`
	BadgeNum  int        `json:"badge_num"`
	Ribbon    string     `json:"ribbon"`
	Paid      string     `json:"paid"`
	Group     string     `json:"group,omitempty"`
	Staffing  bool       `json:"staffing"`
	CheckedIn *time.Time `json:"checked_in,omitempty"`
}

func viewAttendee(a *models.Attendee) attendeeView {
	v := attendeeView{
		ID:        a.ID,
		Name:      a.FullName(),
		Email:     a.Email,
		Badge:     a.Badge(),
		BadgeType: a.BadgeType,
		BadgeNum:  a.BadgeNum,
		Ribbon:    a.RibbonLabel(),
		Paid:      a.PaidLabel(),
		Staffing:  a.Staffing,
		CheckedIn: a.CheckedIn,
	}
	if a.Group != nil {
		v.Group = a.Group.Name
	}
	return v
}

func viewAttendees(as []*models.Attendee) []attendeeView {
	out := make([]attendeeView, len(as))
	for i, a := range as {
		out[i] = viewAttendee(a)
	}
	return out
}

type trackingView struct {
	When   time.Time `json:"when"`
	Who    string    `json:"who"`
	Action string    `json:"action"`
	Which  string    `json:"which"`
	Links  string    `json:"links,omitempty"`
	Data   string    `json:"data"`
}

func viewTracking(rows []*models.Tracking) []trackingView {
	out := make([]trackingView, len(rows))
	for i, t := range rows {
		out[i] = trackingView{When: t.When, Who: t.Who, Action: t.ActionLabel(), Which: t.Which, Links: t.Links, Data: t.Data}
	}
	return out
}

type jobView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Start      time.Time `json:"start"`
	Hours      int       `json:"hours"`
	Restricted bool      `json:"restricted"`
	Slots      int       `json:"slots"`
	Taken      int       `json:"taken"`
	Available  int       `json:"available_staffers"`
}

func viewRoster(r *services.Roster) []jobView {
	out := make([]jobView, len(r.Jobs))
	for i, j := range r.Jobs {
		out[i] = jobView{
			ID:         j.ID,
			Name:       j.Name,
			Location:   j.LocationLabel(),
			Start:      j.StartTime,
			Hours:      j.Duration,
			Restricted: j.Restricted,
			Slots:      j.Slots,
			Taken:      j.SlotsTaken(),
			Available:  len(r.AvailableStaffers(j)),
		}
	}
	return out
}
