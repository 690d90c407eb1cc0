package models

import (
	"time"

	"github.com/magfest/uber/internal/config"
)

// Event is a scheduled panel, measured in half hours.
type Event struct {
	MagModel
	Location    int `uber:"choice=event_location"`
	StartTime   time.Time
	Duration    int    `validate:"gte=0"`
	Name        string `gorm:"not null"`
	Description string

	AssignedPanelists []*AssignedPanelist `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (Event) TableName() string { return "event" }

func (e *Event) Describe() string { return "<Event " + e.Name + ">" }

func (e *Event) HalfHours() []time.Time {
	out := make([]time.Time, 0, max(0, e.Duration))
	for i := 0; i < e.Duration; i++ {
		out = append(out, e.StartTime.Add(time.Duration(i)*30*time.Minute))
	}
	return out
}

func (e *Event) Minutes() int { return e.Duration * 30 }

// StartSlot is the number of half hours between the epoch and the start;
// ok is false while no start time is set.
func (e *Event) StartSlot() (slot int, ok bool) {
	if e.StartTime.IsZero() {
		return 0, false
	}
	return int(e.StartTime.Sub(config.Event().Epoch) / (30 * time.Minute)), true
}

func (e *Event) LocationLabel() string { return Label(e, "location") }

type AssignedPanelist struct {
	MagModel
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	EventID    string `gorm:"type:varchar(36);index" uber:"fk=event" validate:"required"`

	Attendee *Attendee `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
	Event    *Event    `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (AssignedPanelist) TableName() string { return "assigned_panelist" }

func (p *AssignedPanelist) Describe() string {
	who, what := p.AttendeeID, p.EventID
	if p.Attendee != nil {
		who = p.Attendee.FullName()
	}
	if p.Event != nil {
		what = p.Event.Name
	}
	return "<" + who + " panelisting " + what + ">"
}
