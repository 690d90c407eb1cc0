package models

import (
	"sort"
	"strings"
	"time"

	"github.com/magfest/uber/internal/config"
)

// HotelRequests is a volunteer's request for staff crash space.
type HotelRequests struct {
	MagModel
	AttendeeID        string      `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
	Nights            MultiChoice `uber:"choice=night"`
	WantedRoommates   string
	UnwantedRoommates string
	SpecialNeeds      string
	Approved          bool `uber:"admin_only"`

	Attendee *Attendee `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (HotelRequests) TableName() string { return "hotel_requests" }

func (h *HotelRequests) Describe() string {
	if h.Attendee == nil {
		return "<Hotel Requests " + h.ID + ">"
	}
	return "<" + h.Attendee.FullName() + " Hotel Requests>"
}

// Decline keeps only the core nights, which every volunteer gets.
func (h *HotelRequests) Decline() {
	var keep []int
	for _, n := range h.Nights.Ints(nil) {
		if containsInt(config.Event().CoreNights, n) {
			keep = append(keep, n)
		}
	}
	h.Nights = MultiChoiceOf(keep...)
}

func (h *HotelRequests) NightInts() []int { return h.Nights.Ints(config.NightOpts) }

func (h *HotelRequests) NightsDisplay() string { return nightsDisplay(h.Nights) }

func (h *HotelRequests) SetupTeardown() bool { return setupTeardown(h.Nights) }

func (h *HotelRequests) HasNight(night int) bool { return h.Nights.Has(night) }

func (h *HotelRequests) SetNight(night int, on bool) { h.Nights = setNight(h.Nights, night, on) }

// Room is a hotel room handed out to staff.
type Room struct {
	MagModel
	Department int `uber:"choice=job_location"`
	Notes      string
	Nights     MultiChoice `uber:"choice=night"`
	Created    time.Time   `gorm:"autoCreateTime"`

	RoomAssignments []*RoomAssignment `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (Room) TableName() string { return "room" }

func (r *Room) NightInts() []int { return r.Nights.Ints(config.NightOpts) }

func (r *Room) NightsDisplay() string { return nightsDisplay(r.Nights) }

func (r *Room) SetupTeardown() bool { return setupTeardown(r.Nights) }

func (r *Room) HasNight(night int) bool { return r.Nights.Has(night) }

func (r *Room) SetNight(night int, on bool) { r.Nights = setNight(r.Nights, night, on) }

type RoomAssignment struct {
	MagModel
	RoomID     string `gorm:"type:varchar(36);index" uber:"fk=room" validate:"required"`
	AttendeeID string `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
}

func (RoomAssignment) TableName() string { return "room_assignment" }

// nightsDisplay lists the nights in display order, e.g. "Wed / Thu".
func nightsDisplay(mc MultiChoice) string {
	ev := config.Event()
	nights := mc.Ints(config.NightOpts)
	pos := func(n int) int {
		for i, v := range ev.NightDisplayOrder {
			if v == n {
				return i
			}
		}
		return len(ev.NightDisplayOrder)
	}
	sort.SliceStable(nights, func(i, j int) bool { return pos(nights[i]) < pos(nights[j]) })
	labels := make([]string, len(nights))
	for i, n := range nights {
		labels[i], _ = config.NightOpts.Label(n)
	}
	return strings.Join(labels, " / ")
}

// setupTeardown reports any night outside the core nights.
func setupTeardown(mc MultiChoice) bool {
	core := config.Event().CoreNights
	for _, n := range mc.Ints(config.NightOpts) {
		if !containsInt(core, n) {
			return true
		}
	}
	return false
}

func setNight(mc MultiChoice, night int, on bool) MultiChoice {
	if on {
		return mc.Add(night)
	}
	return mc.Remove(night)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
