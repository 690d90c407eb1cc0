package models

import (
	"fmt"
	"time"

	"github.com/magfest/uber/internal/config"
)

// Job is a block of volunteer work with a number of slots to fill.
type Job struct {
	MagModel
	Type        int `uber:"choice=job_type"`
	Name        string
	Description string
	Location    int       `gorm:"index" uber:"choice=job_location"`
	StartTime   time.Time `gorm:"index"`
	Duration    int       `validate:"gte=0"`
	Weight      float64
	Slots       int `validate:"gte=0"`
	Restricted  bool
	Extra15     bool `gorm:"column:extra15"`

	Shifts []*Shift `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" validate:"-"`

	// Taken marks jobs the attendee already holds in PossibleAndCurrent.
	Taken bool `gorm:"-"`
}

func (Job) TableName() string { return "job" }

func (j *Job) SetDefaults() {
	j.Type = config.Regular
	j.Weight = 1
}

func (j *Job) Describe() string { return "<Job " + j.Name + ">" }

// Hours are the start of every hour the job covers.
func (j *Job) Hours() []time.Time {
	hours := make([]time.Time, 0, max(0, j.Duration))
	start := j.StartTime.UTC()
	for i := 0; i < j.Duration; i++ {
		hours = append(hours, start.Add(time.Duration(i)*time.Hour))
	}
	return hours
}

func (j *Job) EndTime() time.Time {
	return j.StartTime.Add(time.Duration(j.Duration) * time.Hour)
}

// NoOverlap reports whether a can take this job: none of its hours are
// already taken, and neither neighbouring shift runs fifteen minutes over
// into a different location.
func (j *Job) NoOverlap(a *Attendee) bool {
	hm := a.HourMap()
	for _, h := range j.Hours() {
		if _, taken := hm[h.Unix()]; taken {
			return false
		}
	}
	before := j.StartTime.Add(-time.Hour).Unix()
	if prev, ok := hm[before]; ok && prev.Extra15 && prev.Location != j.Location {
		return false
	}
	after := j.EndTime().Unix()
	if next, ok := hm[after]; ok && j.Extra15 && next.Location != j.Location {
		return false
	}
	return true
}

func (j *Job) SlotsTaken() int { return len(j.Shifts) }

func (j *Job) SlotsUntaken() int { return max(0, j.Slots-j.SlotsTaken()) }

func (j *Job) IsSetup() bool { return j.StartTime.Before(config.Event().Epoch) }

func (j *Job) IsTeardown() bool { return !j.StartTime.Before(config.Event().Eschaton) }

// RealDuration is the duration in hours, counting the extra quarter hour.
func (j *Job) RealDuration() float64 {
	d := float64(j.Duration)
	if j.Extra15 {
		d += 0.25
	}
	return d
}

func (j *Job) WeightedHours() float64 { return j.Weight * j.RealDuration() }

func (j *Job) TotalHours() float64 { return j.WeightedHours() * float64(j.Slots) }

func (j *Job) LocationLabel() string { return Label(j, "location") }

func (j *Job) TypeLabel() string { return Label(j, "type") }

// Shift is one attendee signed up for one job.
type Shift struct {
	MagModel
	JobID      string `gorm:"type:varchar(36);index" uber:"fk=job" validate:"required"`
	AttendeeID string `gorm:"type:varchar(36);index" uber:"fk=attendee" validate:"required"`
	Worked     int    `uber:"choice=worked"`
	Rating     int    `uber:"choice=rating"`
	Comment    string

	Job      *Job      `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" validate:"-"`
	Attendee *Attendee `gorm:"foreignKey:AttendeeID;constraint:OnDelete:CASCADE" validate:"-"`
}

func (Shift) TableName() string { return "shift" }

func (s *Shift) SetDefaults() {
	s.Worked = config.ShiftUnmarked
	s.Rating = config.Unrated
}

func (s *Shift) Describe() string { return "<Shift " + s.Name() + ">" }

// Name reads e.g. `Jane Doe's "Coat Check" shift`.
func (s *Shift) Name() string {
	who, what := "", ""
	if s.Attendee != nil {
		who = s.Attendee.FullName()
	}
	if s.Job != nil {
		what = s.Job.Name
	}
	return fmt.Sprintf("%s's %q shift", who, what)
}

func (s *Shift) WorkedLabel() string { return Label(s, "worked") }

func (s *Shift) RatingLabel() string { return Label(s, "rating") }

// DeptChecklistItem records a department head ticking off one checklist
// step.
type DeptChecklistItem struct {
	MagModel
	AttendeeID string `gorm:"type:varchar(36);uniqueIndex:idx_dept_checklist_item_uniq,priority:1" uber:"fk=attendee" validate:"required"`
	Slug       string `gorm:"uniqueIndex:idx_dept_checklist_item_uniq,priority:2"`
	Comments   string
}

func (DeptChecklistItem) TableName() string { return "dept_checklist_item" }

// FoodRestrictions is the dietary part of the volunteer checklist.
type FoodRestrictions struct {
	MagModel
	AttendeeID   string      `gorm:"type:varchar(36);uniqueIndex" uber:"fk=attendee" validate:"required"`
	Standard     MultiChoice `uber:"choice=food_restriction"`
	SandwichPref int         `uber:"choice=sandwich,unspecified"`
	NoCheese     bool
	Freeform     string
}

func (FoodRestrictions) TableName() string { return "food_restrictions" }

// Restricts reports whether restriction applies. Vegans are not reported
// as vegetarians, and vegetarians of either kind do not eat pork.
func (f *FoodRestrictions) Restricts(restriction int) bool {
	switch {
	case restriction == config.Vegetarian && f.Standard.Has(config.Vegan):
		return false
	case restriction == config.NoPork && (f.Standard.Has(config.Vegetarian) || f.Standard.Has(config.Vegan)):
		return true
	}
	return f.Standard.Has(restriction)
}
