package services

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

// Assign signs attendee up for job and flushes the new shift.
func Assign(s *db.Session, attendeeID, jobID string) (*models.Shift, error) {
	job, err := db.Get[models.Job](s, jobID, db.Preload("Shifts"))
	if err != nil {
		return nil, err
	}
	a, err := db.Get[models.Attendee](s, attendeeID, db.Preload("Shifts.Job"))
	if err != nil {
		return nil, err
	}

	switch {
	case job.Restricted && !a.Trusted:
		return nil, errs.Rule("You cannot assign an untrusted attendee to a restricted shift")
	case job.Slots <= len(job.Shifts):
		return nil, errs.Rule("All slots for this job have already been filled")
	case !job.NoOverlap(a):
		return nil, errs.Rule("This volunteer is already signed up for a shift during that time")
	}

	shift := models.New[models.Shift]()
	shift.JobID = job.ID
	shift.AttendeeID = a.ID
	shift.Job = job
	shift.Attendee = a
	job.Shifts = append(job.Shifts, shift)
	a.Shifts = append(a.Shifts, shift)
	s.Add(shift)
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return shift, nil
}

// Possible lists the jobs a can still sign up for, by start time: jobs in
// a's assigned departments (any department at the event) with an open
// slot, no clash with a's other shifts, and the trust and hotel approval
// they need.
func Possible(s *db.Session, a *models.Attendee) ([]*models.Job, error) {
	ev := config.Event()
	if a.AssignedDepts == "" && !ev.AtTheCon {
		return nil, nil
	}
	if err := s.Load(a, "Shifts.Job", "HotelRequests"); err != nil {
		return nil, err
	}
	opts := []db.Option{db.Preload("Shifts"), db.Order("start_time")}
	if !ev.AtTheCon {
		opts = append(opts, db.Where("location IN ?", a.AssignedDeptInts()))
	}
	jobs, err := db.All[models.Job](s, opts...)
	if err != nil {
		return nil, err
	}

	var out []*models.Job
	for _, job := range jobs {
		if job.Slots > len(job.Shifts) &&
			job.NoOverlap(a) &&
			(job.Type != config.Setup || a.ApprovedForSetup()) &&
			(job.Type != config.Teardown || a.ApprovedForTeardown()) &&
			(!job.Restricted || a.Trusted) {
			out = append(out, job)
		}
	}
	return out, nil
}

// PossibleOpt is one entry of the job dropdown on a volunteer's page.
type PossibleOpt struct {
	ID    string
	Label string
}

// PossibleOpts are the possible jobs that have not started yet, labelled
// like "(2pm Fri) [Arcade] Coin Sorting".
func PossibleOpts(s *db.Session, a *models.Attendee) ([]PossibleOpt, error) {
	jobs, err := Possible(s, a)
	if err != nil {
		return nil, err
	}
	now := config.Now()
	var opts []PossibleOpt
	for _, job := range jobs {
		if now.Before(job.StartTime) {
			opts = append(opts, PossibleOpt{
				ID:    job.ID,
				Label: fmt.Sprintf("(%s) [%s] %s", models.HourDayFormat(job.StartTime), job.LocationLabel(), job.Name),
			})
		}
	}
	return opts, nil
}

// PossibleAndCurrent is a's own jobs, marked Taken, together with the jobs
// a could still take, by start time.
func PossibleAndCurrent(s *db.Session, a *models.Attendee) ([]*models.Job, error) {
	possible, err := Possible(s, a)
	if err != nil {
		return nil, err
	}
	if err := s.Load(a, "Shifts.Job"); err != nil {
		return nil, err
	}
	var jobs []*models.Job
	for _, shift := range a.Shifts {
		if shift.Job != nil {
			shift.Job.Taken = true
			jobs = append(jobs, shift.Job)
		}
	}
	jobs = append(jobs, possible...)
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].StartTime.Before(jobs[j].StartTime) })
	return jobs, nil
}

// JobsForSignups is PossibleAndCurrent without the unrestricted jobs that
// cover exactly the same hours as a restricted one.
func JobsForSignups(s *db.Session, a *models.Attendee) ([]*models.Job, error) {
	jobs, err := PossibleAndCurrent(s, a)
	if err != nil {
		return nil, err
	}
	restricted := make(map[string]bool)
	for _, job := range jobs {
		if job.Restricted {
			restricted[hoursKey(job.Hours())] = true
		}
	}
	out := make([]*models.Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Restricted || !restricted[hoursKey(job.Hours())] {
			out = append(out, job)
		}
	}
	return out, nil
}

func hoursKey(hours []time.Time) string {
	keys := make([]string, len(hours))
	for i, h := range hours {
		keys[i] = fmt.Sprint(h.Unix())
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}

// Roster is the full staffing picture of one department, or of the whole
// event when Location is 0.
type Roster struct {
	Location  int
	Jobs      []*models.Job
	Shifts    []*models.Shift
	Attendees []*models.Attendee
}

// Everything loads the jobs, shifts and volunteers of location (every
// location when 0). Before the event only volunteers assigned to the
// location are included.
func Everything(s *db.Session, location int) (*Roster, error) {
	ev := config.Event()
	jobOpts := []db.Option{db.Preload("Shifts"), db.Order("start_time", "duration", "name")}
	shiftOpts := []db.Option{db.Preload("Job"), db.Preload("Attendee")}
	if location != 0 {
		jobOpts = append(jobOpts, db.Where("location = ?", location))
		shiftOpts = append(shiftOpts, db.Where("job_id IN (SELECT id FROM job WHERE location = ?)", location))
	}

	jobs, err := db.All[models.Job](s, jobOpts...)
	if err != nil {
		return nil, err
	}
	shifts, err := db.All[models.Shift](s, shiftOpts...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].Job.StartTime.Before(shifts[j].Job.StartTime)
	})

	staffers, err := db.All[models.Attendee](s,
		db.Where("staffing = ?", true),
		db.Preload("Shifts.Job"), db.Preload("Group"),
		db.Order("first_name", "last_name"))
	if err != nil {
		return nil, err
	}
	var attendees []*models.Attendee
	for _, a := range staffers {
		if ev.AtTheCon || location == 0 || a.AssignedTo(location) {
			attendees = append(attendees, a)
		}
	}
	return &Roster{Location: location, Jobs: jobs, Shifts: shifts, Attendees: attendees}, nil
}

// AvailableStaffers are the roster's volunteers who may work job:
// everyone for ordinary jobs, trusted volunteers for restricted ones.
func (r *Roster) AvailableStaffers(job *models.Job) []*models.Attendee {
	return AvailableStaffers(job, r.Attendees)
}

func AvailableStaffers(job *models.Job, attendees []*models.Attendee) []*models.Attendee {
	var out []*models.Attendee
	for _, a := range attendees {
		if !job.Restricted || a.Trusted {
			out = append(out, a)
		}
	}
	return out
}
