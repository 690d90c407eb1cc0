package services

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

var uuidRE = regexp.MustCompile(`^[a-z0-9]{8}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{12}$`)

// searchColumns are matched when the search text has no recognised shape.
var searchColumns = []string{
	"first_name", "last_name", "badge_printed_name", "email", "comments", "admin_notes", "for_review",
}

// groupNameLike matches attendees whose group name contains term.
func groupNameLike(term string) db.Option {
	return db.Where(`group_id IN (SELECT id FROM "group" WHERE LOWER(name) LIKE ?)`,
		"%"+strings.ToLower(term)+"%")
}

// Search finds attendees from the admin search box. The text may be
// "email:<term>", "group:<term>", "phone:<number>", "First Last",
// "Last, First", "Last,", a badge number, an attendee or group id, or any
// fragment of a name, email, note or group name. Extra options narrow the result.
func Search(s *db.Session, text string, extra ...db.Option) ([]*models.Attendee, error) {
	text = strings.TrimSpace(text)
	opts := append([]db.Option{db.Preload("Group"), db.Order("first_name", "last_name")}, extra...)

	if target, term, ok := strings.Cut(text, ":"); ok {
		switch target {
		case "email":
			return db.All[models.Attendee](s, append(opts, db.IContains("email", strings.TrimSpace(term)))...)
		case "group":
			return db.All[models.Attendee](s, append(opts, groupNameLike(strings.TrimSpace(term)))...)
		case "phone":
			return db.All[models.Attendee](s, append(opts, phoneMatches(term))...)
		}
	}

	terms := strings.Fields(text)
	switch {
	case len(terms) == 2:
		first, last := terms[0], terms[1]
		if strings.HasSuffix(first, ",") {
			first, last = last, strings.TrimSuffix(first, ",")
		}
		opts = append(opts, db.IContains("first_name", first), db.IContains("last_name", last))
	case len(terms) == 1 && strings.HasSuffix(terms[0], ","):
		opts = append(opts, db.IContains("last_name", strings.TrimRight(terms[0], ",")))
	case len(terms) == 1 && isDigits(terms[0]):
		n, _ := strconv.Atoi(terms[0])
		opts = append(opts, db.Where("badge_num = ?", n))
	case len(terms) == 1 && uuidRE.MatchString(terms[0]):
		opts = append(opts, db.Where("id = ? OR group_id = ?", terms[0], terms[0]))
	default:
		term := "%" + strings.ToLower(text) + "%"
		opts = append(opts, db.Scope(func(q *gorm.DB) *gorm.DB {
			cond := q.Session(&gorm.Session{NewDB: true}).
				Where(`group_id IN (SELECT id FROM "group" WHERE LOWER(name) LIKE ?)`, term)
			for _, col := range searchColumns {
				cond = cond.Or("LOWER("+col+") LIKE ?", term)
			}
			return q.Where(cond)
		}))
	}
	return db.All[models.Attendee](s, opts...)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LookupAttendee finds the attendee whose name, email and zip code match,
// ignoring case. Every split of fullName into first and last name is
// tried in turn.
func LookupAttendee(s *db.Session, fullName, email, zipCode string) (*models.Attendee, error) {
	words := strings.Fields(fullName)
	for i := 1; i < len(words); i++ {
		first, last := strings.Join(words[:i], " "), strings.Join(words[i:], " ")
		a, err := db.First[models.Attendee](s,
			db.IExact("first_name", first), db.IExact("last_name", last),
			db.IExact("email", email), db.IExact("zip_code", zipCode))
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, errs.NotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("attendee not found: %w", errs.NotFound)
}

// Everyone loads every attendee with its group and every group with its
// members.
func Everyone(s *db.Session) ([]*models.Attendee, []*models.Group, error) {
	attendees, err := db.All[models.Attendee](s, db.Preload("Group"))
	if err != nil {
		return nil, nil, err
	}
	groups, err := db.All[models.Group](s, db.Preload("Attendees"))
	if err != nil {
		return nil, nil, err
	}
	return attendees, groups, nil
}

// Staffers lists volunteers by name.
func Staffers(s *db.Session) ([]*models.Attendee, error) {
	return db.All[models.Attendee](s,
		db.Where("staffing = ?", true), db.Preload("Group"), db.Order("first_name", "last_name"))
}

// SingleDeptHeads lists department heads of exactly dept, or every
// department head when dept is 0.
func SingleDeptHeads(s *db.Session, dept int) ([]*models.Attendee, error) {
	opts := []db.Option{db.Where("ribbon = ?", config.DeptHeadRibbon), db.Order("first_name", "last_name")}
	if dept != 0 {
		opts = append(opts, db.Where("assigned_depts = ?", strconv.Itoa(dept)))
	}
	return db.All[models.Attendee](s, opts...)
}

// GetAccountByEmail finds the admin account of the attendee with email,
// ignoring case.
func GetAccountByEmail(s *db.Session, email string) (*models.AdminAccount, error) {
	return db.One[models.AdminAccount](s,
		db.Where("attendee_id IN (SELECT id FROM attendee WHERE LOWER(email) = ?)", strings.ToLower(strings.TrimSpace(email))),
		db.Preload("Attendee"))
}

// AdminAttendee is the attendee behind the admin account accountID.
func AdminAttendee(s *db.Session, accountID string) (*models.Attendee, error) {
	acct, err := db.Get[models.AdminAccount](s, accountID, db.Preload("Attendee"))
	if err != nil {
		return nil, err
	}
	if acct.Attendee == nil {
		return nil, fmt.Errorf("admin account %s has no attendee: %w", accountID, errs.NotFound)
	}
	return acct.Attendee, nil
}

// NoEmail reports whether no email with subject has been sent.
func NoEmail(s *db.Session, subject string) (bool, error) {
	n, err := db.Count[models.Email](s, db.Where("subject = ?", subject))
	return n == 0, err
}

// SeasonPassHolder is someone with a season pass: a supporter carried over
// from a previous year, or an attendee who kicked in at the season level.
type SeasonPassHolder struct {
	ID        string
	FirstName string
	LastName  string
	Email     string

	Attendee *models.Attendee
	Previous *models.PrevSeasonSupporter
}

func holderOfPrev(p *models.PrevSeasonSupporter) SeasonPassHolder {
	return SeasonPassHolder{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Previous: p}
}

func holderOfAttendee(a *models.Attendee) SeasonPassHolder {
	return SeasonPassHolder{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email, Attendee: a}
}

// SeasonPass looks id up among previous season supporters, then among
// attendees at the season level.
func SeasonPass(s *db.Session, id string) (SeasonPassHolder, error) {
	prev, err := db.Get[models.PrevSeasonSupporter](s, id)
	if err == nil {
		return holderOfPrev(prev), nil
	}
	if !errors.Is(err, errs.NotFound) {
		return SeasonPassHolder{}, err
	}
	a, err := db.Get[models.Attendee](s, id)
	if err != nil {
		return SeasonPassHolder{}, err
	}
	if a.AmountExtra < config.Event().SeasonLevel {
		return SeasonPassHolder{}, fmt.Errorf("attendee %s has no season pass: %w", id, errs.NotFound)
	}
	return holderOfAttendee(a), nil
}

// SeasonPasses lists previous season supporters who have not bought a
// pass this year, then this year's season-level attendees, one per email.
func SeasonPasses(s *db.Session) ([]SeasonPassHolder, error) {
	attendees, err := db.All[models.Attendee](s,
		db.Where("amount_extra >= ?", config.Event().SeasonLevel), db.Order("registered"))
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]*models.Attendee)
	var emails []string
	for _, a := range attendees {
		if _, ok := byEmail[a.Email]; !ok {
			emails = append(emails, a.Email)
		}
		byEmail[a.Email] = a
	}

	prev, err := db.All[models.PrevSeasonSupporter](s, db.Order("last_name", "first_name"))
	if err != nil {
		return nil, err
	}
	var out []SeasonPassHolder
	for _, p := range prev {
		if _, ok := byEmail[p.Email]; !ok {
			out = append(out, holderOfPrev(p))
		}
	}
	for _, email := range emails {
		out = append(out, holderOfAttendee(byEmail[email]))
	}
	return out, nil
}

// Affiliate is one entry of the affiliate dropdown with the kick-ins
// pledged under it.
type Affiliate struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Total int    `json:"total"`
}

// Affiliates totals kick-ins by affiliate, largest first. The configured
// default affiliates are always listed, in their configured order among
// equal totals.
func Affiliates(s *db.Session) ([]Affiliate, error) {
	var rows []struct {
		Affiliate   string
		AmountExtra int
	}
	err := s.DB().Model(&models.Attendee{}).
		Select("affiliate", "amount_extra").
		Where("amount_extra > 0 AND affiliate <> ''").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("affiliates: %w", err)
	}

	totals := make(map[string]int)
	var names []string
	add := func(name string, amount int) {
		if _, ok := totals[name]; !ok {
			names = append(names, name)
		}
		totals[name] += amount
	}
	for i, name := range config.Event().DefaultAffiliates {
		add(name, -i)
	}
	for _, r := range rows {
		add(r.Affiliate, r.AmountExtra)
	}

	sort.SliceStable(names, func(i, j int) bool { return totals[names[i]] > totals[names[j]] })
	out := make([]Affiliate, len(names))
	for i, name := range names {
		out[i] = Affiliate{ID: name, Text: name, Total: max(0, totals[name])}
	}
	return out, nil
}

// Created is the audit row of m's creation, nil when there is none.
func Created(s *db.Session, m models.Model) (*models.Tracking, error) {
	return lastTracking(s, m, config.Created)
}

// LastUpdated is m's most recent update audit row, nil when there is none.
func LastUpdated(s *db.Session, m models.Model) (*models.Tracking, error) {
	return lastTracking(s, m, config.Updated)
}

func lastTracking(s *db.Session, m models.Model, action int) (*models.Tracking, error) {
	t, err := db.LastTracking(s, m.Base().ID, action)
	if errors.Is(err, errs.NotFound) {
		return nil, nil
	}
	return t, err
}

// EmailRecipient is the name of whoever e was sent to: the leader of a
// group, or the attendee.
func EmailRecipient(s *db.Session, e *models.Email) (string, error) {
	if e.FKID == nil {
		return "", fmt.Errorf("email %s has no recipient: %w", e.ID, errs.NotFound)
	}
	if e.Model == "Group" {
		g, err := db.Get[models.Group](s, *e.FKID, db.Preload("Attendees"))
		if err != nil {
			return "", err
		}
		leader := g.Leader()
		if leader == nil {
			return "", fmt.Errorf("group %s has no leader: %w", g.ID, errs.NotFound)
		}
		return leader.FullName(), nil
	}
	a, err := db.Get[models.Attendee](s, *e.FKID)
	if err != nil {
		return "", err
	}
	return a.FullName(), nil
}

// TrackPageview records an admin looking at a page. Budget pages are
// always recorded; attendee and group pages only when the query names a
// row that exists.
func TrackPageview(s *db.Session, pageURL, query string) error {
	if strings.Contains(pageURL, "budget") {
		s.Record(models.BudgetView(s.Who()))
		return nil
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil
	}
	id := params.Get("id")
	if id == "" || id == "None" {
		return nil
	}

	var m models.Model
	switch {
	case strings.Contains(pageURL, "registration"):
		m, err = db.Get[models.Attendee](s, id)
	case strings.Contains(pageURL, "groups"):
		m, err = db.Get[models.Group](s, id)
	default:
		return nil
	}
	if errors.Is(err, errs.NotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.Record(models.Track(config.PageViewed, m, s.Who()))
	return nil
}
