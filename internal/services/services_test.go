package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

// testDB opens a migrated SQLite database with the clock pinned before
// the event. edit, when given, adjusts the event rules first.
func testDB(t *testing.T, edit func(*config.EventConfig)) *gorm.DB {
	t.Helper()
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	origNow := config.Now
	config.Now = func() time.Time { return now }
	cfg := config.Default()
	if edit != nil {
		edit(&cfg.Event)
	}
	config.Set(cfg)
	t.Cleanup(func() { config.Now = origNow })

	g, err := db.Open(config.DatabaseConfig{
		URL:          filepath.Join(t.TempDir(), "uber.db"),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(g); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := g.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return g
}

// withSession runs fn in a session and commits it.
func withSession(t *testing.T, g *gorm.DB, fn func(s *db.Session)) {
	t.Helper()
	s, err := db.BeginOn(db.ContextWithWho(context.Background(), "tester"), g)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer s.Close()
	fn(s)
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func get(t *testing.T, s *db.Session, id string) *models.Attendee {
	t.Helper()
	a, err := db.Get[models.Attendee](s, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return a
}

func newAttendee(first string, badgeType int) *models.Attendee {
	a := models.New[models.Attendee]()
	a.FirstName = first
	a.LastName = "Tester"
	a.Email = strings.ReplaceAll(first, " ", "") + "@example.com"
	a.BadgeType = badgeType
	a.Paid = config.NeedNotPay
	return a
}

// addStaffers inserts staffers one flush at a time so they are numbered
// 1, 2, 3... in order.
func addStaffers(t *testing.T, g *gorm.DB, names ...string) []string {
	t.Helper()
	var ids []string
	for _, name := range names {
		a := newAttendee(name, config.StaffBadge)
		withSession(t, g, func(s *db.Session) { s.Add(a) })
		ids = append(ids, a.ID)
	}
	return ids
}

func badgeNums(t *testing.T, g *gorm.DB, ids []string) []int {
	t.Helper()
	nums := make([]int, len(ids))
	withSession(t, g, func(s *db.Session) {
		for i, id := range ids {
			nums[i] = get(t, s, id).BadgeNum
		}
	})
	return nums
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func wantRule(t *testing.T, err error, msg string) {
	t.Helper()
	var re *errs.RuleError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want rule %q", err, msg)
	}
	if re.Message != msg {
		t.Errorf("rule = %q, want %q", re.Message, msg)
	}
}
