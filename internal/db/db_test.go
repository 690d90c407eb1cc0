package db_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
)

// testDB opens a migrated SQLite database in a temp dir with the clock
// pinned before the event.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testDBConns(t, 1)
}

func testDBConns(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	origNow := config.Now
	config.Now = func() time.Time { return now }
	config.Set(config.Default())
	t.Cleanup(func() { config.Now = origNow })

	g, err := db.Open(config.DatabaseConfig{
		URL:          filepath.Join(t.TempDir(), "uber.db"),
		MaxOpenConns: conns,
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

// TestWALMode verifies that bare SQLite paths get WAL journal mode and
// foreign key enforcement.
func TestWALMode(t *testing.T) {
	g := testDB(t)

	var mode string
	g.Raw("PRAGMA journal_mode").Scan(&mode)
	if mode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", mode)
	}
	var fk int
	g.Raw("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := db.SQLiteDSN("uber.db"); got != "uber.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on" {
		t.Errorf("bare path: %q", got)
	}
	if got := db.SQLiteDSN("file::memory:?cache=shared"); got != "file::memory:?cache=shared" {
		t.Errorf("path with params was rewritten: %q", got)
	}
	if !db.IsPostgres("postgres://u@localhost/uber") || !db.IsPostgres("postgresql://u@localhost/uber") {
		t.Error("postgres URL not recognized")
	}
	if db.IsPostgres("uber.db") {
		t.Error("sqlite path taken for postgres")
	}
}

// TestMigrate_CreatesIndexes verifies the composite indexes that GORM
// does not create from struct tags alone.
func TestMigrate_CreatesIndexes(t *testing.T) {
	g := testDB(t)
	sqlDB, err := g.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	cases := map[string][]string{
		"tracking": {"idx_tracking_fk_when"},
		"shift":    {"idx_shift_job_attendee"},
		"attendee": {"idx_attendee_badge"},
	}
	for table, want := range cases {
		found := indexNames(t, sqlDB, table)
		for _, name := range want {
			if !found[name] {
				t.Errorf("index %q missing from %s table; found: %v", name, table, found)
			}
		}
	}
}

func TestInit(t *testing.T) {
	config.Set(config.Default())
	t.Cleanup(func() { db.Use(nil) })

	cfg := config.DatabaseConfig{
		URL:            filepath.Join(t.TempDir(), "init.db"),
		MaxOpenConns:   1,
		ConnectRetries: 1,
	}
	if err := db.Init(context.Background(), cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	s, err := db.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s.Close()
}

func TestInit_GivesUp(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:            filepath.Join(t.TempDir(), "missing", "dir", "uber.db"),
		MaxOpenConns:   1,
		ConnectRetries: 2,
	}
	if err := db.Init(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unreachable database")
	}
}

func indexNames(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	if err != nil {
		t.Fatalf("PRAGMA index_list: %v", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[name] = true
	}
	return out
}
