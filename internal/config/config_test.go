package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("UBER_TEST_NOTHING_SET_")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Server.Addr != def.Server.Addr {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, def.Server.Addr)
	}
	if cfg.Database.ConnectRetries != 10 || cfg.Database.RetryDelay != 5*time.Second {
		t.Errorf("retries = %d/%s, want 10/5s", cfg.Database.ConnectRetries, cfg.Database.RetryDelay)
	}
	if len(cfg.Event.BadgeRanges) != len(def.Event.BadgeRanges) {
		t.Errorf("badge ranges lost during unmarshal: %v", cfg.Event.BadgeRanges)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UBERT_SERVER__ADDR", ":9999")
	t.Setenv("UBERT_DATABASE__CONNECT_RETRIES", "3")
	t.Setenv("UBERT_DATABASE__RETRY_DELAY", "250ms")
	t.Setenv("UBERT_EVENT__AT_THE_CON", "true")

	cfg, err := load("UBERT_")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Database.ConnectRetries != 3 {
		t.Errorf("connect retries = %d", cfg.Database.ConnectRetries)
	}
	if cfg.Database.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry delay = %s", cfg.Database.RetryDelay)
	}
	if !cfg.Event.AtTheCon {
		t.Error("at_the_con not applied")
	}
	// untouched siblings keep their defaults
	if cfg.Database.URL != "uber.db" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("UBERBAD_LOG__LEVEL", "loud")
	if _, err := load("UBERBAD_"); err == nil {
		t.Fatal("expected validation error for log level")
	}
}

func TestGetSet(t *testing.T) {
	orig := Get()
	t.Cleanup(func() { Set(orig) })

	cfg := Default()
	cfg.Event.Name = "Test Fest"
	Set(cfg)
	if Event().Name != "Test Fest" {
		t.Errorf("Event().Name = %q", Event().Name)
	}
}

func TestAttendeePrice(t *testing.T) {
	e := defaultEvent()
	bump1 := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	bump2 := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	e.PriceBumps = []PriceBump{{Starts: bump2, Price: 65}, {Starts: bump1, Price: 55}}

	tests := []struct {
		at   time.Time
		want int
	}{
		{bump1.Add(-time.Hour), 50},
		{bump1, 55},
		{bump2.Add(time.Hour), 65},
	}
	for _, tt := range tests {
		if got := e.AttendeePrice(tt.at); got != tt.want {
			t.Errorf("AttendeePrice(%s) = %d, want %d", tt.at, got, tt.want)
		}
	}
	if got := e.GroupPrice(bump1); got != 45 {
		t.Errorf("GroupPrice = %d, want 45", got)
	}
}

func TestTablePrice(t *testing.T) {
	e := defaultEvent()
	want := map[int]int{0: 0, 1: 125, 2: 175, 4: 300, 7: 300}
	for n, price := range want {
		if got := e.TablePrice(n); got != price {
			t.Errorf("TablePrice(%d) = %d, want %d", n, got, price)
		}
	}
}

func TestDonationTierOpts(t *testing.T) {
	opts := defaultEvent().DonationTierOpts()
	if got := opts.Vals(); len(got) != 4 || got[0] != 0 || got[3] != 160 {
		t.Fatalf("tier order = %v", got)
	}
	if desc, _ := opts.Label(60); desc != "$60: Supporter Package" {
		t.Errorf("label = %q", desc)
	}
}

func TestOptSet(t *testing.T) {
	for _, name := range OptSetNames() {
		opts, ok := OptSet(name)
		if !ok || len(opts) == 0 {
			t.Errorf("option set %q is empty", name)
		}
	}
	if _, ok := OptSet("nope"); ok {
		t.Error("unknown set resolved")
	}
}

func TestPreCon(t *testing.T) {
	orig := Now
	t.Cleanup(func() { Now = orig })

	e := defaultEvent()
	Now = func() time.Time { return e.Epoch.Add(-time.Hour) }
	if !e.PreCon() {
		t.Error("an hour before the epoch should be pre-con")
	}
	e.AtTheCon = true
	if e.PreCon() {
		t.Error("at-the-con mode is never pre-con")
	}
	e.AtTheCon = false
	Now = func() time.Time { return e.Epoch }
	if e.PreCon() {
		t.Error("the epoch itself is not pre-con")
	}
}
