package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/services"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	origNow := config.Now
	config.Now = func() time.Time { return time.Date(2027, time.January, 8, 10, 0, 0, 0, time.UTC) }
	cfg := config.Default()
	cfg.Event.AtTheCon = true
	config.Set(cfg)
	t.Cleanup(func() { config.Now = origNow })

	g, err := db.Open(config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "uber.db"), MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(g); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.Use(g)
	t.Cleanup(func() {
		db.Use(nil)
		if sqlDB, err := g.DB(); err == nil {
			sqlDB.Close()
		}
	})

	err = db.Do(context.Background(), func(s *db.Session) error {
		_, err := services.InsertTestAdminAccount(s)
		return err
	})
	if err != nil {
		t.Fatalf("insert admin: %v", err)
	}
	return Router()
}

type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func (c *client) login() {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/admin/login", url.Values{
		"email":    {services.TestAdminEmail},
		"password": {services.TestAdminPassword},
	})
	if rec.Code != http.StatusOK {
		c.t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	c.cookies = rec.Result().Cookies()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRouterHealthz(t *testing.T) {
	c := &client{t: t, h: setup(t)}
	if rec := c.do(http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := c.do(http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "uber_http_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	c := &client{t: t, h: setup(t)}
	if rec := c.do(http.MethodGet, "/admin/search?q=x", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous search = %d", rec.Code)
	}
	rec := c.do(http.MethodPost, "/admin/login", url.Values{"email": {services.TestAdminEmail}, "password": {"nope"}})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", rec.Code)
	}

	c.cookies = []*http.Cookie{{Name: "admin_session", Value: "forged"}}
	if rec := c.do(http.MethodGet, "/admin/search?q=x", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged cookie = %d", rec.Code)
	}

	c.login()
	if rec := c.do(http.MethodGet, "/admin/search?q=x", nil); rec.Code != http.StatusOK {
		t.Errorf("search after login = %d %s", rec.Code, rec.Body)
	}
}

func TestRegistrationFlow(t *testing.T) {
	c := &client{t: t, h: setup(t)}

	rec := c.do(http.MethodPost, "/preregister", url.Values{
		"first_name": {"Jane"},
		"last_name":  {"Doe"},
		"email":      {"jane@example.com"},
		"paid":       {strconv.Itoa(config.HasPaid)},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("preregister: %d %s", rec.Code, rec.Body)
	}
	jane := decode[attendeeJSON](t, rec)
	if jane.Paid != "no" {
		t.Errorf("preregistration set paid to %q", jane.Paid)
	}

	rec = c.do(http.MethodPost, "/preregister", url.Values{"first_name": {"Joe"}, "email": {"nope"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad preregistration = %d", rec.Code)
	}

	c.login()
	rec = c.do(http.MethodGet, "/admin/search?q=doe", nil)
	if found := decode[[]attendeeJSON](t, rec); len(found) != 1 || found[0].ID != jane.ID {
		t.Fatalf("search = %+v", found)
	}

	if rec := c.do(http.MethodPost, "/admin/attendees/"+jane.ID+"/checkin", url.Values{}); rec.Code != http.StatusBadRequest {
		t.Errorf("unpaid check in = %d %s", rec.Code, rec.Body)
	}
	rec = c.do(http.MethodPost, "/admin/attendees/"+jane.ID, url.Values{"paid": {strconv.Itoa(config.HasPaid)}})
	if rec.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rec.Code, rec.Body)
	}
	rec = c.do(http.MethodPost, "/admin/attendees/"+jane.ID+"/checkin", url.Values{})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Jane Doe checked in as") {
		t.Fatalf("check in: %d %s", rec.Code, rec.Body)
	}

	rec = c.do(http.MethodGet, "/admin/attendees/"+jane.ID, nil)
	if got := decode[attendeeJSON](t, rec); got.CheckedIn == nil || got.BadgeNum == 0 {
		t.Errorf("attendee = %+v", got)
	}

	rec = c.do(http.MethodGet, "/admin/tracking/"+jane.ID, nil)
	history := decode[[]struct {
		Who    string `json:"who"`
		Action string `json:"action"`
	}](t, rec)
	var byAdmin, byAttendee int
	for _, h := range history {
		switch h.Who {
		case "Test Developer":
			byAdmin++
		case "non-admin":
			byAttendee++
		}
	}
	if byAttendee != 1 || byAdmin < 2 {
		t.Errorf("history = %+v", history)
	}

	rec = c.do(http.MethodGet, "/qr/"+jane.ID+".png", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("qr = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := c.do(http.MethodGet, "/qr/missing.png", nil); rec.Code != http.StatusNotFound {
		t.Errorf("qr for missing attendee = %d", rec.Code)
	}

	rec = c.do(http.MethodPost, "/admin/attendees/"+jane.ID+"/delete", url.Values{})
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d %s", rec.Code, rec.Body)
	}
	if rec := c.do(http.MethodGet, "/admin/attendees/"+jane.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted attendee = %d", rec.Code)
	}
}

func TestAffiliatesAndBudget(t *testing.T) {
	c := &client{t: t, h: setup(t)}
	c.login()
	rec := c.do(http.MethodGet, "/admin/affiliates", nil)
	affs := decode[[]services.Affiliate](t, rec)
	if len(affs) != len(config.Event().DefaultAffiliates) {
		t.Errorf("affiliates = %+v", affs)
	}
	if rec := c.do(http.MethodGet, "/admin/budget", nil); rec.Code != http.StatusOK {
		t.Errorf("budget = %d %s", rec.Code, rec.Body)
	}
}

type attendeeJSON struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Paid      string     `json:"paid"`
	BadgeNum  int        `json:"badge_num"`
	CheckedIn *time.Time `json:"checked_in"`
}
