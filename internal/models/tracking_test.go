package models

import (
	"strings"
	"testing"
	"time"

	"github.com/magfest/uber/internal/config"
)

func TestRepr(t *testing.T) {
	beforeEvent(t)
	cases := []struct {
		name string
		c    Column
		v    any
		want string
	}{
		{"hashed", Column{Name: "hashed"}, "$2a$10$abc", "<bcrypted>"},
		{"choice", Column{Name: "ribbon", Kind: KindChoice, Choices: "ribbon"}, config.BandRibbon, `"Band"`},
		{"nonstandard", Column{Name: "ribbon", Kind: KindChoice, Choices: "ribbon"}, 99, `"<nonstandard>"`},
		{"multichoice", Column{Name: "interests", Kind: KindMultiChoice, Choices: "interest"}, MultiChoice("3,1"), `"LAN,Consoles"`},
		{"nil", Column{Name: "group_id", Kind: KindUUID}, nil, "<none>"},
		{"string", Column{Name: "first_name"}, "Jane", `"Jane"`},
		{"zero time", Column{Name: "registered", Kind: KindDateTime}, time.Time{}, "<none>"},
		{"date", Column{Name: "birthdate", Kind: KindDate}, time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC), `"1990-04-02"`},
		{"float", Column{Name: "tables", Kind: KindFloat}, 1.5, "1.5"},
		{"int", Column{Name: "badge_num", Kind: KindInt}, 12, "12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Repr(tc.c, tc.v); got != tc.want {
				t.Errorf("Repr = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTrackUpdates(t *testing.T) {
	beforeEvent(t)
	a := persisted(newStaffer())
	a.BadgeNum = 3
	a.MarkPersisted(Values(a))

	if tr := Track(config.Updated, a, "admin"); tr != nil {
		t.Fatalf("unchanged row tracked: %+v", tr)
	}

	a.BadgeNum = 4
	tr := Track(config.Updated, a, "admin")
	if tr == nil {
		t.Fatal("expected a tracking row")
	}
	if tr.Action != config.AutoBadgeShift {
		t.Errorf("action = %s, want automatic badge-shift", tr.ActionLabel())
	}
	if tr.Data != "badge_num='3 -> 4'" {
		t.Errorf("data = %q", tr.Data)
	}
	if tr.FKID != a.ID || tr.Model != "Attendee" || tr.Which != "<Attendee Jane Doe>" || tr.Who != "admin" {
		t.Errorf("tracking = %+v", tr)
	}

	a.LastName = "Smith"
	tr = Track(config.Updated, a, "admin")
	if tr.Action != config.Updated {
		t.Errorf("action = %s, want updated", tr.ActionLabel())
	}
	if !strings.Contains(tr.Data, `last_name='"Doe" -> "Smith"'`) {
		t.Errorf("data = %q", tr.Data)
	}
}

func TestTrackCreateAndDelete(t *testing.T) {
	beforeEvent(t)
	j := New[Job]()
	j.Name = "Coat Check"
	sh := New[Shift]()
	sh.JobID = j.EnsureID()
	sh.AttendeeID = "a1"

	tr := Track(config.Created, sh, "")
	if tr.Links != "job("+j.ID+"), attendee(a1)" {
		t.Errorf("links = %q", tr.Links)
	}
	if !strings.Contains(tr.Data, "attendee_id=\"a1\"") || !strings.Contains(tr.Data, `worked="SELECT A STATUS"`) {
		t.Errorf("data = %q", tr.Data)
	}

	tr = Track(config.Deleted, sh, "")
	if tr.Data != "id="+sh.ID {
		t.Errorf("delete data = %q", tr.Data)
	}
}

func TestBudgetView(t *testing.T) {
	beforeEvent(t)
	tr := BudgetView("Jane Doe")
	if tr.Model != "Budget" || tr.Action != config.PageViewed || tr.Data != "Budget Page" || tr.FKID == "" {
		t.Errorf("budget view = %+v", tr)
	}
	if !Untracked(tr) {
		t.Error("tracking rows must not be tracked themselves")
	}
}
