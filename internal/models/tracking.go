package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magfest/uber/internal/config"
)

// Tracking is one audit row: who did what to which record.
type Tracking struct {
	MagModel
	FKID   string    `gorm:"column:fk_id;type:varchar(36);index" uber:"uuid"`
	Model  string    `gorm:"not null;default:''"`
	When   time.Time `gorm:"index"`
	Who    string    `gorm:"not null;default:''"`
	Which  string    `gorm:"not null;default:''"`
	Links  string    `gorm:"not null;default:''"`
	Action int       `uber:"choice=tracking"`
	Data   string    `gorm:"not null;default:''"`
}

func (Tracking) TableName() string { return "tracking" }

func (t *Tracking) SetDefaults() { t.When = config.Now().UTC() }

func (t *Tracking) ActionLabel() string { return Label(t, "action") }

// KV is one formatted column value.
type KV struct {
	Key   string
	Value string
}

// FormatValues renders pairs as "k=v, k=v".
func FormatValues(vals []KV) string {
	parts := make([]string, len(vals))
	for i, kv := range vals {
		parts[i] = kv.Key + "=" + kv.Value
	}
	return strings.Join(parts, ", ")
}

// Repr renders a column value for an audit row: password hashes are
// hidden and choices are shown by their labels.
func Repr(c Column, v any) string {
	if c.Name == "hashed" {
		return "<bcrypted>"
	}
	switch c.Kind {
	case KindMultiChoice:
		mc, _ := v.(MultiChoice)
		return strconv.Quote(strings.Join(labelsInOrder(mc, c.Opts()), ","))
	case KindChoice:
		n, ok := asInt(v)
		if !ok {
			break
		}
		if desc, ok := c.Opts().Label(n); ok {
			return strconv.Quote(desc)
		}
		return strconv.Quote("<nonstandard>")
	}
	switch x := v.(type) {
	case nil:
		return "<none>"
	case string:
		return strconv.Quote(x)
	case time.Time:
		if x.IsZero() {
			return "<none>"
		}
		if c.Kind == KindDate {
			return strconv.Quote(x.Format("2006-01-02"))
		}
		return strconv.Quote(x.UTC().Format(time.RFC3339))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func labelsInOrder(mc MultiChoice, opts config.Opts) []string {
	var out []string
	for _, n := range mc.Ints(opts) {
		desc, _ := opts.Label(n)
		out = append(out, desc)
	}
	return out
}

// AllValues renders every column of m.
func AllValues(m Model) []KV {
	cols := Columns(m)
	vals := make([]KV, len(cols))
	for i, c := range cols {
		vals[i] = KV{Key: c.Name, Value: Repr(c, c.Value(m))}
	}
	return vals
}

// Differences renders every changed column of m as 'old -> new'.
func Differences(m Model) []KV {
	var diff []KV
	for _, name := range ChangedColumns(m) {
		c, _ := GetField(m, name)
		diff = append(diff, KV{
			Key:   name,
			Value: fmt.Sprintf("'%s -> %s'", Repr(c, OrigValueOf(m, name)), Repr(c, c.Value(m))),
		})
	}
	return diff
}

// Links lists the rows m points at, e.g. "group(<id>), attendee(<id>)".
func Links(m Model) string {
	var links []string
	for _, c := range Columns(m) {
		if c.FK == "" {
			continue
		}
		if id, _ := c.Value(m).(string); id != "" {
			links = append(links, fmt.Sprintf("%s(%s)", c.FK, id))
		}
	}
	return strings.Join(links, ", ")
}

// Which is the short description of m stored with its audit rows.
func Which(m Model) string {
	if d, ok := m.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("<%s %s>", Name(m), m.Base().ID)
}

// Track builds the audit row for action on m. It returns nil for updates
// that changed nothing. An update that only renumbered a badge is recorded
// as an automatic badge shift.
func Track(action int, m Model, who string) *Tracking {
	var data string
	switch action {
	case config.Created, config.UnpaidPrereg, config.EditedPrereg:
		data = FormatValues(AllValues(m))
	case config.Updated:
		diff := Differences(m)
		if len(diff) == 0 {
			return nil
		}
		if len(diff) == 1 && diff[0].Key == "badge_num" {
			action = config.AutoBadgeShift
		}
		data = FormatValues(diff)
	default:
		data = "id=" + m.Base().ID
	}
	t := New[Tracking]()
	t.FKID = m.Base().ID
	t.Model = Name(m)
	t.Which = Which(m)
	t.Who = who
	t.Links = Links(m)
	t.Action = action
	t.Data = data
	return t
}

// BudgetView is the audit row for someone looking at the budget pages,
// which have no record of their own.
func BudgetView(who string) *Tracking {
	t := New[Tracking]()
	t.FKID = uuid.NewString()
	t.Model = "Budget"
	t.Which = "Budget"
	t.Who = who
	t.Action = config.PageViewed
	t.Data = "Budget Page"
	return t
}

// Untracked reports whether changes to m are left out of the audit log.
func Untracked(m Model) bool {
	switch m.(type) {
	case *Tracking, *Email:
		return true
	}
	return false
}
