package models

import (
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is implemented by every table.
type Model interface {
	TableName() string
	Base() *MagModel
}

// MagModel is embedded in every table: a UUID primary key plus the
// bookkeeping the session needs to tell new rows from loaded ones and to
// see what changed since the last load or flush.
type MagModel struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	persisted bool
	orig      map[string]any
	loaded    map[string]bool
}

func (m *MagModel) Base() *MagModel { return m }

func (m *MagModel) GetID() string { return m.ID }

// EnsureID assigns a fresh UUID when the row does not have one yet.
func (m *MagModel) EnsureID() string {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return m.ID
}

func (m *MagModel) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}

// IsNew reports whether the row has never been written.
func (m *MagModel) IsNew() bool { return !m.persisted }

// DBID is the id forms should post back: "None" for rows that do not exist
// yet, the real id otherwise.
func (m *MagModel) DBID() string {
	if m.IsNew() {
		return "None"
	}
	return m.ID
}

// MarkPersisted records that the row exists with the given column values.
func (m *MagModel) MarkPersisted(snapshot map[string]any) {
	m.persisted = true
	m.orig = snapshot
}

// MarkTransient forgets that the row was ever written.
func (m *MagModel) MarkTransient() {
	m.persisted = false
	m.orig = nil
}

// Snapshot returns the column values recorded at the last load or flush.
func (m *MagModel) Snapshot() map[string]any { return m.orig }

// MarkLoaded records that relation name holds everything the database has.
func (m *MagModel) MarkLoaded(name string) {
	if m.loaded == nil {
		m.loaded = make(map[string]bool)
	}
	m.loaded[name] = true
}

// RelationLoaded reports whether relation name can be trusted. Relations
// of rows that were never written are always complete.
func (m *MagModel) RelationLoaded(name string) bool {
	return m.IsNew() || m.loaded[name]
}

// Same reports whether a and b are the same row.
func Same(a, b Model) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	return a.TableName() == b.TableName() && a.Base().ID != "" && a.Base().ID == b.Base().ID
}

// Name is the Go type name of m, e.g. "Attendee".
func Name(m Model) string {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func isNil(m Model) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Defaulter is implemented by tables whose columns have non-zero defaults.
type Defaulter interface {
	SetDefaults()
}

// New returns a fresh instance of T with its column defaults applied.
func New[T any, P interface {
	*T
	Model
}]() P {
	p := P(new(T))
	if d, ok := any(p).(Defaulter); ok {
		d.SetDefaults()
	}
	return p
}

// UnitOfWork is what adjustments may ask of the session flushing them.
type UnitOfWork interface {
	// NextBadgeNum is the number the next badge of badgeType should get,
	// 0 for types that are not numbered yet.
	NextBadgeNum(badgeType, oldNum int) (int, error)
	// ShiftBadges moves every numbered badge of badgeType between from and
	// until (0 meaning the top of all ranges) one step down or up.
	ShiftBadges(badgeType, from int, down bool, until int) error
	// Delete schedules m for deletion in the same flush.
	Delete(m Model)
}

// PresaveAdjuster recomputes derived columns before a row is written.
type PresaveAdjuster interface {
	PresaveAdjust(uow UnitOfWork) error
}

// PredeleteAdjuster runs before a row is deleted.
type PredeleteAdjuster interface {
	PredeleteAdjust(uow UnitOfWork) error
}

// Toucher names other rows whose adjustments must rerun when this one is
// written or deleted, e.g. the group an attendee belongs to.
type Toucher interface {
	Touches() []Model
}

// Describer gives the short description recorded in audit rows.
type Describer interface {
	Describe() string
}
