package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm/schema"

	"github.com/magfest/uber/internal/config"
)

// Kind is how a column is coerced, validated and displayed.
type Kind int

const (
	KindString Kind = iota
	KindUUID
	KindInt
	KindFloat
	KindBool
	KindChoice
	KindMultiChoice
	KindDateTime
	KindDate
)

// Column describes one database column of a model.
//
// Extra behaviour comes from the `uber` struct tag, a comma-separated list:
//
//	choice=<set>  int column restricted to a config option set
//	unspecified   choice column that may hold values outside its set
//	admin_only    only admins may set it through a form
//	date          time.Time column holding a calendar date
//	uuid          string column holding an id
//	fk=<table>    uuid column referencing <table>
//
// UUID and datetime columns are admin-only without saying so.
type Column struct {
	Name             string
	Field            string
	Kind             Kind
	Choices          string
	AllowUnspecified bool
	AdminOnly        bool
	FK               string
	Nullable         bool

	typ reflect.Type
}

var (
	// Naming is shared with the gorm connection so column names agree.
	Naming = schema.NamingStrategy{SingularTable: true}

	schemaCache sync.Map
	columnCache sync.Map
)

var (
	timeType        = reflect.TypeOf(time.Time{})
	multiChoiceType = reflect.TypeOf(MultiChoice(""))
)

// Schema parses the gorm schema of m.
func Schema(m Model) (*schema.Schema, error) {
	return schema.Parse(m, &schemaCache, Naming)
}

// Columns lists the columns of m in declaration order.
func Columns(m Model) []Column {
	t := reflect.TypeOf(m)
	if cols, ok := columnCache.Load(t); ok {
		return cols.([]Column)
	}
	s, err := Schema(m)
	if err != nil {
		panic(fmt.Sprintf("models: parse %T: %v", m, err))
	}
	cols := make([]Column, 0, len(s.DBNames))
	for _, name := range s.DBNames {
		cols = append(cols, newColumn(s.FieldsByDBName[name]))
	}
	columnCache.Store(t, cols)
	return cols
}

func newColumn(f *schema.Field) Column {
	c := Column{
		Name:     f.DBName,
		Field:    f.Name,
		Nullable: f.FieldType.Kind() == reflect.Ptr,
		typ:      f.IndirectFieldType,
	}
	var isDate, isUUID bool
	for _, opt := range strings.Split(f.Tag.Get("uber"), ",") {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "choice":
			c.Choices = val
		case "unspecified":
			c.AllowUnspecified = true
		case "admin_only":
			c.AdminOnly = true
		case "date":
			isDate = true
		case "uuid":
			isUUID = true
		case "fk":
			c.FK = val
			isUUID = true
		}
	}

	switch {
	case c.typ == multiChoiceType:
		c.Kind = KindMultiChoice
	case c.Choices != "":
		c.Kind = KindChoice
	case c.typ == timeType && isDate:
		c.Kind = KindDate
	case c.typ == timeType:
		c.Kind = KindDateTime
	case c.typ.Kind() == reflect.Bool:
		c.Kind = KindBool
	case c.typ.Kind() == reflect.Float32 || c.typ.Kind() == reflect.Float64:
		c.Kind = KindFloat
	case c.typ.Kind() >= reflect.Int && c.typ.Kind() <= reflect.Int64:
		c.Kind = KindInt
	case isUUID || f.PrimaryKey:
		c.Kind = KindUUID
	default:
		c.Kind = KindString
	}
	if c.Kind == KindUUID || c.Kind == KindDateTime {
		c.AdminOnly = true
	}
	return c
}

// Opts is the option set of a choice or multi-choice column.
func (c Column) Opts() config.Opts {
	opts, _ := config.OptSet(c.Choices)
	return opts
}

// Value returns the column's current value on m; nil pointers come back
// as untyped nil and set pointers are dereferenced.
func (c Column) Value(m Model) any {
	fv := reflect.ValueOf(m).Elem().FieldByName(c.Field)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}

// Set stores v in the column, converting between compatible kinds. A nil
// v clears nullable columns and zeroes the rest.
func (c Column) Set(m Model, v any) error {
	fv := reflect.ValueOf(m).Elem().FieldByName(c.Field)
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().ConvertibleTo(c.typ) {
		return fmt.Errorf("cannot store %T in %s", v, c.Name)
	}
	rv = rv.Convert(c.typ)
	if fv.Kind() == reflect.Ptr {
		p := reflect.New(c.typ)
		p.Elem().Set(rv)
		fv.Set(p)
		return nil
	}
	fv.Set(rv)
	return nil
}

// GetField looks a column up by name.
func GetField(m Model, name string) (Column, bool) {
	for _, c := range Columns(m) {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func columnNames(m Model, keep func(Column) bool) []string {
	var names []string
	for _, c := range Columns(m) {
		if keep(c) {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Unrestricted lists the columns attendees may set through a form.
func Unrestricted(m Model) []string {
	return columnNames(m, func(c Column) bool { return !c.AdminOnly })
}

func AllBools(m Model) []string {
	return columnNames(m, func(c Column) bool { return c.Kind == KindBool })
}

func AllCheckgroups(m Model) []string {
	return columnNames(m, func(c Column) bool { return c.Kind == KindMultiChoice })
}

// RegformBools lists the boolean columns attendees may set.
func RegformBools(m Model) []string {
	return columnNames(m, func(c Column) bool { return c.Kind == KindBool && !c.AdminOnly })
}

// RegformCheckgroups lists the multi-choice columns attendees may set.
func RegformCheckgroups(m Model) []string {
	return columnNames(m, func(c Column) bool { return c.Kind == KindMultiChoice && !c.AdminOnly })
}

// Values captures every column value of m.
func Values(m Model) map[string]any {
	cols := Columns(m)
	vals := make(map[string]any, len(cols))
	for _, c := range cols {
		vals[c.Name] = c.Value(m)
	}
	return vals
}

// OrigValueOf returns the value column name had at the last load or flush,
// or its current value when the row is new or the column is unknown.
func OrigValueOf(m Model, name string) any {
	if snap := m.Base().Snapshot(); snap != nil && !m.Base().IsNew() {
		if v, ok := snap[name]; ok {
			return v
		}
	}
	if c, ok := GetField(m, name); ok {
		return c.Value(m)
	}
	return nil
}

// Changed reports whether column name differs from its original value.
func Changed(m Model, name string) bool {
	c, ok := GetField(m, name)
	if !ok {
		return false
	}
	return !ValuesEqual(OrigValueOf(m, name), c.Value(m))
}

// ChangedColumns lists the columns of a persisted row that differ from the
// last snapshot, in declaration order.
func ChangedColumns(m Model) []string {
	if m.Base().IsNew() {
		return nil
	}
	snap := m.Base().Snapshot()
	var out []string
	for _, c := range Columns(m) {
		if !ValuesEqual(snap[c.Name], c.Value(m)) {
			out = append(out, c.Name)
		}
	}
	return out
}

func ValuesEqual(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.Equal(tb)
	}
	return a == b
}

// Label is the description of a choice column's current value, "" when
// unset or unknown.
func Label(m Model, name string) string {
	c, ok := GetField(m, name)
	if !ok {
		return ""
	}
	v, ok := asInt(c.Value(m))
	if !ok {
		return ""
	}
	desc, _ := c.Opts().Label(v)
	return desc
}

// Labels are the sorted descriptions of a multi-choice column's values.
func Labels(m Model, name string) []string {
	c, ok := GetField(m, name)
	if !ok {
		return nil
	}
	mc, _ := c.Value(m).(MultiChoice)
	return mc.Labels(c.Opts())
}

// Ints are the valid values of a multi-choice column.
func Ints(m Model, name string) []int {
	c, ok := GetField(m, name)
	if !ok {
		return nil
	}
	mc, _ := c.Value(m).(MultiChoice)
	return mc.Ints(c.Opts())
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	}
	return 0, false
}
