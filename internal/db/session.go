package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/metrics"
	"github.com/magfest/uber/internal/models"
)

// ErrClosed is returned by a Session used after Commit or Rollback.
var ErrClosed = errors.New("db: session closed")

// badgeLock serializes every flush, and anything else that renumbers
// badges, across the process.
var badgeLock sync.Mutex

type key struct {
	table string
	id    string
}

func keyOf(m models.Model) key {
	return key{table: m.TableName(), id: m.Base().EnsureID()}
}

type whoKey struct{}

// ContextWithWho names the person responsible for changes flushed by
// sessions begun with ctx.
func ContextWithWho(ctx context.Context, who string) context.Context {
	return context.WithValue(ctx, whoKey{}, who)
}

// WhoFrom returns the name set by ContextWithWho, or "non-admin".
func WhoFrom(ctx context.Context) string {
	if who, ok := ctx.Value(whoKey{}).(string); ok && who != "" {
		return who
	}
	return "non-admin"
}

// Session is a unit of work on one database transaction.
//
// Rows loaded through a Session are kept in an identity map, so loading
// the same row twice yields the same pointer, and changes made to them in
// memory are written by Flush or Commit. Rows pending deletion are hidden
// from every loader. Nothing is written before Flush is called.
type Session struct {
	ctx context.Context
	tx  *gorm.DB
	who string

	identity    map[key]models.Model
	order       []models.Model
	deleted     map[key]bool
	deleteOrder []models.Model

	locked   bool
	holdLock bool
	closed   bool
}

// Begin starts a session on the connection set up by Init.
func Begin(ctx context.Context) (*Session, error) {
	return BeginOn(ctx, Conn())
}

// BeginOn starts a session on g. The transaction is opened straight
// away so that a session always holds its connection before it waits for
// the badge lock.
func BeginOn(ctx context.Context, g *gorm.DB) (*Session, error) {
	if g == nil {
		return nil, errors.New("db: not initialized")
	}
	tx := g.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin: %w", tx.Error)
	}
	return &Session{
		ctx:      ctx,
		tx:       tx,
		who:      WhoFrom(ctx),
		identity: make(map[key]models.Model),
		deleted:  make(map[key]bool),
	}, nil
}

// Do runs fn in a session and commits it when fn returns nil.
func Do(ctx context.Context, fn func(s *Session) error) error {
	s, err := Begin(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := fn(s); err != nil {
		return err
	}
	return s.Commit()
}

// DB is the session's transaction, for queries the loaders cannot express.
// Rows read through it bypass the identity map.
func (s *Session) DB() *gorm.DB { return s.tx }

func (s *Session) Context() context.Context { return s.ctx }

// Who is the name recorded on audit rows written by this session.
func (s *Session) Who() string { return s.who }

// Add tracks m and, through its relations, every row it reaches. New rows
// get ids, and foreign keys left empty are pointed at the related row.
func (s *Session) Add(m models.Model) {
	if isNil(m) {
		return
	}
	s.cascade(m, make(map[key]bool))
}

// Delete schedules m for deletion at the next flush. A row that was never
// written is simply forgotten.
func (s *Session) Delete(m models.Model) {
	if isNil(m) {
		return
	}
	k := keyOf(m)
	if m.Base().IsNew() {
		s.expunge(k)
		return
	}
	if s.deleted[k] {
		return
	}
	if _, ok := s.identity[k]; !ok {
		s.track(m)
	}
	s.deleted[k] = true
	s.deleteOrder = append(s.deleteOrder, s.identity[k])
}

// Tracked reports whether m is in the identity map.
func (s *Session) Tracked(m models.Model) bool {
	if isNil(m) {
		return false
	}
	_, ok := s.identity[keyOf(m)]
	return ok
}

// WithWho changes the name recorded on audit rows from now on.
func (s *Session) WithWho(who string) *Session {
	s.who = who
	return s
}

// New lists the tracked rows that have never been written.
func (s *Session) New() []models.Model {
	var out []models.Model
	for _, m := range s.order {
		if m.Base().IsNew() && !s.deleted[keyOf(m)] {
			out = append(out, m)
		}
	}
	return out
}

// Dirty lists the written rows with unflushed column changes.
func (s *Session) Dirty() []models.Model {
	var out []models.Model
	for _, m := range s.order {
		if !m.Base().IsNew() && !s.deleted[keyOf(m)] && len(models.ChangedColumns(m)) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Deleted lists the rows scheduled for deletion.
func (s *Session) Deleted() []models.Model {
	return append([]models.Model(nil), s.deleteOrder...)
}

func (s *Session) isDeleted(m models.Model) bool {
	return s.deleted[keyOf(m)]
}

func (s *Session) track(m models.Model) bool {
	k := keyOf(m)
	if _, ok := s.identity[k]; ok {
		return false
	}
	s.identity[k] = m
	s.order = append(s.order, m)
	return true
}

func (s *Session) expunge(k key) {
	delete(s.identity, k)
	delete(s.deleted, k)
	for i, m := range s.order {
		if keyOf(m) == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) cascade(m models.Model, seen map[key]bool) {
	k := keyOf(m)
	if seen[k] {
		return
	}
	seen[k] = true
	s.track(m)
	eachRelation(m, func(rel *schema.Relationship, other models.Model) {
		other.Base().EnsureID()
		for _, ref := range rel.References {
			if ref.PrimaryKey == nil {
				continue
			}
			if ref.OwnPrimaryKey {
				setIfEmpty(other, ref.ForeignKey.Name, m.Base().ID)
			} else {
				setIfEmpty(m, ref.ForeignKey.Name, other.Base().ID)
			}
		}
		s.cascade(other, seen)
	})
}

func (s *Session) cascadeAll() {
	seen := make(map[key]bool)
	for i := 0; i < len(s.order); i++ {
		m := s.order[i]
		if !s.deleted[keyOf(m)] {
			s.cascade(m, seen)
		}
	}
}

// pathTree is a set of relation paths such as "Shifts.Job", split on dots.
type pathTree map[string]pathTree

func parsePaths(paths []string) pathTree {
	tree := make(pathTree)
	for _, p := range paths {
		node := tree
		for _, name := range strings.Split(p, ".") {
			next, ok := node[name]
			if !ok {
				next = make(pathTree)
				node[name] = next
			}
			node = next
		}
	}
	return tree
}

// adopt returns the tracked row with m's key. A row seen for the first
// time becomes tracked as loaded; otherwise m's relations are merged into
// the tracked row and m's own column values are dropped.
func (s *Session) adopt(m models.Model, tree pathTree) models.Model {
	k := keyOf(m)
	if existing, ok := s.identity[k]; ok {
		if existing != m {
			s.merge(existing, m, tree)
		}
		return existing
	}
	m.Base().MarkPersisted(models.Values(m))
	s.identity[k] = m
	s.order = append(s.order, m)
	for name, sub := range tree {
		s.adoptRelation(m, name, sub)
		m.Base().MarkLoaded(name)
	}
	return m
}

func (s *Session) merge(target, src models.Model, tree pathTree) {
	for name, sub := range tree {
		s.adoptRelation(src, name, sub)
		if target.Base().RelationLoaded(name) {
			continue
		}
		relationField(target, name).Set(relationField(src, name))
		target.Base().MarkLoaded(name)
	}
}

// adoptRelation swaps every row held by relation name of m for its
// tracked copy and drops rows pending deletion.
func (s *Session) adoptRelation(m models.Model, name string, sub pathTree) {
	fv := relationField(m, name)
	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return
		}
		fv.Set(reflect.ValueOf(s.adopt(fv.Interface().(models.Model), sub)))
	case reflect.Slice:
		out := reflect.MakeSlice(fv.Type(), 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			child := fv.Index(i).Interface().(models.Model)
			if s.deleted[keyOf(child)] {
				continue
			}
			out = reflect.Append(out, reflect.ValueOf(s.adopt(child, sub)))
		}
		fv.Set(out)
	}
}

func (s *Session) treeLoaded(m models.Model, tree pathTree) bool {
	for name, sub := range tree {
		if !m.Base().RelationLoaded(name) {
			return false
		}
		if len(sub) == 0 {
			continue
		}
		loaded := true
		eachIn(relationField(m, name), func(child models.Model) {
			loaded = loaded && s.treeLoaded(child, sub)
		})
		if !loaded {
			return false
		}
	}
	return true
}

// Load fills the named relation paths of m from the database unless they
// are loaded already. Relations already in memory keep their contents.
func (s *Session) Load(m models.Model, paths ...string) error {
	if m.Base().IsNew() || len(paths) == 0 {
		return nil
	}
	tree := parsePaths(paths)
	if s.treeLoaded(m, tree) {
		return nil
	}
	fresh := reflect.New(reflect.TypeOf(m).Elem()).Interface().(models.Model)
	q := s.tx
	for _, p := range paths {
		q = q.Preload(p)
	}
	err := q.Where(idEq(m.Base().ID)).Take(fresh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", m.TableName(), m.Base().ID, errs.NotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", m.TableName(), err)
	}
	s.merge(m, fresh, tree)
	return nil
}

func idEq(id string) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id}
}

// Commit flushes pending changes and commits the transaction. The badge
// lock stays held until the commit lands, so the next session numbering
// badges sees these rows.
func (s *Session) Commit() error {
	if s.closed {
		return ErrClosed
	}
	if s.pending() {
		s.lock()
		s.holdLock = true
		if err := s.Flush(); err != nil {
			s.Rollback()
			return err
		}
	}
	err := s.tx.Commit().Error
	s.finish()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback abandons every change made through the session.
func (s *Session) Rollback() {
	if s.closed {
		return
	}
	if err := s.tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		slog.Error("rollback failed", "error", err)
	}
	s.finish()
}

// Close rolls back a session that was neither committed nor rolled back.
func (s *Session) Close() {
	s.Rollback()
}

func (s *Session) finish() {
	s.closed = true
	s.holdLock = false
	s.unlock()
}

func (s *Session) pending() bool {
	if len(s.deleteOrder) > 0 {
		return true
	}
	for _, m := range s.order {
		if m.Base().IsNew() || len(models.ChangedColumns(m)) > 0 {
			return true
		}
	}
	return false
}

// LockBadges takes the badge lock and keeps it until the session ends.
// Anything that reads badge numbers to decide new ones must hold it.
func (s *Session) LockBadges() {
	s.lock()
	s.holdLock = true
}

func (s *Session) lock() {
	if s.locked {
		return
	}
	start := time.Now()
	badgeLock.Lock()
	metrics.BadgeLockWait.Observe(time.Since(start).Seconds())
	s.locked = true
}

func (s *Session) unlock() {
	if s.locked && !s.holdLock {
		s.locked = false
		badgeLock.Unlock()
	}
}

// eachRelation calls fn with every row held by a relation of m.
func eachRelation(m models.Model, fn func(rel *schema.Relationship, other models.Model)) {
	sch, err := models.Schema(m)
	if err != nil {
		return
	}
	for _, rel := range sch.Relationships.Relations {
		eachIn(relationField(m, rel.Name), func(other models.Model) { fn(rel, other) })
	}
}

func eachIn(fv reflect.Value, fn func(models.Model)) {
	switch fv.Kind() {
	case reflect.Ptr:
		if !fv.IsNil() {
			if m, ok := fv.Interface().(models.Model); ok {
				fn(m)
			}
		}
	case reflect.Slice:
		for i := 0; i < fv.Len(); i++ {
			if m, ok := fv.Index(i).Interface().(models.Model); ok && !isNil(m) {
				fn(m)
			}
		}
	}
}

func relationField(m models.Model, name string) reflect.Value {
	return reflect.ValueOf(m).Elem().FieldByName(name)
}

// fkValue reads a string or *string field.
func fkValue(m models.Model, field string) string {
	fv := reflect.ValueOf(m).Elem().FieldByName(field)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return ""
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.String {
		return ""
	}
	return fv.String()
}

func setIfEmpty(m models.Model, field, id string) {
	if fkValue(m, field) != "" {
		return
	}
	fv := reflect.ValueOf(m).Elem().FieldByName(field)
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(id)
	case reflect.Ptr:
		p := reflect.New(fv.Type().Elem())
		p.Elem().SetString(id)
		fv.Set(p)
	}
}

func clearFK(m models.Model, field string) {
	fv := reflect.ValueOf(m).Elem().FieldByName(field)
	fv.Set(reflect.Zero(fv.Type()))
}

func isNil(m models.Model) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
