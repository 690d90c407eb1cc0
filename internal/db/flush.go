package db

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/metrics"
	"github.com/magfest/uber/internal/models"
)

// Flush writes every pending change under the badge lock.
//
// Before writing, attendees are moved between their groups' member lists,
// presave adjustments run once on every new, changed or touched row
// (children before parents), and predelete adjustments run on rows being
// deleted. Rows are then validated, inserted parents first, updated, and
// deleted children first, and an audit row is written for each change.
func (s *Session) Flush() error {
	if s.closed {
		return ErrClosed
	}
	s.lock()
	defer s.unlock()

	if err := s.flush(); err != nil {
		metrics.Flushes.WithLabelValues("error").Inc()
		return err
	}
	metrics.Flushes.WithLabelValues("ok").Inc()
	return nil
}

func (s *Session) flush() error {
	s.cascadeAll()
	touched, err := s.prepare()
	if err != nil {
		return err
	}
	if err := s.presave(touched); err != nil {
		return err
	}
	for i := 0; i < len(s.deleteOrder); i++ {
		if p, ok := s.deleteOrder[i].(models.PredeleteAdjuster); ok {
			if err := p.PredeleteAdjust(s); err != nil {
				return err
			}
		}
	}
	s.cascadeAll()

	var inserts, updates []models.Model
	for _, m := range s.order {
		switch {
		case s.deleted[keyOf(m)]:
		case m.Base().IsNew():
			inserts = append(inserts, m)
		case len(models.ChangedColumns(m)) > 0:
			updates = append(updates, m)
		}
	}
	sort.SliceStable(inserts, func(i, j int) bool { return models.Rank(inserts[i]) < models.Rank(inserts[j]) })
	deletes := append([]models.Model(nil), s.deleteOrder...)
	sort.SliceStable(deletes, func(i, j int) bool { return models.Rank(deletes[i]) > models.Rank(deletes[j]) })

	for _, m := range inserts {
		if err := models.Check(m); err != nil {
			return err
		}
	}
	for _, m := range updates {
		if err := models.Check(m); err != nil {
			return err
		}
	}

	var audit []*models.Tracking
	for _, m := range updates {
		if models.Untracked(m) {
			continue
		}
		if t := models.Track(config.Updated, m, s.who); t != nil {
			audit = append(audit, t)
		}
	}
	for _, m := range deletes {
		if !models.Untracked(m) {
			audit = append(audit, models.Track(config.Deleted, m, s.who))
		}
	}

	for _, m := range inserts {
		if err := s.tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return fmt.Errorf("insert %s: %w", m.TableName(), err)
		}
		m.Base().MarkPersisted(models.Values(m))
		if !models.Untracked(m) {
			audit = append(audit, models.Track(config.Created, m, s.who))
		}
	}
	for _, m := range updates {
		changed := make(map[string]any)
		for _, col := range models.ChangedColumns(m) {
			c, _ := models.GetField(m, col)
			changed[col] = c.Value(m)
		}
		if err := s.tx.Model(m).Omit(clause.Associations).Updates(changed).Error; err != nil {
			return fmt.Errorf("update %s: %w", m.TableName(), err)
		}
		m.Base().MarkPersisted(models.Values(m))
	}
	gone := make(map[key]bool)
	for _, m := range deletes {
		if err := s.tx.Delete(m).Error; err != nil {
			return fmt.Errorf("delete %s: %w", m.TableName(), err)
		}
		gone[keyOf(m)] = true
		s.removeDependents(m, gone)
	}
	s.forget(gone)

	for _, t := range audit {
		if err := s.tx.Create(t).Error; err != nil {
			return fmt.Errorf("insert tracking: %w", err)
		}
		metrics.TrackingRows.WithLabelValues(t.ActionLabel()).Inc()
	}

	slog.DebugContext(s.ctx, "session flushed",
		"inserted", len(inserts), "updated", len(updates), "deleted", len(deletes), "who", s.who)
	return nil
}

// prepare moves new and changed attendees into their group's member list
// and loads the relations presave adjustments read. It returns the groups
// whose membership changed.
func (s *Session) prepare() ([]models.Model, error) {
	var touched []models.Model
	for _, m := range append([]models.Model(nil), s.order...) {
		a, ok := m.(*models.Attendee)
		if !ok || s.deleted[keyOf(a)] {
			continue
		}
		if !a.IsNew() && len(models.ChangedColumns(a)) == 0 {
			continue
		}
		if err := s.Load(a, "Shifts.Job"); err != nil {
			return nil, err
		}
		groups, err := s.syncGroup(a)
		if err != nil {
			return nil, err
		}
		touched = append(touched, groups...)
	}

	for _, m := range s.deleteOrder {
		a, ok := m.(*models.Attendee)
		if !ok {
			continue
		}
		id, _ := models.OrigValueOf(a, "group_id").(string)
		g, err := s.leaveGroup(a, id)
		if err != nil {
			return nil, err
		}
		if g != nil {
			touched = append(touched, g)
		}
	}

	for _, m := range append([]models.Model(nil), s.order...) {
		g, ok := m.(*models.Group)
		if !ok || s.deleted[keyOf(g)] {
			continue
		}
		if g.IsNew() || len(models.ChangedColumns(g)) > 0 || containsModel(touched, g) {
			if err := s.Load(g, "Attendees"); err != nil {
				return nil, err
			}
		}
	}
	return touched, nil
}

// syncGroup reconciles a.GroupID with a.Group, preferring whichever was
// changed, and moves a between the groups' member lists.
func (s *Session) syncGroup(a *models.Attendee) ([]models.Model, error) {
	oldID := ""
	if !a.IsNew() {
		oldID, _ = models.OrigValueOf(a, "group_id").(string)
	}

	switch {
	case a.IsNew() || models.Changed(a, "group_id"):
		if a.GroupID == nil || (a.Group != nil && a.Group.ID != *a.GroupID) {
			a.Group = nil
		}
	case a.Group != nil && (a.GroupID == nil || *a.GroupID != a.Group.ID):
		id := a.Group.EnsureID()
		a.GroupID = &id
	}
	if a.GroupID != nil && a.Group == nil {
		g, err := Get[models.Group](s, *a.GroupID)
		if err != nil {
			return nil, err
		}
		a.Group = g
	}

	var touched []models.Model
	newID := ""
	if a.GroupID != nil {
		newID = *a.GroupID
	}
	if oldID != "" && oldID != newID {
		g, err := s.leaveGroup(a, oldID)
		if err != nil {
			return nil, err
		}
		if g != nil {
			touched = append(touched, g)
		}
	}
	if a.Group != nil {
		if err := s.Load(a.Group, "Attendees"); err != nil {
			return nil, err
		}
		if !containsModel(modelsOf(a.Group.Attendees), a) {
			a.Group.Attendees = append(a.Group.Attendees, a)
		}
		if oldID != newID {
			touched = append(touched, a.Group)
		}
	}
	return touched, nil
}

// leaveGroup takes a out of the member list of group id.
func (s *Session) leaveGroup(a *models.Attendee, id string) (*models.Group, error) {
	if id == "" {
		return nil, nil
	}
	g, err := Get[models.Group](s, id, Preload("Attendees"))
	if errors.Is(err, errs.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	kept := make([]*models.Attendee, 0, len(g.Attendees))
	for _, other := range g.Attendees {
		if other != a {
			kept = append(kept, other)
		}
	}
	g.Attendees = kept
	return g, nil
}

func (s *Session) presave(touched []models.Model) error {
	var targets []models.Model
	seen := make(map[key]bool)
	add := func(m models.Model) {
		if isNil(m) {
			return
		}
		k := keyOf(m)
		if seen[k] || s.deleted[k] {
			return
		}
		seen[k] = true
		targets = append(targets, m)
	}
	for _, m := range s.order {
		if !m.Base().IsNew() && len(models.ChangedColumns(m)) > 0 {
			add(m)
		}
	}
	for _, m := range s.order {
		if m.Base().IsNew() {
			add(m)
		}
	}
	for _, m := range append([]models.Model(nil), targets...) {
		if t, ok := m.(models.Toucher); ok {
			for _, other := range t.Touches() {
				add(other)
			}
		}
	}
	for _, m := range touched {
		add(m)
	}
	sort.SliceStable(targets, func(i, j int) bool { return models.Rank(targets[i]) > models.Rank(targets[j]) })

	for _, m := range targets {
		s.track(m)
		if p, ok := m.(models.PresaveAdjuster); ok {
			if err := p.PresaveAdjust(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeDependents mirrors the database's ON DELETE rules in memory:
// cascaded rows join gone and nulled foreign keys are cleared.
func (s *Session) removeDependents(m models.Model, gone map[key]bool) {
	sch, err := models.Schema(m)
	if err != nil {
		return
	}
	rels := append(append([]*schema.Relationship(nil), sch.Relationships.HasOne...), sch.Relationships.HasMany...)
	for _, rel := range rels {
		c := rel.ParseConstraint()
		if c == nil {
			continue
		}
		for _, ref := range rel.References {
			if !ref.OwnPrimaryKey || ref.ForeignKey == nil {
				continue
			}
			fk := ref.ForeignKey
			for _, child := range s.order {
				k := keyOf(child)
				if gone[k] || child.TableName() != rel.FieldSchema.Table {
					continue
				}
				switch strings.ToUpper(c.OnDelete) {
				case "CASCADE":
					if fkValue(child, fk.Name) == m.Base().ID {
						gone[k] = true
						s.removeDependents(child, gone)
					}
				case "SET NULL":
					if fkValue(child, fk.Name) == m.Base().ID {
						clearFK(child, fk.Name)
					}
					if snap := child.Base().Snapshot(); snap != nil && snap[fk.DBName] == m.Base().ID {
						snap[fk.DBName] = nil
					}
				}
			}
		}
	}
}

// forget drops gone rows from the session and from every relation that
// still holds them.
func (s *Session) forget(gone map[key]bool) {
	for k, m := range s.identity {
		if gone[k] {
			m.Base().MarkTransient()
			delete(s.identity, k)
		}
	}
	kept := s.order[:0]
	for _, m := range s.order {
		if !gone[keyOf(m)] {
			kept = append(kept, m)
		}
	}
	s.order = kept
	s.deleted = make(map[key]bool)
	s.deleteOrder = nil

	for _, m := range s.order {
		sch, err := models.Schema(m)
		if err != nil {
			continue
		}
		for _, rel := range sch.Relationships.Relations {
			dropGone(relationField(m, rel.Name), gone)
		}
	}
}

func dropGone(fv reflect.Value, gone map[key]bool) {
	switch fv.Kind() {
	case reflect.Ptr:
		if other, ok := fv.Interface().(models.Model); ok && !isNil(other) && goneModel(gone, other) {
			fv.Set(reflect.Zero(fv.Type()))
		}
	case reflect.Slice:
		out := reflect.MakeSlice(fv.Type(), 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			if other, ok := fv.Index(i).Interface().(models.Model); ok && goneModel(gone, other) {
				continue
			}
			out = reflect.Append(out, fv.Index(i))
		}
		fv.Set(out)
	}
}

func goneModel(gone map[key]bool, m models.Model) bool {
	return gone[key{table: m.TableName(), id: m.Base().ID}]
}

func containsModel(ms []models.Model, m models.Model) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

func modelsOf[P models.Model](ps []P) []models.Model {
	out := make([]models.Model, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}
