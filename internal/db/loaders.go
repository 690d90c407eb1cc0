package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/magfest/uber/internal/errs"
	"github.com/magfest/uber/internal/models"
)

func preloadsOf(opts []Option) []string {
	var paths []string
	for _, o := range opts {
		if o.preload != "" {
			paths = append(paths, o.preload)
		}
	}
	return paths
}

// Get loads the row of T with the given id. A row already in the session
// is returned as it is, with any requested relations loaded onto it.
func Get[T any, P interface {
	*T
	models.Model
}](s *Session, id string, opts ...Option) (P, error) {
	if s.closed {
		return nil, ErrClosed
	}
	table := P(new(T)).TableName()
	if id == "" {
		return nil, fmt.Errorf("%s with no id: %w", table, errs.NotFound)
	}
	k := key{table: table, id: id}
	if s.deleted[k] {
		return nil, fmt.Errorf("%s %s: %w", table, id, errs.NotFound)
	}
	if m, ok := s.identity[k]; ok {
		if err := s.Load(m, preloadsOf(opts)...); err != nil {
			return nil, err
		}
		return m.(P), nil
	}

	q, preloads := apply(s.tx.Where(idEq(id)), opts)
	row := P(new(T))
	err := q.Take(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %s: %w", table, id, errs.NotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return s.adopt(row, parsePaths(preloads)).(P), nil
}

// All loads every row of T matching opts, skipping rows pending deletion.
// Rows are not flushed first, so unflushed changes do not affect which
// rows match.
func All[T any, P interface {
	*T
	models.Model
}](s *Session, opts ...Option) ([]P, error) {
	if s.closed {
		return nil, ErrClosed
	}
	q, preloads := apply(s.tx.Model(P(new(T))), opts)
	var rows []P
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", P(new(T)).TableName(), err)
	}
	tree := parsePaths(preloads)
	out := make([]P, 0, len(rows))
	seen := make(map[key]bool, len(rows))
	for _, row := range rows {
		k := keyOf(row)
		if s.deleted[k] || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s.adopt(row, tree).(P))
	}
	return out, nil
}

// One loads the single row of T matching opts. It fails when there is no
// such row or more than one.
func One[T any, P interface {
	*T
	models.Model
}](s *Session, opts ...Option) (P, error) {
	rows, err := All[T, P](s, append(opts, Limit(2))...)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%s: %w", P(new(T)).TableName(), errs.NotFound)
	case 1:
		return rows[0], nil
	}
	return nil, fmt.Errorf("%s: multiple rows found", P(new(T)).TableName())
}

// First loads the first row of T matching opts.
func First[T any, P interface {
	*T
	models.Model
}](s *Session, opts ...Option) (P, error) {
	rows, err := All[T, P](s, append(opts, Limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", P(new(T)).TableName(), errs.NotFound)
	}
	return rows[0], nil
}

// Count counts the stored rows of T matching opts.
func Count[T any, P interface {
	*T
	models.Model
}](s *Session, opts ...Option) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var scopes []Option
	for _, o := range opts {
		if o.scope != nil {
			scopes = append(scopes, o)
		}
	}
	q, _ := apply(s.tx.Model(P(new(T))), scopes)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", P(new(T)).TableName(), err)
	}
	return n, nil
}
