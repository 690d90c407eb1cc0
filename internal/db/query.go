package db

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option narrows or shapes a query run through a Session loader.
type Option struct {
	scope   func(*gorm.DB) *gorm.DB
	preload string
}

func Where(query any, args ...any) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB { return q.Where(query, args...) }}
}

// Order sorts by the named columns; a leading "-" sorts descending.
// Columns may be qualified as "table.column".
func Order(cols ...string) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB {
		for _, col := range cols {
			desc := strings.HasPrefix(col, "-")
			q = q.Order(clause.OrderByColumn{Column: column(strings.TrimPrefix(col, "-")), Desc: desc})
		}
		return q
	}}
}

// Preload loads a relation path such as "Shifts.Job" with the rows.
func Preload(path string) Option {
	return Option{preload: path}
}

func Limit(n int) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB { return q.Limit(n) }}
}

// Scope applies an arbitrary gorm scope, e.g. a join.
func Scope(fn func(*gorm.DB) *gorm.DB) Option {
	return Option{scope: fn}
}

// IContains matches rows whose column contains term, ignoring case.
func IContains(col, term string) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB { return q.Where(icontains(col, term)) }}
}

// IContainsAny matches rows where any of cols contains term, ignoring
// case.
func IContainsAny(cols []string, term string) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB {
		exprs := make([]clause.Expression, len(cols))
		for i, col := range cols {
			exprs[i] = icontains(col, term)
		}
		return q.Where(clause.Or(exprs...))
	}}
}

// IExact matches rows whose column equals value, ignoring case.
func IExact(col, value string) Option {
	return Option{scope: func(q *gorm.DB) *gorm.DB {
		return q.Where(clause.Expr{SQL: "LOWER(?) = ?", Vars: []any{column(col), strings.ToLower(value)}})
	}}
}

func icontains(col, term string) clause.Expression {
	return clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{column(col), "%" + strings.ToLower(term) + "%"}}
}

func column(name string) clause.Column {
	if table, col, ok := strings.Cut(name, "."); ok {
		return clause.Column{Table: table, Name: col}
	}
	return clause.Column{Name: name}
}

func apply(q *gorm.DB, opts []Option) (*gorm.DB, []string) {
	var preloads []string
	for _, o := range opts {
		if o.scope != nil {
			q = o.scope(q)
		}
		if o.preload != "" {
			q = q.Preload(o.preload)
			preloads = append(preloads, o.preload)
		}
	}
	return q, preloads
}
