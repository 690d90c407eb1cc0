package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/magfest/uber/internal/metrics"
)

const startKey = "uber:started_at"

// registerMetrics times every statement gorm runs into
// metrics.QueryDuration.
func registerMetrics(g *gorm.DB) error {
	cb := g.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("uber:before_create", startTimer),
		cb.Create().After("gorm:create").Register("uber:after_create", observe("create")),
		cb.Query().Before("gorm:query").Register("uber:before_query", startTimer),
		cb.Query().After("gorm:query").Register("uber:after_query", observe("query")),
		cb.Update().Before("gorm:update").Register("uber:before_update", startTimer),
		cb.Update().After("gorm:update").Register("uber:after_update", observe("update")),
		cb.Delete().Before("gorm:delete").Register("uber:before_delete", startTimer),
		cb.Delete().After("gorm:delete").Register("uber:after_delete", observe("delete")),
		cb.Row().Before("gorm:row").Register("uber:before_row", startTimer),
		cb.Row().After("gorm:row").Register("uber:after_row", observe("row")),
		cb.Raw().Before("gorm:raw").Register("uber:before_raw", startTimer),
		cb.Raw().After("gorm:raw").Register("uber:after_raw", observe("raw")),
	)
}

func startTimer(tx *gorm.DB) {
	tx.InstanceSet(startKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(startKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		metrics.QueryDuration.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(start).Seconds())
	}
}
