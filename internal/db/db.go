package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/models"
)

var conn *gorm.DB

// sqliteParams are appended to SQLite paths that carry no parameters of
// their own: WAL for concurrent readers, and foreign keys so ON DELETE
// rules fire.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open connects to the database named by cfg.URL without migrating.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgres(cfg.URL) {
		dialector = postgres.Open(cfg.URL)
	} else {
		dialector = sqlite.Open(SQLiteDSN(cfg.URL))
	}

	level := logger.Warn
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		level = logger.Info
	}
	g, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: models.Naming,
		Logger:         NewLogger(slog.Default(), cfg.SlowQuery).LogMode(level),
		NowFunc:        func() time.Time { return config.Now().UTC().Truncate(time.Microsecond) },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	// SQLite works best with a single writer; database.max_open_conns
	// defaults to 1 for it.
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	if !IsPostgres(cfg.URL) {
		// Keep connections open so the file's pragmas stay applied.
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := registerMetrics(g); err != nil {
		return nil, err
	}
	return g, nil
}

func IsPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// SQLiteDSN adds the default connection parameters to a bare path.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?" + sqliteParams
}

// Migrate creates or updates every table.
func Migrate(g *gorm.DB) error {
	all := models.All()
	tables := make([]any, len(all))
	for i, m := range all {
		tables[i] = m
	}
	if err := g.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Composite indexes that GORM doesn't auto-create from struct tags.
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_tracking_fk_when ON tracking(fk_id, "when")`,
		`CREATE INDEX IF NOT EXISTS idx_shift_job_attendee ON shift(job_id, attendee_id)`,
	} {
		if err := g.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Init connects, retrying cfg.ConnectRetries times cfg.RetryDelay apart,
// migrates, and makes the connection available through Conn.
func Init(ctx context.Context, cfg config.DatabaseConfig) error {
	var g *gorm.DB
	for attempt := 1; ; attempt++ {
		var err error
		g, err = Open(cfg)
		if err == nil {
			err = ping(ctx, g)
		}
		if err == nil {
			break
		}
		slog.Error("could not connect to database", "attempt", attempt, "retries", cfg.ConnectRetries, "error", err)
		if attempt >= cfg.ConnectRetries {
			return fmt.Errorf("connect to database after %d attempts: %w", attempt, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	if err := Migrate(g); err != nil {
		return err
	}
	conn = g
	slog.Info("database ready", "driver", g.Dialector.Name())
	return nil
}

// Conn returns the connection set up by Init.
func Conn() *gorm.DB {
	return conn
}

// Use replaces the process-wide connection.
func Use(g *gorm.DB) {
	conn = g
}

// Ping checks that the process-wide connection answers.
func Ping(ctx context.Context) error {
	if conn == nil {
		return errors.New("db: not initialized")
	}
	return ping(ctx, conn)
}

func ping(ctx context.Context, g *gorm.DB) error {
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
