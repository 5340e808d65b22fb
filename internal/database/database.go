// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"interhub/internal/config"
	"interhub/internal/middleware"
	"interhub/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database connection instance.
var DB *gorm.DB

const slowQueryThreshold = 200 * time.Millisecond

// slogGormLogger routes GORM's log output through the application logger.
// Record-not-found errors are routine control flow and never logged.
type slogGormLogger struct {
	level logger.LogLevel
}

func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		middleware.Logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		middleware.Logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		middleware.Logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		middleware.Logger.ErrorContext(ctx, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		middleware.Logger.WarnContext(ctx, "slow query", attrs...)
	case l.level >= logger.Info:
		middleware.Logger.InfoContext(ctx, "query", attrs...)
	}
}

// Connect opens the PostgreSQL connection, runs migrations outside
// production, and configures the pool.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: &slogGormLogger{level: logger.Warn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	middleware.Logger.Info("Database connected",
		slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))

	// Production schemas change through reviewed migrations, not AutoMigrate.
	if cfg.Env != "production" && cfg.Env != "prod" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		middleware.Logger.Info("Database migration completed")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	DB = db
	return db, nil
}

// Migrate runs AutoMigrate for all domain models and applies the
// case-insensitive unique indexes that back username and room name uniqueness.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMembership{},
		&models.ContentCard{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Availability checks stay query-time (the endpoints need answers), but
	// these indexes close the check-then-create race for good.
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_ci ON users (lower(username)) WHERE username <> ''",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_name_ci ON rooms (lower(name))",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			middleware.Logger.Warn("Failed to create case-insensitive unique index (continuing)",
				slog.String("stmt", stmt), slog.String("error", err.Error()))
		}
	}

	return nil
}
