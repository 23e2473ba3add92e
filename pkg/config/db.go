package config

import (
	"context"
	"fmt"
	"time"

	"characterai/backend/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the configured SQL database. The memory driver has no SQL
// connection and is rejected here; callers build a memory store instead.
func NewDB(cfg *Config, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.Database.URL)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	gormConfig := &gorm.Config{
		// Conversations may outlive the character they reference.
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}

	// Set logging level based on application environment
	if cfg.Server.Env == "development" {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	} else {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	retries := cfg.Database.Retries
	if retries < 1 {
		retries = 1
	}
	delay := 2 * time.Second

	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}

		log.Warn("Failed to connect to database, retrying",
			"driver", cfg.Database.Driver,
			"attempt", i+1,
			"delay", delay.String(),
			"error", err.Error(),
		)
		time.Sleep(delay)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite {
		// sqlite serializes writers anyway and ":memory:" is per connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	return db, nil
}

// TestConnection checks if the database connection is working
func TestConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
