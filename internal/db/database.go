package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/metrics"
	"github.com/BeArt-PDD/beart-labs/internal/models"
)

// Open connects to the configured database and migrates the nonce table.
// Postgres is the shared production backend; sqlite serves single-node
// deployments and local development.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; serialise through one connection.
		sqlDB, err := database.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logrus.WithField("driver", dialector.Name()).Info("✅ Database connected successfully")

	if err := Migrate(database); err != nil {
		return nil, err
	}

	metrics.DBConnectionStatus.Set(1)
	return database, nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(database *gorm.DB) error {
	logrus.Info("🚀 Starting database schema migration with GORM AutoMigrate...")
	if err := database.AutoMigrate(&models.SiweNonce{}); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	logrus.Info("✅ Database schema migrated successfully")
	return nil
}

// Ping checks connectivity and updates the connection gauge.
func Ping(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		metrics.DBConnectionStatus.Set(0)
		return err
	}
	metrics.DBConnectionStatus.Set(1)
	return nil
}

// Close releases the underlying connection pool.
func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
