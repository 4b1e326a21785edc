package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"puripilot/config"
	"puripilot/internal/model"
)

// Init opens the database connection, reconciles the schema and seeds
// the device table. It must succeed before the service accepts traffic;
// callers treat any error as fatal.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate reconciles the schema (additive only: AutoMigrate creates
// missing tables and columns, never drops or renames) and inserts a
// seed device when the table is empty.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Device{},
		&model.Floorplan{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	return seedDevices(db)
}

func seedDevices(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Device{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count devices: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	seed := model.Device{
		ID:         "lg-puricare-1",
		Name:       "Lg Puricare",
		Mode:       model.ModeNormal,
		SmellClass: model.SmellBackground,
		LastSeen:   &now,
	}
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed devices: %w", err)
	}
	log.Printf("Seeded device %s", seed.ID)
	return nil
}
