package database

import (
	"fmt"

	"investment-platform/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all ledger models
func AutoMigrate() error {
	ledgerModels := []interface{}{
		&models.User{},
		&models.Investment{},
		&models.EarningsRecord{},
		&models.Claim{},
		&models.Withdrawal{},
	}

	for _, model := range ledgerModels {
		if err := DB.AutoMigrate(model); err != nil {
			logrus.Warnf("migration issue for %T: %v", model, err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
