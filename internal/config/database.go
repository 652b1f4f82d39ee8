package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/models"
)

func InitDatabase(cfg *Config, log logger.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connected", map[string]interface{}{
		"host": cfg.Database.Host,
		"name": cfg.Database.DBName,
	})

	if err := db.AutoMigrate(&models.Analysis{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database migration completed", nil)

	return db, nil
}
