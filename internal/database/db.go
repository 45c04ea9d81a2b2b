package database

import (
	"fmt"
	"log"

	"lightsms-gateway/internal/config"
	"lightsms-gateway/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

// InitDB connects to the configured database (sqlite by default,
// postgres when DB_DRIVER=postgres) and runs auto-migration.
func InitDB(cfg *config.Config) {
	var err error

	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		GormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	default:
		GormDB, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Connected to %s database", cfg.DBDriver)

	if err := Migrate(GormDB); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}

	log.Println("Database migration completed")
}

// Migrate runs schema auto-migration for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ContactGroup{},
		&models.Contact{},
		&models.Campaign{},
		&models.SmsMessage{},
		&models.MessageResponse{},
		&models.SystemSetting{},
	)
}

// SyncConfig reconciles runtime settings with the system_settings table:
// values found in the DB win over empty env config, non-empty env values
// are persisted for next boot.
func SyncConfig(cfg *config.Config) {
	settings := []struct {
		Key   string
		Value *string
	}{
		{"TEXTBELT_API_KEY", &cfg.TextBeltAPIKey},
		{"TEXTBELT_API_URL", &cfg.TextBeltAPIURL},
	}

	for _, s := range settings {
		var setting models.SystemSetting
		if err := GormDB.Where("key = ?", s.Key).First(&setting).Error; err == nil {
			if setting.Value != "" && *s.Value == "" {
				*s.Value = setting.Value
			}
		} else if *s.Value != "" {
			GormDB.Create(&models.SystemSetting{
				Key:   s.Key,
				Value: *s.Value,
			})
		}
	}
	log.Println("System settings synchronized from database")
}
