package main

import (
	"fmt"
	"log"

	"lightsms-gateway/internal/config"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// One-shot copy of a local SQLite database into PostgreSQL. Reads the
// source path from DB_PATH and the destination from the DB_* settings.
func main() {
	cfg := config.LoadConfig()

	sqliteDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}
	log.Printf("Connected to SQLite at %s", cfg.DBPath)

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	pgDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := database.Migrate(pgDB); err != nil {
		log.Fatalf("Failed to migrate Postgres schema: %v", err)
	}

	log.Println("Starting data migration...")

	migrateTable := func(tableName string, source interface{}, count func() int) {
		log.Printf("Migrating table: %s", tableName)

		if err := sqliteDB.Find(source).Error; err != nil {
			log.Printf("Error reading %s from SQLite: %v", tableName, err)
			return
		}
		if count() == 0 {
			log.Printf("Table %s is empty, skipping", tableName)
			return
		}

		err := pgDB.Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(source, 500).Error
		})
		if err != nil {
			log.Printf("Error writing %s to Postgres: %v", tableName, err)
		} else {
			log.Printf("Successfully migrated %s (%d rows)", tableName, count())
		}
	}

	// Parent tables first so foreign keys resolve.

	var users []models.User
	migrateTable("users", &users, func() int { return len(users) })

	var groups []models.ContactGroup
	migrateTable("contact_groups", &groups, func() int { return len(groups) })

	var contacts []models.Contact
	migrateTable("contacts", &contacts, func() int { return len(contacts) })

	var campaigns []models.Campaign
	migrateTable("campaigns", &campaigns, func() int { return len(campaigns) })

	var messages []models.SmsMessage
	migrateTable("sms_messages", &messages, func() int { return len(messages) })

	var responses []models.MessageResponse
	migrateTable("message_responses", &responses, func() int { return len(responses) })

	var settings []models.SystemSetting
	migrateTable("system_settings", &settings, func() int { return len(settings) })

	log.Println("Migration completed!")
}
