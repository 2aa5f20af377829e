package config

import (
	"fmt"
	"time"

	"salonbook-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func ConnectDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

// Migrate creates the schema and the indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Salon{},
		&models.User{},
		&models.Client{},
		&models.NotificationPreference{},
		&models.Service{},
		&models.Appointment{},
		&models.BlockedSchedule{},
		&models.Reminder{},
		&models.SentReminder{},
		&models.ReminderTemplate{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// At most one successful delivery per reminder and channel, even if two
	// scheduler instances race past the claim.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sent_reminder_success
		ON sent_reminders (reminder_id, channel)
		WHERE status IN ('sent', 'delivered', 'read')
	`).Error
}
