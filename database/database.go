package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"garuda/config"
	"garuda/models"
	"garuda/models/academy"
	"garuda/models/community"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes the connection configured in AppConfig and runs migrations
func ConnectDb() {
	cfg := config.AppConfig

	db, err := Open(cfg.DBDriver, DSN(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.DBDriver, err)
		os.Exit(2)
	}

	if cfg.DBDriver != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database instance: %v", err)
		}
		sqlDB.SetMaxOpenConns(10) // Maximum open connections
		sqlDB.SetMaxIdleConns(5)  // Maximum idle connections
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	Database = DbInstance{Db: db}
}

// DSN builds the connection string for the configured driver
func DSN(cfg *config.Config) string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN
	}

	switch cfg.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case "sqlite":
		return cfg.DBName + ".db"
	default:
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)
	}
}

// Open returns a gorm handle for driver/dsn. SQLite handles are limited to a
// single connection so that ":memory:" databases are shared by every query.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if strings.ToLower(driver) == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate performs database migrations
func Migrate(db *gorm.DB) error {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Referral{},
		&models.SupportTicket{},
		&models.EmailBroadcast{},
		&models.EmailBroadcastRecipient{},
		&academy.Program{},
		&academy.Class{},
		&academy.TrainerAssignment{},
		&academy.Enrollment{},
		&academy.PaymentNotification{},
		&academy.LearningContent{},
		&academy.ContentProgress{},
		&academy.QuizQuestion{},
		&academy.QuizOption{},
		&academy.QuizSubmission{},
		&academy.CertificateTemplate{},
		&academy.CertificateRequest{},
		&academy.Certificate{},
		&community.ForumThread{},
		&community.ForumReply{},
	)
	if err != nil {
		return err
	}

	log.Println("Migrations completed successfully.")
	return nil
}
