package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"screener/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the SQLite database named by the configured DSN.
// "memory" (or an empty DSN) selects a shared in-memory database.
func Init() (*gorm.DB, error) {
	return Open(config.AppConfig.Database.DSN)
}

// Open opens a SQLite database for dsn and stores it in DB.
func Open(dsn string) (*gorm.DB, error) {
	var err error

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // gorm logger.Default threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger: gormLogger,
	}

	if dsn == "memory" || dsn == "" {
		log.Println("INFO: [Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
		DB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormConfig)
	} else {
		log.Printf("INFO: [Database] Initializing file-based SQLite database at DSN: '%s'.", dsn)
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	}

	if err != nil {
		log.Printf("ERROR: [Database] Failed to connect to database (DSN: '%s'): %v", dsn, err)
		return nil, fmt.Errorf("failed to connect to database (DSN: '%s'): %w", dsn, err)
	}

	log.Println("INFO: [Database] Database connection established successfully.")
	return DB, nil
}

func ensureDir(dsn string) error {
	dbDir := filepath.Dir(dsn)
	if dbDir == "." || dbDir == "/" {
		return nil
	}
	if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
		log.Printf("INFO: [Database] Database directory '%s' does not exist, attempting to create.", dbDir)
		if mkdirErr := os.MkdirAll(dbDir, 0755); mkdirErr != nil {
			log.Printf("ERROR: [Database] Failed to create database directory '%s': %v", dbDir, mkdirErr)
			return fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
		}
	}
	return nil
}
