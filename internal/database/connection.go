package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/middrag/middrag/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The web API reads the usage log while the dispatch loop appends to it.
const sqliteParams = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// DB is the gesture usage log.
type DB struct {
	*gorm.DB
}

// DefaultPath returns $XDG_CONFIG_HOME/middrag/middrag.db, creating the directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}

	dir := filepath.Join(configDir, "middrag")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dir, "middrag.db"), nil
}

// Connect opens the usage log at path, or at DefaultPath when path is empty.
func Connect(path string) (*DB, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open("file:"+path+sqliteParams), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return &DB{db}, nil
}

// Initialize migrates the event and error tables.
func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.GestureEvent{}, &models.ErrorLog{}); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
