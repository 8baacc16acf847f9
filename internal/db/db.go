package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mfadeev/ttrack/internal/models"
)

// Open opens (or creates) the sqlite database at path and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own database, so
	// pin the ephemeral case to a single connection.
	if path == ":memory:" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := gdb.AutoMigrate(
		&models.Project{},
		&models.Session{},
		&models.Break{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return gdb, nil
}

// DefaultPath returns the path to the sqlite database file.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ttrack", "ttrack.db"), nil
}

// Close closes the underlying connection.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
