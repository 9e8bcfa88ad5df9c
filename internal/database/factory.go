package database

import (
	"fmt"
	"os"
	"path/filepath"

	"filer-go/internal/config"
	"filer-go/internal/filer"
)

// NewDatabaseFromConfig opens the record store cfg describes. File stores
// are returned as found and the caller decides whether to check or apply
// migrations. A memory store starts empty, so it is migrated here.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, hostID string) (filer.Database, error) {
	db, err := openFromConfig(cfg, hostID)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// MigrateFromConfig brings the configured record store up to the latest
// schema, creating the file if needed.
func MigrateFromConfig(cfg config.DatabaseConfig, hostID string) error {
	db, err := openFromConfig(cfg, hostID)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

// FilePath is where a file-backed record store lives for hostID.
func FilePath(cfg config.DatabaseConfig, hostID string) (string, error) {
	switch cfg.Type {
	case "sqlite", "sqlite-purego":
	case "memory":
		return "", fmt.Errorf("database type %s has no file", cfg.Type)
	default:
		return "", fmt.Errorf("unknown database type: %s", cfg.Type)
	}
	if cfg.DataDir == "" {
		return "", fmt.Errorf("data_dir required for %s database", cfg.Type)
	}
	return filepath.Join(cfg.DataDir, hostID+".db"), nil
}

func openFromConfig(cfg config.DatabaseConfig, hostID string) (*SQLiteDatabase, error) {
	if cfg.Type == "memory" {
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return db, nil
	}

	path, err := FilePath(cfg, hostID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data_dir: %w", err)
	}
	if cfg.Type == "sqlite-purego" {
		return NewPureGoSQLiteDatabase(path)
	}
	return NewSQLiteDatabase(path)
}
