package database

import (
	"path/filepath"
	"testing"

	"filer-go/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, "test-host-123")
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		// Memory databases come up migrated.
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	for _, typ := range []string{"sqlite", "sqlite-purego"} {
		typ := typ
		t.Run(typ+" database", func(t *testing.T) {
			dataDir := filepath.Join(t.TempDir(), "db")
			cfg := config.DatabaseConfig{Type: typ, DataDir: dataDir}
			got, err := NewDatabaseFromConfig(cfg, "test-host-123")
			if err != nil {
				t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
			}
			defer got.Close()

			sqliteDB, ok := got.(*SQLiteDatabase)
			if !ok {
				t.Fatalf("NewDatabaseFromConfig() returned %T, want *SQLiteDatabase", got)
			}
			if want := filepath.Join(dataDir, "test-host-123.db"); sqliteDB.Path() != want {
				t.Errorf("Path() = %q, want %q", sqliteDB.Path(), want)
			}

			// A fresh file database is not migrated until asked.
			if err := got.CheckMigrations(); err == nil {
				t.Error("CheckMigrations() expected error before migration, got nil")
			}
			if err := sqliteDB.Migrate(); err != nil {
				t.Fatalf("Migrate() error = %v", err)
			}
			if err := got.CheckMigrations(); err != nil {
				t.Errorf("CheckMigrations() after Migrate() error = %v", err)
			}
		})
	}

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewDatabaseFromConfig(cfg, "test-host-123")

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir, got nil")
		}

		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "unknown"}
		got, err := NewDatabaseFromConfig(cfg, "test-host-123")

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}

		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})
}

func TestMigrateFromConfig(t *testing.T) {
	cfg := config.DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()}

	if err := MigrateFromConfig(cfg, "host"); err != nil {
		t.Fatalf("MigrateFromConfig() error = %v", err)
	}

	db, err := NewDatabaseFromConfig(cfg, "host")
	if err != nil {
		t.Fatalf("NewDatabaseFromConfig() error = %v", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
}

func TestFilePath(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{name: "sqlite", cfg: config.DatabaseConfig{Type: "sqlite", DataDir: "/data"}, want: "/data/h.db"},
		{name: "sqlite-purego", cfg: config.DatabaseConfig{Type: "sqlite-purego", DataDir: "/data"}, want: "/data/h.db"},
		{name: "missing data_dir", cfg: config.DatabaseConfig{Type: "sqlite"}, wantErr: true},
		{name: "memory has no file", cfg: config.DatabaseConfig{Type: "memory"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilePath(tt.cfg, "h")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FilePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FilePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
