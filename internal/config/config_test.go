package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	original := &Config{
		HostID:  "test-host-abc",
		BaseDir: "/home/user/.local/share/filer",
		LogDir:  "/home/user/.local/share/filer/log",
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
			{Type: "s3", Name: "offsite", S3Bucket: "bucket", S3Endpoint: "http://localhost:9000"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/filer/keys/filer.pub",
			PrivateKeyPath: "/home/user/.local/share/filer/keys/filer.key",
		},
		Database: DatabaseConfig{Type: "sqlite-purego", DataDir: "/home/user/.local/share/filer/db"},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.log", ".git/"},
		},
		Create: CreateConfig{HashWorkers: 4},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, original); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("len(Vaults) = %d, want 2", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Vaults[1].S3Endpoint != "http://localhost:9000" {
		t.Errorf("Vault.S3Endpoint = %q, want %q", got.Vaults[1].S3Endpoint, "http://localhost:9000")
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
	if got.Database.Type != "sqlite-purego" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite-purego")
	}
	if got.Create.HashWorkers != 4 {
		t.Errorf("Create.HashWorkers = %d, want 4", got.Create.HashWorkers)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/filer")

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"HostID", cfg.HostID, "host-1"},
		{"BaseDir", cfg.BaseDir, "/data/filer"},
		{"LogDir", cfg.LogDir, "/data/filer/log"},
		{"Encryption.Type", cfg.Encryption.Type, "age"},
		{"Encryption.PublicKeyPath", cfg.Encryption.PublicKeyPath, "/data/filer/keys/filer.pub"},
		{"Encryption.PrivateKeyPath", cfg.Encryption.PrivateKeyPath, "/data/filer/keys/filer.key"},
		{"Database.Type", cfg.Database.Type, "sqlite"},
		{"Database.DataDir", cfg.Database.DataDir, "/data/filer/db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "missing host id", mutate: func(c *Config) { c.HostID = "" }, wantErr: "host_id"},
		{name: "unknown database", mutate: func(c *Config) { c.Database.Type = "postgres" }, wantErr: "database type"},
		{name: "unknown encryption", mutate: func(c *Config) { c.Encryption.Type = "rot13" }, wantErr: "encryption type"},
		{name: "negative workers", mutate: func(c *Config) { c.Create.HashWorkers = -1 }, wantErr: "hash_workers"},
		{name: "unnamed vault", mutate: func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "memory"}}
		}, wantErr: "no name"},
		{name: "duplicate vault", mutate: func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "memory", Name: "v"}, {Type: "memory", Name: "v"}}
		}, wantErr: "duplicate"},
		{name: "filesystem vault without root", mutate: func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "filesystem", Name: "v"}}
		}, wantErr: "fs_vault_root"},
		{name: "s3 vault without bucket", mutate: func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "s3", Name: "v"}}
		}, wantErr: "s3_bucket"},
		{name: "encryption none is valid", mutate: func(c *Config) { c.Encryption.Type = "none" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("h", "/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "filer.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "filer.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestDecode_UnknownKey(t *testing.T) {
	in := "host_id = \"h\"\n\n[[vaults]]\ntype = \"filesystem\"\nname = \"v\"\nfs_root = \"/x\"\n"

	_, err := Decode(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "fs_root") {
		t.Errorf("Decode() error = %v, want unknown key fs_root", err)
	}
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "filer.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile(filepath.Join(t.TempDir(), "filer.toml"))
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})

	t.Run("returns error for malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filer.toml")
		if err := os.WriteFile(path, []byte("host_id = \n"), 0644); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for malformed file")
		}
	})
}
