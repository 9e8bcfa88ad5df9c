package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk filer.toml.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Filesystem FilesystemConfig `toml:"filesystem"`
	Create     CreateConfig     `toml:"create"`
}

// EncryptionConfig selects how record-store exports are encrypted before
// they are pushed to a vault.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "none", or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds scanner settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// CreateConfig tunes snapshot creation.
type CreateConfig struct {
	HashWorkers int `toml:"hash_workers"` // 0 means GOMAXPROCS
}

// VaultConfig is one [[vaults]] entry. Type decides which of the
// prefixed fields apply.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // S3-compatible services; enables path-style addressing
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig locates the record store. The file is <data_dir>/<host_id>.db.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "sqlite-purego" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // not used for type=memory
}

// NewConfig is the config `filer config init` writes: age keys, log and
// database all under baseDir, and no vaults.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "filer.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "filer.key"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	if c.HostID == "" {
		return fmt.Errorf("host_id is required")
	}
	switch c.Database.Type {
	case "sqlite", "sqlite-purego", "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	switch c.Encryption.Type {
	case "", "age", "none", "test":
	default:
		return fmt.Errorf("unknown encryption type: %q", c.Encryption.Type)
	}
	if c.Create.HashWorkers < 0 {
		return fmt.Errorf("create.hash_workers must not be negative")
	}
	seen := make(map[string]bool, len(c.Vaults))
	for _, v := range c.Vaults {
		if v.Name == "" {
			return fmt.Errorf("vault of type %q has no name", v.Type)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate vault name: %s", v.Name)
		}
		seen[v.Name] = true

		switch {
		case v.Type == "filesystem" && v.FSVaultRoot == "":
			return fmt.Errorf("vault %s: fs_vault_root is required", v.Name)
		case v.Type == "s3" && v.S3Bucket == "":
			return fmt.Errorf("vault %s: s3_bucket is required", v.Name)
		}
	}
	return nil
}

// Decode parses TOML config from r. Unknown keys are rejected so a typo
// in a vault block is not silently ignored.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if extra := md.Undecoded(); len(extra) > 0 {
		return nil, fmt.Errorf("unknown config key %q", extra[0].String())
	}
	return &cfg, nil
}

// Encode writes cfg to w as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ReadFromFile loads the config file at path. It does not validate.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new file at path, creating parent directories.
// An existing file is never replaced.
func Init(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err != nil {
		return err
	}
	if err := Encode(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
