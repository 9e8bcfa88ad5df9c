package vault

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"filer-go/internal/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.VaultConfig
		wantErr  bool
		validate bool
	}{
		{
			name:     "memory vault",
			cfg:      config.VaultConfig{Type: "memory", Name: "test-memory"},
			validate: true,
		},
		{
			name: "s3 vault",
			cfg: config.VaultConfig{
				Type:              "s3",
				Name:              "test-s3",
				S3Bucket:          "my-bucket",
				S3Region:          "us-east-1",
				S3Endpoint:        "http://127.0.0.1:9000",
				S3AccessKeyID:     "key",
				S3SecretAccessKey: "secret",
			},
		},
		{
			name:    "s3 vault without bucket",
			cfg:     config.VaultConfig{Type: "s3", Name: "test-s3"},
			wantErr: true,
		},
		{
			name:     "filesystem vault",
			cfg:      config.VaultConfig{Type: "filesystem", Name: "test-fs", FSVaultRoot: filepath.Join(t.TempDir(), "vault")},
			validate: true,
		},
		{
			name:    "filesystem vault without root",
			cfg:     config.VaultConfig{Type: "filesystem", Name: "test-fs"},
			wantErr: true,
		},
		{
			name:    "unknown vault type",
			cfg:     config.VaultConfig{Type: "unknown", Name: "test-unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(context.Background(), tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Error("Open() should return nil on error")
				}
				return
			}

			if got.Name() != tt.cfg.Name {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.cfg.Name)
			}
			if tt.validate {
				if err := got.ValidateSetup(); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}

func TestOpenAll(t *testing.T) {
	cfgs := []config.VaultConfig{
		{Type: "memory", Name: "a"},
		{Type: "filesystem", Name: "b", FSVaultRoot: t.TempDir()},
	}

	vaults, err := OpenAll(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("OpenAll() error = %v", err)
	}
	if len(vaults) != 2 || vaults[0].Name() != "a" || vaults[1].Name() != "b" {
		t.Fatalf("OpenAll() returned %d vaults in unexpected order", len(vaults))
	}

	cfgs = append(cfgs, config.VaultConfig{Type: "tape", Name: "c"})
	if _, err := OpenAll(context.Background(), cfgs); err == nil || !strings.Contains(err.Error(), "vault c") {
		t.Errorf("OpenAll() error = %v, want error naming vault c", err)
	}
}

func TestS3Vault_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "metadata/host-1/filer.db"},
		{prefix: "backups", want: "backups/metadata/host-1/filer.db"},
		{prefix: "backups/", want: "backups/metadata/host-1/filer.db"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			v := &S3Vault{prefix: tt.prefix}
			if got := v.key("host-1", "filer.db"); got != tt.want {
				t.Errorf("key() = %q, want %q", got, tt.want)
			}
		})
	}
}
