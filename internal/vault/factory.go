package vault

import (
	"context"
	"errors"
	"fmt"

	"filer-go/internal/config"
	"filer-go/internal/filer"
)

// Open builds the vault described by cfg. Only the s3 backend uses ctx,
// to load AWS configuration.
func Open(ctx context.Context, cfg config.VaultConfig) (filer.Vault, error) {
	var (
		v   filer.Vault
		err error
	)
	switch cfg.Type {
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, errors.New("filesystem vault needs fs_vault_root")
		}
		var fsv *FileSystemVault
		if fsv, err = NewFileSystemVault(cfg.Name, cfg.FSVaultRoot); err == nil {
			v = fsv
		}
	case "s3":
		var s3v *S3Vault
		if s3v, err = NewS3Vault(ctx, cfg); err == nil {
			v = s3v
		}
	case "memory":
		v = NewMemoryVault(cfg.Name)
	default:
		err = fmt.Errorf("vault type %q is not supported", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// OpenAll opens every configured vault in order and stops at the first
// that cannot be built.
func OpenAll(ctx context.Context, cfgs []config.VaultConfig) ([]filer.Vault, error) {
	vaults := make([]filer.Vault, 0, len(cfgs))
	for _, c := range cfgs {
		v, err := Open(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("vault %s: %w", c.Name, err)
		}
		vaults = append(vaults, v)
	}
	return vaults, nil
}
