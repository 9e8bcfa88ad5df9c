package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filer-go/internal/config"
	"filer-go/internal/database"
	"filer-go/internal/filer"
	"filer-go/internal/vault"
)

// newTestConfig returns a config with a migrated SQLite database, a
// filesystem vault, and the test encryptor, all under a temp directory.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()

	cfg := config.NewConfig("host-1", base)
	cfg.Encryption = config.EncryptionConfig{Type: "test"}
	cfg.Vaults = []config.VaultConfig{
		{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(base, "vault")},
	}

	if err := database.MigrateFromConfig(cfg.Database, cfg.HostID); err != nil {
		t.Fatalf("MigrateFromConfig() error = %v", err)
	}
	return cfg
}

func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("alpha"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("beta"), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func openApp(t *testing.T, cfg *config.Config, operation string) *FilerApp {
	t.Helper()
	a, err := NewFilerApp(cfg, operation)
	if err != nil {
		t.Fatalf("NewFilerApp() error = %v", err)
	}
	return a
}

func vaultVersion(t *testing.T, cfg *config.Config) int64 {
	t.Helper()
	v, err := vault.NewFileSystemVault("local", cfg.Vaults[0].FSVaultRoot)
	if err != nil {
		t.Fatal(err)
	}
	version, err := v.GetMetadataVersion(cfg.HostID, metadataName)
	if err != nil {
		t.Fatalf("GetMetadataVersion() error = %v", err)
	}
	return version
}

func TestFilerApp_SnapshotLifecycle(t *testing.T) {
	cfg := newTestConfig(t)
	src := newTestTree(t)

	a := openApp(t, cfg, "CreateSnapshot")
	snap, err := a.CreateSnapshot(src)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	if snap.Number != 1 {
		t.Errorf("Number = %d, want 1", snap.Number)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := vaultVersion(t, cfg); got != 1 {
		t.Errorf("vault version after create = %d, want 1", got)
	}

	a = openApp(t, cfg, "ListSnapshots")
	items, err := a.ListSnapshots(src)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(items) != 1 || items[0].Number != 1 {
		t.Errorf("ListSnapshots() = %+v, want one snapshot numbered 1", items)
	}

	out := filepath.Join(t.TempDir(), "restored")
	restored, err := a.RestoreSnapshot(src, 1, out)
	if err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if restored != out {
		t.Errorf("RestoreSnapshot() path = %q, want %q", restored, out)
	}
	data, err := os.ReadFile(filepath.Join(out, "docs", "a.txt"))
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("restored content = %q, want %q", data, "alpha")
	}

	report, err := a.VerifySnapshot(src, 1)
	if err != nil {
		t.Fatalf("VerifySnapshot() error = %v", err)
	}
	if !report.OK() || report.Blobs != 2 {
		t.Errorf("VerifySnapshot() = %+v, want 2 intact blobs", report)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Read-only commands do not bump the exported version.
	if got := vaultVersion(t, cfg); got != 1 {
		t.Errorf("vault version after read-only commands = %d, want 1", got)
	}

	a = openApp(t, cfg, "PruneSnapshot")
	ok, err := a.PruneSnapshot(src, 1)
	if err != nil {
		t.Fatalf("PruneSnapshot() error = %v", err)
	}
	if !ok {
		t.Error("PruneSnapshot() = false, want true")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := vaultVersion(t, cfg); got != 2 {
		t.Errorf("vault version after prune = %d, want 2", got)
	}

	a = openApp(t, cfg, "History")
	defer a.Close()
	history, err := a.GetHistory(10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("GetHistory() returned %d operations, want 2", len(history))
	}
	if history[0].Operation != "PruneSnapshot" || history[0].Parameters != src+"#1" {
		t.Errorf("newest operation = %s %q, want PruneSnapshot %q", history[0].Operation, history[0].Parameters, src+"#1")
	}
	if history[1].Operation != "CreateSnapshot" || history[1].Status != StatusSuccess {
		t.Errorf("oldest operation = %s/%s, want CreateSnapshot/%s", history[1].Operation, history[1].Status, StatusSuccess)
	}
	if !history[1].FinishedAt.Valid {
		t.Error("finished operation has no finished_at")
	}
}

func TestFilerApp_FailedOperationRecordsError(t *testing.T) {
	cfg := newTestConfig(t)
	src := newTestTree(t)

	a := openApp(t, cfg, "PruneSnapshot")
	_, err := a.PruneSnapshot(src, 7)
	if !errors.Is(err, filer.ErrNotFound) {
		t.Fatalf("PruneSnapshot() error = %v, want ErrNotFound", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	a = openApp(t, cfg, "History")
	defer a.Close()
	history, err := a.GetHistory(1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Status != StatusError {
		t.Errorf("GetHistory() = %+v, want one failed operation", history)
	}
}

func TestFilerApp_GetHistoryRejectsBadLimit(t *testing.T) {
	a := openApp(t, newTestConfig(t), "History")
	defer a.Close()

	if _, err := a.GetHistory(0); err == nil {
		t.Error("GetHistory(0) succeeded, want error")
	}
}

func TestNewFilerApp(t *testing.T) {
	t.Run("works without vaults", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Vaults = nil
		// age keys were never generated; without vaults nothing is encrypted.
		cfg.Encryption = config.NewConfig(cfg.HostID, cfg.BaseDir).Encryption

		a := openApp(t, cfg, "CreateSnapshot")
		if _, err := a.CreateSnapshot(newTestTree(t)); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("refuses vaults without encryption keys", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Encryption = config.NewConfig(cfg.HostID, cfg.BaseDir).Encryption

		_, err := NewFilerApp(cfg, "CreateSnapshot")
		if err == nil || !strings.Contains(err.Error(), "encryption keys missing") {
			t.Errorf("NewFilerApp() error = %v, want missing keys error", err)
		}
	})

	t.Run("refuses unmigrated database", func(t *testing.T) {
		cfg := config.NewConfig("host-2", t.TempDir())
		cfg.Encryption = config.EncryptionConfig{Type: "none"}

		_, err := NewFilerApp(cfg, "CreateSnapshot")
		if err == nil || !strings.Contains(err.Error(), "schema out of date") {
			t.Errorf("NewFilerApp() error = %v, want schema error", err)
		}
	})

	t.Run("refuses database behind vault", func(t *testing.T) {
		cfg := newTestConfig(t)
		v, err := vault.NewFileSystemVault("local", cfg.Vaults[0].FSVaultRoot)
		if err != nil {
			t.Fatal(err)
		}
		data := []byte("newer export")
		if err := v.PutMetadata(cfg.HostID, metadataName, bytes.NewReader(data), int64(len(data)), 5); err != nil {
			t.Fatal(err)
		}

		_, err = NewFilerApp(cfg, "CreateSnapshot")
		if err == nil || !strings.Contains(err.Error(), "behind vault local") {
			t.Errorf("NewFilerApp() error = %v, want behind-vault error", err)
		}
	})
}

func TestPullMetadata(t *testing.T) {
	cfg := newTestConfig(t)
	src := newTestTree(t)

	a := openApp(t, cfg, "CreateSnapshot")
	if _, err := a.CreateSnapshot(src); err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	dbPath, err := database.FilePath(cfg.Database, cfg.HostID)
	if err != nil {
		t.Fatal(err)
	}

	// Replace the local database with an empty one, as on a new machine.
	if err := os.Remove(dbPath); err != nil {
		t.Fatal(err)
	}
	if err := database.MigrateFromConfig(cfg.Database, cfg.HostID); err != nil {
		t.Fatal(err)
	}

	got, err := PullMetadata(cfg, "", "passphrase")
	if err != nil {
		t.Fatalf("PullMetadata() error = %v", err)
	}
	if got != dbPath {
		t.Errorf("PullMetadata() path = %q, want %q", got, dbPath)
	}
	if _, err := os.Stat(dbPath + ".bak"); err != nil {
		t.Errorf("previous database not kept: %v", err)
	}

	a = openApp(t, cfg, "ListSnapshots")
	defer a.Close()
	items, err := a.ListSnapshots(src)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("ListSnapshots() after pull returned %d snapshots, want 1", len(items))
	}
}

func TestPullMetadata_Errors(t *testing.T) {
	t.Run("unknown vault", func(t *testing.T) {
		cfg := newTestConfig(t)
		if _, err := PullMetadata(cfg, "missing", "pw"); err == nil {
			t.Error("PullMetadata() succeeded for unknown vault")
		}
	})

	t.Run("nothing exported yet", func(t *testing.T) {
		cfg := newTestConfig(t)
		_, err := PullMetadata(cfg, "local", "pw")
		if !errors.Is(err, filer.ErrNotFound) {
			t.Errorf("PullMetadata() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("memory database has no file", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Database = config.DatabaseConfig{Type: "memory"}
		if _, err := PullMetadata(cfg, "", "pw"); err == nil {
			t.Error("PullMetadata() succeeded for memory database")
		}
	})
}

func TestValidateVaults(t *testing.T) {
	t.Run("all usable", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Vaults = append(cfg.Vaults, config.VaultConfig{Type: "memory", Name: "scratch"})

		names, err := ValidateVaults(cfg)
		if err != nil {
			t.Fatalf("ValidateVaults() error = %v", err)
		}
		if len(names) != 2 || names[0] != "local" || names[1] != "scratch" {
			t.Errorf("ValidateVaults() = %v, want [local scratch]", names)
		}
	})

	t.Run("reports broken vaults", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Vaults = append(cfg.Vaults, config.VaultConfig{Type: "filesystem", Name: "broken"})

		names, err := ValidateVaults(cfg)
		if err == nil || !strings.Contains(err.Error(), "broken") {
			t.Errorf("ValidateVaults() error = %v, want failure naming broken", err)
		}
		if len(names) != 1 || names[0] != "local" {
			t.Errorf("ValidateVaults() = %v, want [local]", names)
		}
	})

	t.Run("no vaults", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Vaults = nil
		if _, err := ValidateVaults(cfg); err == nil {
			t.Error("ValidateVaults() succeeded without vaults")
		}
	})
}
