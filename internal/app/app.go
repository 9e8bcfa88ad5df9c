package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"filer-go/internal/config"
	"filer-go/internal/database"
	"filer-go/internal/database/sqlc"
	"filer-go/internal/encryption"
	"filer-go/internal/filer"
	"filer-go/internal/fs"
	"filer-go/internal/vault"
)

// metadataName is the vault item holding the encrypted record store export.
const metadataName = "filer.db"

// FilerApp is the application layer between the CLI and FilerService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the DB lifecycle on Close.
type FilerApp struct {
	cfg       *config.Config
	db        filer.Database
	vaults    []filer.Vault
	fsmgr     filer.FilesystemManager
	encryptor filer.Encryptor
	service   *filer.FilerService
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// NewFilerApp creates a fully wired FilerApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateSnapshot").
// The caller must call Close when done.
func NewFilerApp(cfg *config.Config, operation string) (*FilerApp, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	vaults, err := vault.OpenAll(context.Background(), cfg.Vaults)
	if err != nil {
		return nil, err
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if len(vaults) > 0 && !enc.IsConfigured() {
		return nil, fmt.Errorf("vaults configured but encryption keys missing: run 'filer config encryption init'")
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if err := checkRemoteVersions(db, vaults, cfg.HostID); err != nil {
		db.Close()
		return nil, err
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := filer.NewFilerService(db, fsmgr, logger, filer.RealClock{})
	svc.SetHashWorkers(cfg.Create.HashWorkers)

	return &FilerApp{
		cfg:       cfg,
		db:        db,
		vaults:    vaults,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(operation, ""),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// checkRemoteVersions refuses to run against a local database that is older
// than an export already stored in any vault.
func checkRemoteVersions(db filer.Database, vaults []filer.Vault, hostID string) error {
	if len(vaults) == 0 {
		return nil
	}

	localMax, err := db.MaxOperationID()
	if err != nil {
		return fmt.Errorf("checking local metadata version: %w", err)
	}

	for _, v := range vaults {
		remoteVersion, err := v.GetMetadataVersion(hostID, metadataName)
		if err != nil {
			return fmt.Errorf("checking remote metadata version in vault %s: %w", v.Name(), err)
		}
		if remoteVersion > localMax {
			return fmt.Errorf("local database is behind vault %s (local=%d, remote=%d): run 'filer vault pull'", v.Name(), localMax, remoteVersion)
		}
	}
	return nil
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for DB-mutating commands.
func (a *FilerApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// CreateSnapshot records a new snapshot of the directory at rawPath.
func (a *FilerApp) CreateSnapshot(rawPath string) (*sqlc.Snapshot, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation(absPath); err != nil {
		return nil, err
	}

	snapshot, err := a.service.CreateSnapshot(filer.CreateRequest{Path: absPath})
	a.op.Record(err)
	return snapshot, err
}

// ListSnapshots returns the snapshots recorded for rawPath. The path does
// not need to exist on disk.
func (a *FilerApp) ListSnapshots(rawPath string) ([]filer.SnapshotListItem, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.ListSnapshots(filer.ListRequest{Path: absPath})
}

// RestoreSnapshot writes snapshot number of rawPath to rawOutput, or to the
// default sibling directory when rawOutput is empty. Returns the output path.
func (a *FilerApp) RestoreSnapshot(rawPath string, number int64, rawOutput string) (string, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	var output string
	if rawOutput != "" {
		output, err = filepath.Abs(rawOutput)
		if err != nil {
			return "", fmt.Errorf("resolving output path: %w", err)
		}
	}

	return a.service.RestoreSnapshot(filer.RestoreRequest{
		Path:       absPath,
		Number:     number,
		OutputPath: output,
	})
}

// PruneSnapshot deletes snapshot number of rawPath along with any content
// no other snapshot references.
func (a *FilerApp) PruneSnapshot(rawPath string, number int64) (bool, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return false, fmt.Errorf("resolving path: %w", err)
	}
	if err := a.persistOperation(fmt.Sprintf("%s#%d", absPath, number)); err != nil {
		return false, err
	}

	ok, err := a.service.PruneSnapshot(filer.PruneRequest{Path: absPath, Number: number})
	a.op.Record(err)
	return ok, err
}

// VerifySnapshot re-hashes the stored content of snapshot number of rawPath.
func (a *FilerApp) VerifySnapshot(rawPath string, number int64) (*filer.VerifyReport, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.VerifySnapshot(filer.VerifyRequest{Path: absPath, Number: number})
}

// GetHistory returns the most recent mutating operations, newest first.
func (a *FilerApp) GetHistory(limit int) ([]*sqlc.Operation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return a.db.ListOperations(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, exports the DB,
// and uploads the encrypted export to every vault.
// For non-persisted operations: just closes the database.
func (a *FilerApp) Close() error {
	var errs []error

	var exportPath string
	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			errs = append(errs, fmt.Errorf("finishing operation: %w", err))
		}

		if len(a.vaults) > 0 {
			path, err := a.exportDatabase()
			if err != nil {
				errs = append(errs, err)
			} else {
				exportPath = path
			}
		}
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}

	if exportPath != "" {
		for _, v := range a.vaults {
			if err := a.uploadMetadata(v, exportPath, a.op.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			a.logger.Info("metadata uploaded", "vault", v.Name(), "version", a.op.ID)
		}
		os.Remove(exportPath)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return errors.Join(errs...)
}

// exportDatabase writes a consistent copy of the database to a temp file and
// encrypts it into a second temp file whose path is returned.
func (a *FilerApp) exportDatabase() (string, error) {
	plainFile, err := os.CreateTemp("", "filer-db-export-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for db export: %w", err)
	}
	plainPath := plainFile.Name()
	plainFile.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(plainPath)
	defer os.Remove(plainPath)

	if err := a.db.BackupTo(plainPath); err != nil {
		return "", fmt.Errorf("exporting database: %w", err)
	}

	src, err := os.Open(plainPath)
	if err != nil {
		return "", fmt.Errorf("opening db export: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "filer-db-export-*.age")
	if err != nil {
		return "", fmt.Errorf("creating temp file for encrypted export: %w", err)
	}
	if err := a.encryptor.Encrypt(src, dst); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("encrypting db export: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("closing encrypted export: %w", err)
	}
	return dst.Name(), nil
}

// uploadMetadata uploads the encrypted export at path to v.
func (a *FilerApp) uploadMetadata(v filer.Vault, path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db export for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db export: %w", err)
	}

	if err := v.PutMetadata(a.cfg.HostID, metadataName, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading metadata to vault %s: %w", v.Name(), err)
	}
	return nil
}

// PullMetadata downloads the newest export from the named vault (the first
// vault when vaultName is empty), decrypts it with passphrase, and installs
// it as the local database. The previous database file, if any, is kept
// alongside with a .bak suffix. Returns the installed path.
func PullMetadata(cfg *config.Config, vaultName, passphrase string) (string, error) {
	dbPath, err := database.FilePath(cfg.Database, cfg.HostID)
	if err != nil {
		return "", err
	}

	vc, err := selectVault(cfg.Vaults, vaultName)
	if err != nil {
		return "", err
	}
	v, err := vault.Open(context.Background(), vc)
	if err != nil {
		return "", fmt.Errorf("creating vault %s: %w", vc.Name, err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return "", fmt.Errorf("unlocking private key: %w", err)
	}

	var ciphertext bytes.Buffer
	if err := v.GetMetadata(cfg.HostID, metadataName, &ciphertext); err != nil {
		return "", fmt.Errorf("downloading metadata from vault %s: %w", v.Name(), err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return "", fmt.Errorf("creating data_dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dbPath), ".filer-pull-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := dc.Decrypt(&ciphertext, tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("decrypting metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := checkPulledDatabase(cfg.Database.Type, tmpPath); err != nil {
		return "", err
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := os.Rename(dbPath, dbPath+".bak"); err != nil {
			return "", fmt.Errorf("keeping previous database: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		return "", fmt.Errorf("installing database: %w", err)
	}
	return dbPath, nil
}

// checkPulledDatabase opens a downloaded database and confirms its schema
// is current before it replaces the local one.
func checkPulledDatabase(dbType, path string) error {
	open := database.NewSQLiteDatabase
	if dbType == "sqlite-purego" {
		open = database.NewPureGoSQLiteDatabase
	}
	db, err := open(path)
	if err != nil {
		return fmt.Errorf("opening pulled database: %w", err)
	}
	defer db.Close()
	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("pulled database schema: %w", err)
	}
	return nil
}

func selectVault(vaults []config.VaultConfig, name string) (config.VaultConfig, error) {
	if len(vaults) == 0 {
		return config.VaultConfig{}, fmt.Errorf("no vaults configured")
	}
	if name == "" {
		return vaults[0], nil
	}
	for _, vc := range vaults {
		if vc.Name == name {
			return vc, nil
		}
	}
	return config.VaultConfig{}, fmt.Errorf("vault %q not configured", name)
}

// ValidateVaults checks that every configured vault is reachable and usable.
// It returns the names of the vaults that passed along with any failures.
func ValidateVaults(cfg *config.Config) ([]string, error) {
	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}

	var (
		ok   []string
		errs []error
	)
	for _, vc := range cfg.Vaults {
		v, err := vault.Open(context.Background(), vc)
		if err != nil {
			errs = append(errs, fmt.Errorf("creating vault %s: %w", vc.Name, err))
			continue
		}
		if err := v.ValidateSetup(); err != nil {
			errs = append(errs, fmt.Errorf("vault %s: %w", vc.Name, err))
			continue
		}
		ok = append(ok, v.Name())
	}
	return ok, errors.Join(errs...)
}
