package filer

import (
	"fmt"
	"path/filepath"

	"filer-go/internal/database/sqlc"
)

// FilerService is the orchestration layer that coordinates the scanner,
// hasher, and record store to create, restore, list, and prune snapshots.
type FilerService struct {
	database    Database
	fsmgr       FilesystemManager
	logger      Logger
	clock       Clock
	hashWorkers int
}

// NewFilerService creates a new FilerService with the provided dependencies.
// The service assumes a single writer per snapshotted directory.
func NewFilerService(database Database, fsmgr FilesystemManager, logger Logger, clock Clock) *FilerService {
	return &FilerService{
		database: database,
		fsmgr:    fsmgr,
		logger:   logger,
		clock:    clock,
	}
}

// SetHashWorkers bounds the number of goroutines hashing file content
// during CreateSnapshot. Zero or less means GOMAXPROCS.
func (s *FilerService) SetHashWorkers(n int) {
	s.hashWorkers = n
}

// findSnapshot looks up a directory by path and one of its snapshots by number.
// Either missing record is reported as ErrNotFound.
func findSnapshot(store Store, path string, number int64) (*sqlc.Directory, *sqlc.Snapshot, error) {
	directory, err := store.FindDirectoryByPath(path)
	if err != nil {
		return nil, nil, fmt.Errorf("finding directory: %w", err)
	}
	if directory == nil {
		return nil, nil, fmt.Errorf("directory %s: %w", path, ErrNotFound)
	}

	snapshot, err := store.FindSnapshotByNumber(directory, number)
	if err != nil {
		return nil, nil, fmt.Errorf("finding snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, nil, fmt.Errorf("snapshot %d for directory %s: %w", number, path, ErrNotFound)
	}

	return directory, snapshot, nil
}

// cleanPath normalizes an already validated absolute path so that lookups
// match the form stored at snapshot time.
func cleanPath(path string) string {
	return filepath.Clean(path)
}
