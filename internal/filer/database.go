package filer

import (
	"database/sql"
	"time"

	"filer-go/internal/database/sqlc"
)

// NewBlob is content queued for insertion into the blob store.
type NewBlob struct {
	Hash string
	Data []byte
}

// BlobRef identifies a stored blob without carrying its data.
type BlobRef struct {
	ID   int64
	Hash string
}

// NewObject is a tree entry queued for insertion under a snapshot.
// Directory markers have an invalid BlobID.
type NewObject struct {
	Name   string
	BlobID sql.NullInt64
}

// StoredObject is an object loaded together with its blob content.
type StoredObject struct {
	ID     int64
	Name   string
	BlobID sql.NullInt64
	Hash   string
	Data   []byte
}

// Store is the record and blob store seen by the snapshot engines.
// Methods returning a single record return nil and no error when the
// record does not exist.
type Store interface {
	// Directory operations

	// FindDirectoryByPath returns a directory with an exact path match.
	FindDirectoryByPath(path string) (*sqlc.Directory, error)

	// FindOrCreateDirectory returns the directory for path, creating it on first use.
	FindOrCreateDirectory(path string, createdAt time.Time) (*sqlc.Directory, error)

	// Snapshot operations

	// NextSnapshotNumber advances and returns the directory's snapshot sequence.
	// Numbers start at 1 and are never handed out twice, even after pruning.
	NextSnapshotNumber(directory *sqlc.Directory) (int64, error)

	// CreateSnapshot inserts a snapshot row.
	CreateSnapshot(directory *sqlc.Directory, number int64, createdAt time.Time) (*sqlc.Snapshot, error)

	// FindSnapshotByNumber returns the directory's snapshot with the given number.
	FindSnapshotByNumber(directory *sqlc.Directory, number int64) (*sqlc.Snapshot, error)

	// FindSnapshotsByDirectory returns all snapshots of a directory ordered by number.
	FindSnapshotsByDirectory(directory *sqlc.Directory) ([]*sqlc.Snapshot, error)

	// DeleteSnapshot deletes a snapshot together with all of its objects.
	DeleteSnapshot(snapshot *sqlc.Snapshot) error

	// Object operations

	// CreateObjects inserts all objects of a snapshot.
	CreateObjects(snapshot *sqlc.Snapshot, objects []NewObject) error

	// FindObjectsWithBlobs returns the snapshot's objects joined with blob content.
	FindObjectsWithBlobs(snapshot *sqlc.Snapshot) ([]*StoredObject, error)

	// Blob operations

	// FindBlobsByHashes returns the blobs among hashes that exist anywhere in the store.
	FindBlobsByHashes(hashes []string) ([]BlobRef, error)

	// CreateBlobs inserts blobs whose hash is not yet stored and returns their refs.
	// An empty input is a no-op.
	CreateBlobs(blobs []NewBlob) ([]BlobRef, error)

	// FindBlobIDsReferencedOnlyBySnapshot returns the distinct blob ids referenced
	// by the snapshot and by no object of any other snapshot.
	FindBlobIDsReferencedOnlyBySnapshot(snapshot *sqlc.Snapshot) ([]int64, error)

	// FindBlobsBySnapshot returns the distinct blobs referenced by a snapshot.
	FindBlobsBySnapshot(snapshot *sqlc.Snapshot) ([]*sqlc.Blob, error)

	// DeleteBlobs deletes blobs by id and returns how many were removed.
	DeleteBlobs(ids []int64) (int64, error)

	// CountBlobs returns the number of blobs in the store.
	CountBlobs() (int64, error)
}

// Database provides the Store plus transactions, operation tracking, and
// lifecycle management. Implementations hold an explicitly opened handle
// that must be released with Close.
type Database interface {
	Store

	// Transact runs fn inside a single transaction. The transaction commits
	// if fn returns nil and rolls back otherwise. fn must use only the Store
	// it is given.
	Transact(fn func(store Store) error) error

	// Operation tracking

	// CreateOperation records the start of a CLI operation.
	CreateOperation(operation string, parameters string) (*sqlc.Operation, error)

	// FinishOperation records the end of an operation with its status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*sqlc.Operation, error)

	// MaxOperationID returns the highest operation id, or 0 if none exist.
	MaxOperationID() (int64, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
