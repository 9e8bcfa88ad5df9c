package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"filer-go/internal/database/migrations"
	"filer-go/internal/database/sqlc"
	"filer-go/internal/filer"

	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
	_ "modernc.org/sqlite"          // SQLite driver (pure Go)
)

const (
	// DriverCGo is the database/sql driver name registered by mattn/go-sqlite3.
	DriverCGo = "sqlite3"
	// DriverPureGo is the database/sql driver name registered by modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// maxSliceParams keeps IN (...) lists well under SQLite's bound variable limit.
const maxSliceParams = 500

// sqliteStore implements filer.Store on top of a sqlc query set. The same
// type serves both the plain connection and a transaction.
type sqliteStore struct {
	db      sqlc.DBTX
	queries *sqlc.Queries
}

// SQLiteDatabase implements the filer.Database interface using SQLite.
type SQLiteDatabase struct {
	*sqliteStore
	db     *sql.DB
	driver string
	path   string
}

// NewSQLiteDatabase opens a SQLite database using the cgo driver.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return newSQLiteDatabase(db, DriverCGo, path), nil
}

// NewPureGoSQLiteDatabase opens a SQLite database using the pure Go driver,
// for builds without cgo.
func NewPureGoSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenPureGoConnection(path)
	if err != nil {
		return nil, err
	}
	return newSQLiteDatabase(db, DriverPureGo, path), nil
}

// NewSQLiteDatabaseFromDB wraps an existing cgo-driver connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return newSQLiteDatabase(db, DriverCGo, "")
}

func newSQLiteDatabase(db *sql.DB, driver, path string) *SQLiteDatabase {
	return &SQLiteDatabase{
		sqliteStore: &sqliteStore{db: db, queries: sqlc.New(db)},
		db:          db,
		driver:      driver,
		path:        path,
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	return openConnection(DriverCGo, path)
}

// OpenPureGoConnection is OpenConnection for the pure Go driver.
func OpenPureGoConnection(path string) (*sql.DB, error) {
	return openConnection(DriverPureGo, path)
}

func openConnection(driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases and per-connection PRAGMAs
	// stable for the lifetime of the handle.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Transact runs fn in a single transaction. Only one connection is open,
// so fn must not call methods on s itself.
func (s *SQLiteDatabase) Transact(fn func(store filer.Store) error) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteStore{db: tx, queries: s.queries.WithTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Directory operations

func (s *sqliteStore) FindDirectoryByPath(path string) (*sqlc.Directory, error) {
	dir, err := s.queries.GetDirectoryByPath(context.Background(), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding directory by path: %w", err)
	}
	return &dir, nil
}

func (s *sqliteStore) FindOrCreateDirectory(path string, createdAt time.Time) (*sqlc.Directory, error) {
	dir, err := s.FindDirectoryByPath(path)
	if err != nil {
		return nil, err
	}
	if dir != nil {
		return dir, nil
	}

	newDir, err := s.queries.InsertDirectory(context.Background(), sqlc.InsertDirectoryParams{
		Path:      path,
		CreatedAt: createdAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	return &newDir, nil
}

// Snapshot operations

func (s *sqliteStore) NextSnapshotNumber(directory *sqlc.Directory) (int64, error) {
	number, err := s.queries.IncrementSnapshotSequence(context.Background(), directory.ID)
	if err != nil {
		return 0, fmt.Errorf("incrementing snapshot sequence: %w", err)
	}
	return number, nil
}

func (s *sqliteStore) CreateSnapshot(directory *sqlc.Directory, number int64, createdAt time.Time) (*sqlc.Snapshot, error) {
	snapshot, err := s.queries.InsertSnapshot(context.Background(), sqlc.InsertSnapshotParams{
		DirectoryID: directory.ID,
		Number:      number,
		CreatedAt:   createdAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *sqliteStore) FindSnapshotByNumber(directory *sqlc.Directory, number int64) (*sqlc.Snapshot, error) {
	snapshot, err := s.queries.GetSnapshotByDirectoryAndNumber(context.Background(), sqlc.GetSnapshotByDirectoryAndNumberParams{
		DirectoryID: directory.ID,
		Number:      number,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding snapshot by number: %w", err)
	}
	return &snapshot, nil
}

func (s *sqliteStore) FindSnapshotsByDirectory(directory *sqlc.Directory) ([]*sqlc.Snapshot, error) {
	snapshots, err := s.queries.GetSnapshotsByDirectoryID(context.Background(), directory.ID)
	if err != nil {
		return nil, fmt.Errorf("finding snapshots by directory: %w", err)
	}

	result := make([]*sqlc.Snapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

func (s *sqliteStore) DeleteSnapshot(snapshot *sqlc.Snapshot) error {
	// Objects go with it through ON DELETE CASCADE.
	if err := s.queries.DeleteSnapshotByID(context.Background(), snapshot.ID); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// Object operations

func (s *sqliteStore) CreateObjects(snapshot *sqlc.Snapshot, objects []filer.NewObject) error {
	ctx := context.Background()
	for _, obj := range objects {
		err := s.queries.InsertObject(ctx, sqlc.InsertObjectParams{
			SnapshotID: snapshot.ID,
			Name:       obj.Name,
			BlobID:     obj.BlobID,
		})
		if err != nil {
			return fmt.Errorf("creating object %s: %w", obj.Name, err)
		}
	}
	return nil
}

func (s *sqliteStore) FindObjectsWithBlobs(snapshot *sqlc.Snapshot) ([]*filer.StoredObject, error) {
	rows, err := s.queries.GetObjectsWithBlobsBySnapshotID(context.Background(), snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("finding objects by snapshot: %w", err)
	}

	result := make([]*filer.StoredObject, len(rows))
	for i, row := range rows {
		result[i] = &filer.StoredObject{
			ID:     row.ID,
			Name:   row.Name,
			BlobID: row.BlobID,
			Hash:   row.Hash.String,
			Data:   row.Data,
		}
	}
	return result, nil
}

// Blob operations

func (s *sqliteStore) FindBlobsByHashes(hashes []string) ([]filer.BlobRef, error) {
	ctx := context.Background()
	var result []filer.BlobRef
	for _, batch := range chunk(hashes, maxSliceParams) {
		rows, err := s.queries.GetBlobRefsByHashes(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("finding blobs by hashes: %w", err)
		}
		for _, row := range rows {
			result = append(result, filer.BlobRef{ID: row.ID, Hash: row.Hash})
		}
	}
	return result, nil
}

// blobColumns is the number of bound parameters per row in insertBlobsSQL.
const blobColumns = 2

func (s *sqliteStore) CreateBlobs(blobs []filer.NewBlob) ([]filer.BlobRef, error) {
	ctx := context.Background()
	result := make([]filer.BlobRef, 0, len(blobs))
	for _, batch := range chunk(blobs, maxSliceParams/blobColumns) {
		refs, err := s.insertBlobs(ctx, batch)
		if err != nil {
			return nil, err
		}
		result = append(result, refs...)
	}
	return result, nil
}

// insertBlobs writes one batch in a single statement. Rows whose hash is
// already stored are skipped by ON CONFLICT and read back afterwards.
func (s *sqliteStore) insertBlobs(ctx context.Context, batch []filer.NewBlob) ([]filer.BlobRef, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO blobs (hash, data) VALUES ")
	args := make([]any, 0, len(batch)*blobColumns)
	for i, b := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		data := b.Data
		if data == nil {
			// A nil slice binds as NULL; empty files still need a stored blob.
			data = []byte{}
		}
		args = append(args, b.Hash, data)
	}
	sb.WriteString(" ON CONFLICT (hash) DO NOTHING RETURNING id, hash")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("creating blobs: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool, len(batch))
	refs := make([]filer.BlobRef, 0, len(batch))
	for rows.Next() {
		var ref filer.BlobRef
		if err := rows.Scan(&ref.ID, &ref.Hash); err != nil {
			return nil, fmt.Errorf("reading created blob: %w", err)
		}
		seen[ref.Hash] = true
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("creating blobs: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("creating blobs: %w", err)
	}

	var skipped []string
	for _, b := range batch {
		if !seen[b.Hash] {
			seen[b.Hash] = true
			skipped = append(skipped, b.Hash)
		}
	}
	if len(skipped) == 0 {
		return refs, nil
	}
	existing, err := s.queries.GetBlobRefsByHashes(ctx, skipped)
	if err != nil {
		return nil, fmt.Errorf("reading existing blobs: %w", err)
	}
	for _, row := range existing {
		refs = append(refs, filer.BlobRef{ID: row.ID, Hash: row.Hash})
	}
	return refs, nil
}

func (s *sqliteStore) FindBlobIDsReferencedOnlyBySnapshot(snapshot *sqlc.Snapshot) ([]int64, error) {
	rows, err := s.queries.GetBlobIDsReferencedOnlyBySnapshot(context.Background(), snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("finding unshared blobs: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, id := range rows {
		if id.Valid {
			ids = append(ids, id.Int64)
		}
	}
	return ids, nil
}

func (s *sqliteStore) FindBlobsBySnapshot(snapshot *sqlc.Snapshot) ([]*sqlc.Blob, error) {
	blobs, err := s.queries.GetBlobsBySnapshotID(context.Background(), snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("finding blobs by snapshot: %w", err)
	}

	result := make([]*sqlc.Blob, len(blobs))
	for i := range blobs {
		result[i] = &blobs[i]
	}
	return result, nil
}

func (s *sqliteStore) DeleteBlobs(ids []int64) (int64, error) {
	ctx := context.Background()
	var total int64
	for _, batch := range chunk(ids, maxSliceParams) {
		res, err := s.queries.DeleteBlobsByIDs(ctx, batch)
		if err != nil {
			return total, fmt.Errorf("deleting blobs: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("counting deleted blobs: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *sqliteStore) CountBlobs() (int64, error) {
	n, err := s.queries.CountBlobs(context.Background())
	if err != nil {
		return 0, fmt.Errorf("counting blobs: %w", err)
	}
	return n, nil
}

// chunk splits items into consecutive batches of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var batches [][]T
	for len(items) > size {
		batches = append(batches, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		batches = append(batches, items)
	}
	return batches
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*sqlc.Operation, error) {
	op, err := s.queries.InsertOperation(context.Background(), sqlc.InsertOperationParams{
		StartedAt:  time.Now().UTC(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	err := s.queries.UpdateOperationFinished(context.Background(), sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*sqlc.Operation, error) {
	ops, err := s.queries.GetOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	result := make([]*sqlc.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to the latest version.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.Up(s.db, s.driver)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.Check(s.db, s.driver)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements filer.Database interface
var _ filer.Database = (*SQLiteDatabase)(nil)
