package filer_test

import (
	"errors"
	"testing"

	"filer-go/internal/database/sqlc"
	"filer-go/internal/filer"
	"filer-go/internal/testutil"
)

type testEnv struct {
	svc   *filer.FilerService
	db    filer.Database
	fsmgr *testutil.MockFilesystemManager
	clock *testutil.StubClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	fsmgr := testutil.NewMockFilesystemManager()
	clock := testutil.FixedClock()
	return &testEnv{
		svc:   filer.NewFilerService(db, fsmgr, filer.NewNopLogger(), clock),
		db:    db,
		fsmgr: fsmgr,
		clock: clock,
	}
}

// withDatabase rebuilds the service on top of a wrapped database.
func (e *testEnv) withDatabase(db filer.Database) *filer.FilerService {
	return filer.NewFilerService(db, e.fsmgr, filer.NewNopLogger(), e.clock)
}

func (e *testEnv) snapshot(t *testing.T, path string) *sqlc.Snapshot {
	t.Helper()
	snap, err := e.svc.CreateSnapshot(filer.CreateRequest{Path: path})
	if err != nil {
		t.Fatalf("CreateSnapshot(%s) error = %v", path, err)
	}
	return snap
}

func (e *testEnv) countBlobs(t *testing.T) int64 {
	t.Helper()
	n, err := e.db.CountBlobs()
	if err != nil {
		t.Fatalf("CountBlobs() error = %v", err)
	}
	return n
}

// failingDatabase wraps a Database so that stores handed to Transact fail
// on CreateObjects.
type failingDatabase struct {
	filer.Database
}

func (d failingDatabase) Transact(fn func(filer.Store) error) error {
	return d.Database.Transact(func(s filer.Store) error {
		return fn(failingStore{s})
	})
}

type failingStore struct {
	filer.Store
}

var errInjected = errors.New("injected failure")

func (failingStore) CreateObjects(*sqlc.Snapshot, []filer.NewObject) error {
	return errInjected
}

// corruptingDatabase wraps a Database so that the first blob returned by
// FindBlobsBySnapshot has altered content.
type corruptingDatabase struct {
	filer.Database
}

func (d corruptingDatabase) Transact(fn func(filer.Store) error) error {
	return d.Database.Transact(func(s filer.Store) error {
		return fn(corruptingStore{s})
	})
}

type corruptingStore struct {
	filer.Store
}

func (s corruptingStore) FindBlobsBySnapshot(snapshot *sqlc.Snapshot) ([]*sqlc.Blob, error) {
	blobs, err := s.Store.FindBlobsBySnapshot(snapshot)
	if err != nil || len(blobs) == 0 {
		return blobs, err
	}
	bad := *blobs[0]
	bad.Data = append(append([]byte{}, bad.Data...), '!')
	blobs[0] = &bad
	return blobs, nil
}
