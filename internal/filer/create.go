package filer

import (
	"database/sql"
	"fmt"

	"filer-go/internal/database/sqlc"
)

// CreateSnapshot scans the directory at req.Path and records its full tree
// as the directory's next numbered snapshot.
//
// Content is deduplicated against every blob in the store, not only the
// directory's own history. The scan and hashing happen before any row is
// written; all rows are then written in one transaction, so a failure
// leaves no partially visible snapshot.
func (s *FilerService) CreateSnapshot(req CreateRequest) (*sqlc.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	root, err := s.fsmgr.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root.String())
	}

	s.logger.Info("snapshot started", "path", root.String())

	entries, err := s.fsmgr.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}

	files, dirs := partitionEntries(entries)
	hashes := HashEntries(files, s.hashWorkers)

	var (
		snapshot *sqlc.Snapshot
		reused   int
		created  int
	)
	err = s.database.Transact(func(store Store) error {
		directory, err := store.FindOrCreateDirectory(root.String(), s.clock.Now())
		if err != nil {
			return fmt.Errorf("resolving directory record: %w", err)
		}

		number, err := store.NextSnapshotNumber(directory)
		if err != nil {
			return fmt.Errorf("allocating snapshot number: %w", err)
		}

		snapshot, err = store.CreateSnapshot(directory, number, s.clock.Now())
		if err != nil {
			return fmt.Errorf("creating snapshot: %w", err)
		}

		existing, err := store.FindBlobsByHashes(distinctHashes(hashes))
		if err != nil {
			return fmt.Errorf("finding existing blobs: %w", err)
		}
		blobIDs := make(map[string]int64, len(hashes))
		for _, b := range existing {
			blobIDs[b.Hash] = b.ID
		}
		reused = len(existing)

		// One new blob per distinct missing hash, even when several files
		// in this tree share the same new content.
		var pending []NewBlob
		queued := make(map[string]bool)
		for _, f := range files {
			hash := hashes[f.RelativePath]
			if _, ok := blobIDs[hash]; ok || queued[hash] {
				continue
			}
			queued[hash] = true
			pending = append(pending, NewBlob{Hash: hash, Data: f.Content})
		}

		newBlobs, err := store.CreateBlobs(pending)
		if err != nil {
			return fmt.Errorf("creating blobs: %w", err)
		}
		for _, b := range newBlobs {
			blobIDs[b.Hash] = b.ID
		}
		created = len(newBlobs)

		objects := make([]NewObject, 0, len(entries))
		for _, e := range entries {
			obj := NewObject{Name: e.RelativePath}
			if !e.IsDir() {
				id, ok := blobIDs[hashes[e.RelativePath]]
				if !ok {
					return fmt.Errorf("no blob resolved for %s", e.RelativePath)
				}
				obj.BlobID = sql.NullInt64{Int64: id, Valid: true}
			}
			objects = append(objects, obj)
		}

		if err := store.CreateObjects(snapshot, objects); err != nil {
			return fmt.Errorf("creating objects: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot created",
		"path", root.String(),
		"number", snapshot.Number,
		"files", len(files),
		"directories", len(dirs),
		"new_blobs", created,
		"reused_blobs", reused,
	)
	return snapshot, nil
}
