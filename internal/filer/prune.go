package filer

import "fmt"

// PruneSnapshot deletes snapshot req.Number of req.Path and every blob that
// no other snapshot references.
//
// The set of blobs safe to delete is computed before anything is removed,
// while the target snapshot's own references are still visible. All
// deletions happen in one transaction.
func (s *FilerService) PruneSnapshot(req PruneRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	path := cleanPath(req.Path)

	var deleted int64
	err := s.database.Transact(func(store Store) error {
		_, snapshot, err := findSnapshot(store, path, req.Number)
		if err != nil {
			return err
		}

		blobIDs, err := store.FindBlobIDsReferencedOnlyBySnapshot(snapshot)
		if err != nil {
			return fmt.Errorf("finding unshared blobs: %w", err)
		}

		if err := store.DeleteSnapshot(snapshot); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}

		deleted, err = store.DeleteBlobs(blobIDs)
		if err != nil {
			return fmt.Errorf("deleting blobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("snapshot pruned", "path", path, "number", req.Number, "blobs_deleted", deleted)
	return true, nil
}
