package filer

import "fmt"

// VerifyReport summarizes a blob integrity check of one snapshot.
type VerifyReport struct {
	Number  int64
	Objects int
	Blobs   int
	// Corrupt lists the stored hashes whose data no longer hashes to them.
	Corrupt []string
}

// OK reports whether every blob matched its hash.
func (r *VerifyReport) OK() bool {
	return len(r.Corrupt) == 0
}

// VerifySnapshot re-hashes every blob referenced by snapshot req.Number of
// req.Path and reports any whose content does not match its stored hash.
func (s *FilerService) VerifySnapshot(req VerifyRequest) (*VerifyReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path := cleanPath(req.Path)

	report := &VerifyReport{Number: req.Number}
	err := s.database.Transact(func(store Store) error {
		_, snapshot, err := findSnapshot(store, path, req.Number)
		if err != nil {
			return err
		}

		objects, err := store.FindObjectsWithBlobs(snapshot)
		if err != nil {
			return fmt.Errorf("loading objects: %w", err)
		}
		report.Objects = len(objects)

		blobs, err := store.FindBlobsBySnapshot(snapshot)
		if err != nil {
			return fmt.Errorf("loading blobs: %w", err)
		}
		report.Blobs = len(blobs)

		for _, b := range blobs {
			if HashContent(b.Data) != b.Hash {
				report.Corrupt = append(report.Corrupt, b.Hash)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.OK() {
		s.logger.Warn("snapshot verification failed", "path", path, "number", req.Number, "corrupt", len(report.Corrupt))
	} else {
		s.logger.Info("snapshot verified", "path", path, "number", req.Number, "blobs", report.Blobs)
	}
	return report, nil
}
