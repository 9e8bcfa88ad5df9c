package filer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"filer-go/internal/database/sqlc"
)

// restoreTimeFormat names default restore targets after the snapshot time.
const restoreTimeFormat = "20060102T150405Z"

// RestoreSnapshot materializes snapshot req.Number of req.Path under
// req.OutputPath and returns the output path.
//
// The target must not exist or must be an empty directory. Directory
// entries are created before any of their descendants by ordering on path
// depth. File contents are the exact bytes of each object's blob.
func (s *FilerService) RestoreSnapshot(req RestoreRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	path := cleanPath(req.Path)

	var (
		snapshot *sqlc.Snapshot
		objects  []*StoredObject
	)
	err := s.database.Transact(func(store Store) error {
		var err error
		_, snapshot, err = findSnapshot(store, path, req.Number)
		if err != nil {
			return err
		}
		objects, err = store.FindObjectsWithBlobs(snapshot)
		if err != nil {
			return fmt.Errorf("loading objects: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = defaultRestorePath(path, snapshot)
	}
	outputPath = cleanPath(outputPath)

	s.logger.Info("restore started", "path", path, "number", snapshot.Number, "output", outputPath)

	if err := s.checkRestoreTarget(outputPath); err != nil {
		return "", err
	}
	if err := s.fsmgr.MkdirAll(outputPath); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	SortByDepth(objects, func(o *StoredObject) string { return o.Name })

	for _, obj := range objects {
		target, err := restoreTarget(outputPath, obj.Name)
		if err != nil {
			return "", err
		}

		if IsDirName(obj.Name) {
			if err := s.fsmgr.MkdirAll(target); err != nil {
				return "", fmt.Errorf("creating directory %s: %w", obj.Name, err)
			}
			continue
		}

		if !obj.BlobID.Valid {
			return "", fmt.Errorf("file object %s has no blob", obj.Name)
		}
		if err := s.fsmgr.MkdirAll(filepath.Dir(target)); err != nil {
			return "", fmt.Errorf("creating parent directory for %s: %w", obj.Name, err)
		}
		if err := s.fsmgr.WriteFile(target, obj.Data); err != nil {
			return "", fmt.Errorf("writing file %s: %w", obj.Name, err)
		}
		s.logger.Debug("file restored", "name", obj.Name)
	}

	s.logger.Info("restore complete", "path", path, "number", snapshot.Number, "objects", len(objects))
	return outputPath, nil
}

// checkRestoreTarget accepts a missing path or an empty directory.
func (s *FilerService) checkRestoreTarget(outputPath string) error {
	names, err := s.fsmgr.ReadDir(outputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking output directory: %w", err)
	}
	if len(names) > 0 {
		return fmt.Errorf("output directory is not empty: %s", outputPath)
	}
	return nil
}

// restoreTarget joins an object name onto the output directory, rejecting
// names that would escape it.
func restoreTarget(outputPath, name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimSuffix(name, Separator))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object name escapes output directory: %q", name)
	}
	return filepath.Join(outputPath, rel), nil
}

// defaultRestorePath returns {path}_{snapshot time}, a sibling of the
// snapshotted directory.
func defaultRestorePath(path string, snapshot *sqlc.Snapshot) string {
	return path + "_" + snapshot.CreatedAt.UTC().Format(restoreTimeFormat)
}
