package filer

import (
	"fmt"
	"time"
)

// SnapshotListItem is one row of a snapshot listing.
type SnapshotListItem struct {
	Number int64
	Date   time.Time
}

// ListSnapshots returns the snapshots of req.Path ordered by number.
// A directory that was never snapshotted has no snapshots.
func (s *FilerService) ListSnapshots(req ListRequest) ([]SnapshotListItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path := cleanPath(req.Path)

	directory, err := s.database.FindDirectoryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("finding directory: %w", err)
	}
	if directory == nil {
		return []SnapshotListItem{}, nil
	}

	snapshots, err := s.database.FindSnapshotsByDirectory(directory)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	items := make([]SnapshotListItem, len(snapshots))
	for i, snap := range snapshots {
		items[i] = SnapshotListItem{Number: snap.Number, Date: snap.CreatedAt}
	}
	return items, nil
}
