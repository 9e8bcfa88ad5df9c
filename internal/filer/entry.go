package filer

import (
	"sort"
	"strings"
)

// Separator is the path separator used in entry and object names,
// independent of the host operating system.
const Separator = "/"

// Entry is a single item produced by a tree scan.
// RelativePath never contains the scanned root. Directory entries end in
// Separator and carry no content; file entries carry the full file bytes.
type Entry struct {
	RelativePath string
	Content      []byte
}

// IsDir reports whether the entry is a directory marker.
func (e Entry) IsDir() bool {
	return IsDirName(e.RelativePath)
}

// IsDirName reports whether an entry or object name denotes a directory.
func IsDirName(name string) bool {
	return strings.HasSuffix(name, Separator)
}

// Depth returns the number of separator-delimited segments in name.
// "a/" and "a.txt" have depth 1, "a/b/" and "a/b.txt" have depth 2.
func Depth(name string) int {
	trimmed := strings.Trim(name, Separator)
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, Separator) + 1
}

// SortByDepth orders names so that every name comes after all names of
// smaller depth. Names of equal depth keep their relative order.
func SortByDepth[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return Depth(name(items[i])) < Depth(name(items[j]))
	})
}

// partitionEntries splits a scan into file and directory entries,
// preserving scan order within each group.
func partitionEntries(entries []Entry) (files, dirs []Entry) {
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	return files, dirs
}
