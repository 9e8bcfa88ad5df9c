package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filer-go/internal/filer"
)

// IgnoreFileName is read from the root of every scanned directory for
// extra ignore patterns.
const IgnoreFileName = ".filerignore"

// OSFilesystemManager is the FilesystemManager backed by the host
// filesystem.
type OSFilesystemManager struct {
	ignore []string
}

var _ filer.FilesystemManager = (*OSFilesystemManager)(nil)

// NewOSFilesystemManager takes the configured ignore patterns. Scan adds
// the built-in defaults and the root's .filerignore to them.
func NewOSFilesystemManager(ignore []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignore: ignore}
}

// Resolve makes rawPath absolute and stats it, following symlinks.
// Devices, pipes and sockets are rejected.
func (m *OSFilesystemManager) Resolve(rawPath string) (*filer.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if info.Mode()&(os.ModeDevice|os.ModeNamedPipe|os.ModeSocket) != 0 {
		return nil, fmt.Errorf("%s is a %v, only files and directories are supported", absPath, info.Mode().Type())
	}

	return filer.NewPath(absPath, info), nil
}

// Scan walks root depth-first in lexical order and returns every regular
// file and directory beneath it. Symlinks, devices, sockets and pipes are
// skipped. Any read error aborts the scan.
func (m *OSFilesystemManager) Scan(root *filer.Path) ([]filer.Entry, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root.String())
	}

	// WalkDir does not descend through a symlinked root, so walk its
	// target. Entry names stay relative, and the snapshot stays keyed by
	// the path the caller gave.
	walkRoot, err := filepath.EvalSymlinks(root.String())
	if err != nil {
		return nil, fmt.Errorf("resolving symlinks in %s: %w", root.String(), err)
	}

	matcher, err := m.matcherFor(walkRoot)
	if err != nil {
		return nil, err
	}

	var entries []filer.Entry
	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == walkRoot {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		name := filepath.ToSlash(rel)

		if matcher.Match(name, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			entries = append(entries, filer.Entry{RelativePath: name + filer.Separator})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if content == nil {
			content = []byte{}
		}
		entries = append(entries, filer.Entry{RelativePath: name, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return entries, nil
}

// matcherFor combines the configured and per-root ignore patterns. The
// ignore file itself is captured like any other file.
func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	patterns := append([]string{}, m.ignore...)

	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, filePatterns...)

	return NewIgnoreMatcher(patterns), nil
}

// ReadDir returns the entry names in a directory.
func (m *OSFilesystemManager) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// MkdirAll creates a directory and any missing parents.
func (m *OSFilesystemManager) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteFile creates path with content. It never overwrites an existing file.
func (m *OSFilesystemManager) WriteFile(path string, content []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("refusing to overwrite %s: %w", path, fs.ErrExist)
		}
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
