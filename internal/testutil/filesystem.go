package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filer-go/internal/filer"
)

// MockFile represents a file or directory in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
	// Unreadable makes Scan fail when it reaches this entry.
	Unreadable bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths are absolute, slash-separated, and cleaned.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem containing only "/".
func NewMockFilesystemManager() *MockFilesystemManager {
	m := &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
	m.files["/"] = &MockFile{Permissions: 0755, ModTime: time.Now(), IsDirectory: true}
	return m
}

// AddFile adds a file, creating missing parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.addParents(path)
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory, creating missing parent directories.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.addParents(path)
	m.files[path] = &MockFile{Permissions: 0755, ModTime: time.Now(), IsDirectory: true}
}

// Remove deletes path and everything beneath it. A missing path is ignored.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	for _, name := range m.descendants(path) {
		delete(m.files, filepath.Join(path, name))
	}
	delete(m.files, path)
}

// SetUnreadable marks an existing entry so that scanning it fails.
func (m *MockFilesystemManager) SetUnreadable(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[filepath.Clean(path)]; ok {
		f.Unreadable = true
	}
}

// ReadFile returns the content of a file and whether it exists.
func (m *MockFilesystemManager) ReadFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

// IsDir reports whether path exists and is a directory.
func (m *MockFilesystemManager) IsDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	return ok && f.IsDirectory
}

// Tree returns every entry under root as relative names in scan form:
// directories end in "/" and map to nil, files map to their content.
func (m *MockFilesystemManager) Tree(root string) map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	tree := make(map[string][]byte)
	for _, name := range m.descendants(filepath.Clean(root)) {
		full := filepath.Join(root, name)
		f := m.files[full]
		if f.IsDirectory {
			tree[name+filer.Separator] = nil
		} else {
			tree[name] = f.Content
		}
	}
	return tree
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{Permissions: 0755, ModTime: time.Now(), IsDirectory: true}
		}
		if dir == "/" || dir == "." {
			return
		}
	}
}

// descendants returns the relative names of all entries below root in
// walk order: lexical within a directory, parents before children.
func (m *MockFilesystemManager) descendants(root string) []string {
	prefix := root + "/"
	if root == "/" {
		prefix = "/"
	}
	var names []string
	for p := range m.files {
		if p != root && strings.HasPrefix(p, prefix) {
			names = append(names, strings.TrimPrefix(p, prefix))
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return lessSegments(strings.Split(names[i], "/"), strings.Split(names[j], "/"))
	})
	return names
}

func lessSegments(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*filer.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("stat path: %s: %w", absPath, fs.ErrNotExist)
	}

	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
	return filer.NewPath(absPath, info), nil
}

func (m *MockFilesystemManager) Scan(root *filer.Path) ([]filer.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rootFile, ok := m.files[root.String()]
	if !ok {
		return nil, fmt.Errorf("walking directory: %s: %w", root.String(), fs.ErrNotExist)
	}
	if rootFile.Unreadable {
		return nil, fmt.Errorf("walking directory: %s: %w", root.String(), fs.ErrPermission)
	}

	var entries []filer.Entry
	for _, name := range m.descendants(root.String()) {
		f := m.files[filepath.Join(root.String(), name)]
		if f.Unreadable {
			return nil, fmt.Errorf("walking directory: %s: %w", name, fs.ErrPermission)
		}
		if f.IsDirectory {
			entries = append(entries, filer.Entry{RelativePath: name + filer.Separator})
			continue
		}
		content := f.Content
		if content == nil {
			content = []byte{}
		}
		entries = append(entries, filer.Entry{RelativePath: name, Content: content})
	}
	return entries, nil
}

func (m *MockFilesystemManager) ReadDir(path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)

	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("reading directory: %s: %w", path, fs.ErrNotExist)
	}
	if !f.IsDirectory {
		return nil, fmt.Errorf("reading directory: %s: not a directory", path)
	}

	var names []string
	for _, name := range m.descendants(path) {
		if !strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *MockFilesystemManager) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)

	for p := path; ; p = filepath.Dir(p) {
		if f, ok := m.files[p]; ok && !f.IsDirectory {
			return fmt.Errorf("mkdir %s: not a directory", p)
		}
		if p == "/" || p == "." {
			break
		}
	}
	m.addParents(path)
	if _, ok := m.files[path]; !ok {
		m.files[path] = &MockFile{Permissions: 0755, ModTime: time.Now(), IsDirectory: true}
	}
	return nil
}

func (m *MockFilesystemManager) WriteFile(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)

	if _, ok := m.files[path]; ok {
		return fmt.Errorf("creating file %s: %w", path, fs.ErrExist)
	}
	parent, ok := m.files[filepath.Dir(path)]
	if !ok || !parent.IsDirectory {
		return fmt.Errorf("creating file %s: parent directory missing", path)
	}
	m.files[path] = &MockFile{
		Content:     append([]byte{}, content...),
		Permissions: 0644,
		ModTime:     time.Now(),
	}
	return nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ filer.FilesystemManager = (*MockFilesystemManager)(nil)
