package filer

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Scan walks root depth-first and returns every file and directory
	// beneath it (root excluded) as relative entries. Any unreadable entry
	// fails the whole scan.
	Scan(root *Path) ([]Entry, error)

	// ReadDir returns the names in a directory. A missing directory yields
	// an error matching fs.ErrNotExist.
	ReadDir(path string) ([]string, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// WriteFile creates a new file with the given content.
	// It fails if the file already exists.
	WriteFile(path string, content []byte) error
}
