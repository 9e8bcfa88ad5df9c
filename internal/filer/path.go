package filer

import "io/fs"

// Path is an absolute location that FilesystemManager.Resolve has already
// stat'ed. Holding one means the path existed at resolve time; it says
// nothing about later.
type Path struct {
	abs  string
	stat fs.FileInfo
}

// NewPath wraps an absolute path and the stat result taken for it.
// Only FilesystemManager implementations should need this.
func NewPath(abs string, stat fs.FileInfo) *Path {
	return &Path{abs: abs, stat: stat}
}

func (p *Path) String() string { return p.abs }

// IsDir reports whether the path was a directory when resolved.
func (p *Path) IsDir() bool {
	return p.stat != nil && p.stat.IsDir()
}
