package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"filer-go/internal/filer"
)

// FileSystemVault keeps exports in a local or mounted directory:
//
//	<root>/metadata/<hostID>/<name>          export bytes
//	<root>/metadata/<hostID>/<name>.version  operation id, decimal
type FileSystemVault struct {
	name string
	dir  string // <root>/metadata
}

var _ filer.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates root/metadata if it is missing.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	dir := filepath.Join(root, "metadata")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}
	return &FileSystemVault{name: name, dir: dir}, nil
}

func (v *FileSystemVault) Name() string { return v.name }

// item rejects host ids and names that would escape the host directory.
func (v *FileSystemVault) item(hostID, name string) (string, error) {
	for _, part := range [...]string{hostID, name} {
		if part == "" || !filepath.IsLocal(part) || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("bad vault key component %q", part)
		}
	}
	return filepath.Join(v.dir, hostID, name), nil
}

// PutMetadata replaces the export and then its version, so a crash in
// between leaves the old version next to new data rather than the reverse.
func (v *FileSystemVault) PutMetadata(hostID, name string, r io.Reader, size int64, version int64) error {
	path, err := v.item(hostID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create host directory: %w", err)
	}
	if err := replaceFile(path, r, size); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	ver := strconv.FormatInt(version, 10)
	if err := replaceFile(path+".version", strings.NewReader(ver), int64(len(ver))); err != nil {
		return fmt.Errorf("store %s version: %w", name, err)
	}
	return nil
}

func (v *FileSystemVault) GetMetadataVersion(hostID, name string) (int64, error) {
	path, err := v.item(hostID, name)
	if err != nil {
		return 0, err
	}
	raw, err := os.ReadFile(path + ".version")
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	ver, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt version file for %s/%s: %w", hostID, name, err)
	}
	return ver, nil
}

func (v *FileSystemVault) GetMetadata(hostID, name string, w io.Writer) error {
	path, err := v.item(hostID, name)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s/%s in vault %s: %w", hostID, name, v.name, filer.ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// ValidateSetup proves the metadata directory is writable by creating and
// removing a scratch file in it.
func (v *FileSystemVault) ValidateSetup() error {
	probe, err := os.CreateTemp(v.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault %s is not writable: %w", v.name, err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// replaceFile writes exactly size bytes from r to a temp file next to dest
// and renames it over dest. Nothing at dest changes on failure.
func replaceFile(dest string, r io.Reader, size int64) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("short write: got %d of %d bytes", n, size)
	}
	return os.Rename(tmp.Name(), dest)
}
