package filer

import (
	"fmt"
	"path/filepath"
)

// CreateRequest asks for a new snapshot of the directory at Path.
type CreateRequest struct {
	Path string
}

// ListRequest asks for the snapshots recorded for Path.
type ListRequest struct {
	Path string
}

// RestoreRequest asks for snapshot Number of Path to be written to OutputPath.
// An empty OutputPath selects a sibling of Path named after the snapshot time.
type RestoreRequest struct {
	Path       string
	Number     int64
	OutputPath string
}

// PruneRequest asks for snapshot Number of Path to be deleted.
type PruneRequest struct {
	Path   string
	Number int64
}

// VerifyRequest asks for the blobs of snapshot Number of Path to be re-hashed.
type VerifyRequest struct {
	Path   string
	Number int64
}

func (r CreateRequest) Validate() error {
	return validatePath(r.Path)
}

func (r ListRequest) Validate() error {
	return validatePath(r.Path)
}

func (r RestoreRequest) Validate() error {
	if err := validatePath(r.Path); err != nil {
		return err
	}
	if err := validateNumber(r.Number); err != nil {
		return err
	}
	if r.OutputPath != "" && !filepath.IsAbs(r.OutputPath) {
		return fmt.Errorf("%w: output path must be absolute: %s", ErrInvalidRequest, r.OutputPath)
	}
	return nil
}

func (r PruneRequest) Validate() error {
	if err := validatePath(r.Path); err != nil {
		return err
	}
	return validateNumber(r.Number)
}

func (r VerifyRequest) Validate() error {
	if err := validatePath(r.Path); err != nil {
		return err
	}
	return validateNumber(r.Number)
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: path must be absolute: %s", ErrInvalidRequest, path)
	}
	return nil
}

func validateNumber(number int64) error {
	if number < 1 {
		return fmt.Errorf("%w: snapshot number must be at least 1, got %d", ErrInvalidRequest, number)
	}
	return nil
}
