package filer

import "io"

// Vault is an off-host home for the encrypted metadata export. Items are
// keyed by host id and name, and every item carries the operation id that
// produced it so a stale local database can be detected.
type Vault interface {
	Name() string

	// PutMetadata streams size bytes from r and records version with them.
	PutMetadata(hostID, name string, r io.Reader, size int64, version int64) error

	// GetMetadata copies the stored item into w. If nothing was stored the
	// error wraps ErrNotFound.
	GetMetadata(hostID, name string, w io.Writer) error

	// GetMetadataVersion is 0 when nothing has been stored yet.
	GetMetadataVersion(hostID, name string) (int64, error)

	// ValidateSetup checks that the vault can be reached and written to.
	ValidateSetup() error
}
