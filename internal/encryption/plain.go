package encryption

import (
	"fmt"
	"io"

	"filer-go/internal/filer"
)

// PlainEncryptor passes data through unchanged. It backs the "none"
// encryption type for vaults that are trusted or encrypted at rest.
type PlainEncryptor struct{}

var (
	_ filer.Encryptor         = PlainEncryptor{}
	_ filer.DecryptionContext = PlainEncryptor{}
)

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (p PlainEncryptor) Unlock(string) (filer.DecryptionContext, error) { return p, nil }

func (PlainEncryptor) IsConfigured() bool { return true }

func (PlainEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
