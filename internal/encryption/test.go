package encryption

import (
	"bytes"
	"fmt"
	"io"

	"filer-go/internal/filer"
)

// testMagic marks data produced by TestEncryptor.
var testMagic = []byte("FILERTST")

// TestEncryptor is a deterministic stand-in for AgeEncryptor in tests.
// Encrypt prefixes testMagic; Decrypt checks and strips it. Unlock accepts
// only the passphrase given to Setup, so wrong-passphrase paths are testable.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ filer.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor returns a TestEncryptor that is already configured and
// accepts any passphrase until Setup pins one.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMagic); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (filer.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, fmt.Errorf("incorrect passphrase")
	}
	return testDecryptor{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

type testDecryptor struct{}

func (testDecryptor) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testMagic) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
