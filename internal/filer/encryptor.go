package filer

import "io"

// Encryptor protects the metadata export before it leaves the host.
// Encrypting needs only the public half of the key pair, so unattended
// snapshot and prune runs never prompt. Reading an export back needs the
// passphrase-protected private half.
type Encryptor interface {
	// Setup generates and writes a fresh key pair, sealing the private key
	// with passphrase. It refuses to overwrite existing keys.
	Setup(passphrase string) error

	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether a complete key pair is on disk.
	IsConfigured() bool
}

// DecryptionContext is an unlocked private key, valid for one command.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
