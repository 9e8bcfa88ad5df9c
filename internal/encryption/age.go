package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"filer-go/internal/config"
	"filer-go/internal/filer"
)

// ErrAlreadyConfigured is returned by Setup when a key pair already exists.
var ErrAlreadyConfigured = errors.New("encryption keys already exist")

// AgeEncryptor encrypts record-store exports with an X25519 age key pair.
// The recipient (public key) is kept in plaintext so exports run unattended;
// the identity (private key) is itself age-encrypted under a passphrase.
type AgeEncryptor struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ filer.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Setup generates the key pair. It never replaces existing keys, since
// exports made with them would become unreadable.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	if e.IsConfigured() {
		return ErrAlreadyConfigured
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	sealed, err := sealIdentity(identity, passphrase)
	if err != nil {
		return err
	}

	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(e.privateKeyPath, sealed, 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	// The public key goes last so IsConfigured is only true for a complete pair.
	if err := os.WriteFile(e.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	return nil
}

// sealIdentity encrypts the identity's text form under a scrypt passphrase.
func sealIdentity(identity *age.X25519Identity, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return nil, fmt.Errorf("writing encrypted private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encrypted private key: %w", err)
	}
	return buf.Bytes(), nil
}

// Encrypt streams r to w encrypted for the stored recipient.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.recipient()
	if err != nil {
		return err
	}
	sealer, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("age: %w", err)
	}
	if _, err := io.Copy(sealer, r); err != nil {
		return fmt.Errorf("age encrypt: %w", err)
	}
	return sealer.Close()
}

// Unlock opens the sealed identity with passphrase.
func (e *AgeEncryptor) Unlock(passphrase string) (filer.DecryptionContext, error) {
	sealed, err := os.ReadFile(e.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	opened, err := age.Decrypt(bytes.NewReader(sealed), scrypt)
	if err != nil {
		return nil, fmt.Errorf("unlock private key (wrong passphrase?): %w", err)
	}
	keyText, err := io.ReadAll(opened)
	if err != nil {
		return nil, fmt.Errorf("unlock private key: %w", err)
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(keyText)))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return ageOpener{identity: identity}, nil
}

// IsConfigured reports whether both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	_, errPub := os.Stat(e.publicKeyPath)
	_, errPriv := os.Stat(e.privateKeyPath)
	return errPub == nil && errPriv == nil
}

func (e *AgeEncryptor) recipient() (*age.X25519Recipient, error) {
	text, err := os.ReadFile(e.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	recipient, err := age.ParseX25519Recipient(strings.TrimSpace(string(text)))
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", e.publicKeyPath, err)
	}
	return recipient, nil
}

// ageOpener is the DecryptionContext Unlock hands out.
type ageOpener struct {
	identity age.Identity
}

func (o ageOpener) Decrypt(r io.Reader, w io.Writer) error {
	plain, err := age.Decrypt(r, o.identity)
	if err != nil {
		return fmt.Errorf("age decrypt: %w", err)
	}
	if _, err := io.Copy(w, plain); err != nil {
		return fmt.Errorf("age decrypt: %w", err)
	}
	return nil
}
