package encryption

import (
	"errors"
	"fmt"

	"filer-go/internal/config"
	"filer-go/internal/filer"
)

// NewEncryptorFromConfig picks the Encryptor for cfg.Type. An empty type
// means age, which is what `filer config init` writes.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (filer.Encryptor, error) {
	switch cfg.Type {
	case "", "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, errors.New("age encryption needs both public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "none":
		return PlainEncryptor{}, nil
	case "test":
		return NewTestEncryptor(), nil
	}
	return nil, fmt.Errorf("encryption type %q is not supported", cfg.Type)
}
