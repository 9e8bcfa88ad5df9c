package testutil

import (
	"crypto/sha256"
	"fmt"
)

// SHA256Hex is an independent reference for filer.HashContent: lowercase
// hex of the SHA-256 digest.
func SHA256Hex(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
