package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"filer-go/internal/filer"
)

// MemoryVault holds exports in process memory. Tests and the "memory"
// vault type use it; nothing survives the process.
type MemoryVault struct {
	name string

	mu   sync.RWMutex
	data map[string][]byte
	vers map[string]int64
}

var _ filer.Vault = (*MemoryVault)(nil)

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name: name,
		data: make(map[string][]byte),
		vers: make(map[string]int64),
	}
}

func (m *MemoryVault) Name() string { return m.name }

func (m *MemoryVault) PutMetadata(hostID, name string, r io.Reader, size int64, version int64) error {
	buf, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return err
	}
	if int64(len(buf)) != size {
		return fmt.Errorf("expected %d bytes of %s, read %d", size, name, len(buf))
	}

	k := metadataKey(hostID, name)
	m.mu.Lock()
	m.data[k] = buf
	m.vers[k] = version
	m.mu.Unlock()
	return nil
}

func (m *MemoryVault) GetMetadataVersion(hostID, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vers[metadataKey(hostID, name)], nil
}

func (m *MemoryVault) GetMetadata(hostID, name string, w io.Writer) error {
	m.mu.RLock()
	buf, ok := m.data[metadataKey(hostID, name)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s/%s in vault %s: %w", hostID, name, m.name, filer.ErrNotFound)
	}
	_, err := io.Copy(w, bytes.NewReader(buf))
	return err
}

func (m *MemoryVault) ValidateSetup() error { return nil }

// metadataKey is "<hostID>/<name>". S3Vault uses the same layout under
// its prefix.
func metadataKey(hostID, name string) string {
	return hostID + "/" + name
}
