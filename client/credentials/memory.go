package credentials

import "sync"

// MemoryLocation keeps a value for the life of the process.
type MemoryLocation struct {
	mu    sync.Mutex
	value string
	set   bool
}

var _ Location = (*MemoryLocation)(nil)

func NewMemoryLocation() *MemoryLocation {
	return &MemoryLocation{}
}

func (m *MemoryLocation) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set, nil
}

func (m *MemoryLocation) Store(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = value, true
	return nil
}

func (m *MemoryLocation) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}
