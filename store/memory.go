package store

import "todomvc/model"

// MemoryAdapter holds the encoded snapshot in process memory.
type MemoryAdapter struct {
	data  []byte
	saves int
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

// NewMemoryAdapter returns an adapter seeded with a raw payload (may be nil).
func NewMemoryAdapter(seed []byte) *MemoryAdapter {
	return &MemoryAdapter{data: seed}
}

func (m *MemoryAdapter) Load() ([]model.TodoItem, error) {
	return Decode(m.data)
}

func (m *MemoryAdapter) Save(items []model.TodoItem) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := Encode(items)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

// Raw returns the last stored payload.
func (m *MemoryAdapter) Raw() []byte {
	return m.data
}

// SetRaw replaces the stored payload, as another writer would.
func (m *MemoryAdapter) SetRaw(data []byte) {
	m.data = data
}

// Saves counts successful Save calls.
func (m *MemoryAdapter) Saves() int {
	return m.saves
}
