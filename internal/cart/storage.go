package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BosskingGM/office-gama/internal/core/domain"
)

// FileStorage keeps the cart as a JSON document on local disk.
type FileStorage struct {
	path string
}

// NewFileStorage creates a storage backed by path. The file is created on first save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load returns an empty cart when the file does not exist yet.
func (f *FileStorage) Load() ([]domain.CartLine, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("cart file %s is corrupt: %w", f.path, err)
	}
	return lines, nil
}

// Save writes through a temp file so a crash never leaves half a cart.
func (f *FileStorage) Save(lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// MemoryStorage keeps the cart in process.
type MemoryStorage struct {
	mu    sync.Mutex
	lines []domain.CartLine
	saves int
}

func (m *MemoryStorage) Load() ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.lines...), nil
}

func (m *MemoryStorage) Save(lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append([]domain.CartLine(nil), lines...)
	m.saves++
	return nil
}

// Saves reports how many times the cart was persisted.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
