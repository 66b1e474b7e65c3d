// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/jmcleod/examcode/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Values are sealed in memguard enclaves (encrypted at rest in memory) and
// are lost when the process exits.
type Repository struct {
	mu   sync.RWMutex
	data map[string]*memguard.Enclave
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]*memguard.Enclave)}
}

func (r *Repository) Put(key string, value []byte) error {
	// NewEnclave wipes its source, so seal a copy. An empty value yields a
	// nil enclave, which Get reports as an empty record.
	sealed := memguard.NewEnclave(append([]byte(nil), value...))

	r.mu.Lock()
	r.data[key] = sealed
	r.mu.Unlock()
	return nil
}

func (r *Repository) Get(key string) ([]byte, error) {
	r.mu.RLock()
	sealed, ok := r.data[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if sealed == nil {
		return []byte{}, nil
	}

	buf, err := sealed.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", key, err)
	}
	defer buf.Destroy()
	return append([]byte(nil), buf.Bytes()...), nil
}

func (r *Repository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	delete(r.data, key)
	return nil
}
