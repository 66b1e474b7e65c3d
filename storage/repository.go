// Package storage provides the storage abstraction for client-side records
// such as the session identifier.
package storage

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for small named-record storage.
// Keys are fixed names chosen by the caller; values are opaque bytes.
type Repository interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}
