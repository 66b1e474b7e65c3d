// Package session holds the opaque session identifier issued by the code
// server at login.
package session

import (
	"errors"
	"log/slog"

	"github.com/jmcleod/examcode/storage"
)

// Key is the fixed record name the session identifier is stored under.
const Key = "sessionID"

// Store owns the session identifier. It has no error conditions: absence is
// the empty string, and storage failures are logged and treated as absence.
type Store struct {
	repo   storage.Repository
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore returns a Store backed by repo.
func NewStore(repo storage.Repository, opts ...Option) *Store {
	s := &Store{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetID stores id. The value is not validated.
func (s *Store) SetID(id string) {
	if err := s.repo.Put(Key, []byte(id)); err != nil {
		s.logger.Warn("session: failed to store id", "error", err)
	}
}

// GetID returns the stored id, or "" when none is stored.
func (s *Store) GetID() string {
	v, err := s.repo.Get(Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("session: failed to read id", "error", err)
		}
		return ""
	}
	return string(v)
}

// DeleteID clears the stored id. Clearing an absent id is a no-op.
func (s *Store) DeleteID() {
	if err := s.repo.Delete(Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("session: failed to delete id", "error", err)
	}
}
