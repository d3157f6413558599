// Package machi provides an append-and-trim persistent blob store: data is
// appended once, read back any number of times by the locator append
// returned, and eventually trimmed. Trimmed bytes are never reused or
// rewritten; once every entry in a retired generation has been trimmed,
// that generation's files are deleted.
package machi

import (
	"github.com/iamNilotpal/machi/internal/store"
	"github.com/iamNilotpal/machi/pkg/logger"
	"github.com/iamNilotpal/machi/pkg/options"
)

// Store is the primary entry point for interacting with a machi instance.
type Store struct {
	store *store.Store
}

// Open opens (or creates) a store rooted at the given directory, applying
// any functional options over the library defaults.
func Open(service string, opts ...options.OptionFunc) (*Store, error) {
	defaultOpts := options.NewDefaultOptions()
	defaultOpts.Logger = logger.New(service)

	for _, opt := range opts {
		opt(&defaultOpts)
	}

	s, err := store.Open(&defaultOpts)
	if err != nil {
		return nil, err
	}

	return &Store{store: s}, nil
}

// Append persists data and returns the (gen, offset, length) locator
// needed to retrieve or trim it later.
func (m *Store) Append(data []byte) (gen, offset, length uint64, err error) {
	return m.store.Append(data)
}

// Get retrieves the payload at the given locator. A nil, nil return means
// the locator is unknown or was trimmed — not an error.
func (m *Store) Get(gen, offset, length uint64) ([]byte, error) {
	return m.store.Get(gen, offset, length)
}

// Trim marks the entry at the given locator as no longer live. Trimming an
// unknown or already-trimmed locator is a no-op.
func (m *Store) Trim(gen, offset, length uint64) error {
	return m.store.Trim(gen, offset, length)
}

// Keys enumerates every live entry's locator, stopping early if yield
// returns false. Iteration order is unspecified.
func (m *Store) Keys(yield func(gen, offset, length uint64) bool) {
	m.store.Keys(yield)
}

// Close releases every open file handle, removing any generation whose
// live count has reached zero.
func (m *Store) Close() error {
	return m.store.Close()
}
