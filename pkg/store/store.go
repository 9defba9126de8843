// Package store persists resolved locks by digest.
//
// The API server stores every lock it produces so clients can fetch it
// again by digest. [MemoryStore] serves tests and single-process use;
// [MongoStore] shares locks across replicas.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// Store persists locks. Implementations are safe for concurrent use.
type Store interface {
	// Put stores a lock under its digest. Storing the same digest again
	// replaces the previous lock, which is identical by construction.
	Put(ctx context.Context, lock *resolve.Lock) error
	// Get returns the lock with the given digest or a NOT_FOUND error.
	Get(ctx context.Context, digest string) (*resolve.Lock, error)
	// List returns every stored lock of a recipe, sorted by digest.
	List(ctx context.Context, recipe string) ([]*resolve.Lock, error)
	// Close releases resources held by the store.
	Close(ctx context.Context) error
}

func notFound(digest string) error {
	return errors.New(errors.ErrCodeNotFound, "no lock with digest %q", digest)
}

func checkLock(lock *resolve.Lock) error {
	if lock == nil || lock.Digest == "" {
		return errors.New(errors.ErrCodeInvalidInput, "lock has no digest")
	}
	return nil
}

// MemoryStore keeps locks in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	locks map[string]*resolve.Lock
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[string]*resolve.Lock)}
}

func (s *MemoryStore) Put(ctx context.Context, lock *resolve.Lock) error {
	if err := checkLock(lock); err != nil {
		return err
	}
	cp := lock.Clone()
	s.mu.Lock()
	s.locks[lock.Digest] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, digest string) (*resolve.Lock, error) {
	s.mu.RLock()
	lock, ok := s.locks[digest]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(digest)
	}
	return lock.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, recipe string) ([]*resolve.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*resolve.Lock
	for _, lock := range s.locks {
		if lock.Recipe == recipe {
			out = append(out, lock.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *resolve.Lock) int { return strings.Compare(a.Digest, b.Digest) })
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
