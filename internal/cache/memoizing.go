package cache

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// MemoizingCache binds one key of an ExpiringCache to the function that
// produces its value, and adds a dirty flag for forcing recomputation
// independently of the TTLs.
//
// It does not own the backing cache; discarding a MemoizingCache leaves the
// cache untouched.
type MemoizingCache[K comparable, V any] struct {
	dirty     atomic.Bool
	key       K
	cache     *ExpiringCache[K, V]
	recompute func() (V, error)
}

// NewMemoizingCache creates a MemoizingCache for key backed by cache.
func NewMemoizingCache[K comparable, V any](
	cache *ExpiringCache[K, V],
	key K,
	recompute func() (V, error),
) (*MemoizingCache[K, V], error) {
	if cache == nil {
		return nil, errors.New("backing cache cannot be nil")
	}
	if recompute == nil {
		return nil, errors.New("recompute function cannot be nil")
	}
	return &MemoizingCache[K, V]{
		key:       key,
		cache:     cache,
		recompute: recompute,
	}, nil
}

// Get returns the memoized value.
//
// When the dirty flag is set it is cleared, the value is recomputed and
// written to the backing cache even if the existing entry is still fresh.
// Otherwise the backing cache computes the value on first access and reuses
// it until it expires. If a forced recompute fails the flag is set again so
// the next call retries.
func (m *MemoizingCache[K, V]) Get() (V, error) {
	if m.dirty.CompareAndSwap(true, false) {
		v, err := m.recompute()
		if err != nil {
			m.dirty.Store(true)
			var zero V
			return zero, errors.Wrap(err, "recompute memoized value")
		}
		m.cache.Put(m.key, v)
		return v, nil
	}

	return m.cache.GetOrCompute(m.key, func(K) (V, error) {
		return m.recompute()
	})
}

// MakeDirty marks the value stale. The cached value stays servable until the
// next Get, which is the only place recomputation happens.
func (m *MemoizingCache[K, V]) MakeDirty() {
	m.dirty.Store(true)
}

// Flush removes the backing entry immediately. The dirty flag is unchanged.
func (m *MemoizingCache[K, V]) Flush() {
	m.cache.Invalidate(m.key)
}

// IsCacheSet reports whether the backing cache holds a live entry for the key.
func (m *MemoizingCache[K, V]) IsCacheSet() bool {
	return m.cache.Contains(m.key)
}

// IsDirty reports whether a recompute is pending.
func (m *MemoizingCache[K, V]) IsDirty() bool {
	return m.dirty.Load()
}

// Key returns the key this MemoizingCache is bound to.
func (m *MemoizingCache[K, V]) Key() K {
	return m.key
}
