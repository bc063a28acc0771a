package cache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Unbounded disables an expiry policy. Any TTL <= 0 behaves the same way.
const Unbounded time.Duration = 0

// MinSweepInterval is the lower bound on the derived sweep period.
const MinSweepInterval = time.Second

// ErrClosed is returned by GetOrCompute after Close has been called.
var ErrClosed = errors.New("cache is closed")

// Config controls expiry and maintenance of an ExpiringCache.
type Config struct {
	// IdleTTL expires an entry that has not been read for this long.
	IdleTTL time.Duration

	// AgeTTL expires an entry this long after it was last written,
	// regardless of reads.
	AgeTTL time.Duration

	// SweepInterval overrides the derived sweep period when > 0.
	SweepInterval time.Duration

	// Clock is the time source. Nil means the wall clock.
	Clock clockwork.Clock

	// Name labels log lines from this cache.
	Name string
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// ExpiringCache is a concurrency-safe map whose entries expire after an idle
// period, an age, or both.
//
// Reads and writes go through a sync.Map, so unrelated keys never contend on a
// shared lock. GetOrCompute deduplicates concurrent computations per key.
//
// Ownership model:
// ExpiringCache owns its sweep goroutine. Call Close to stop it.
type ExpiringCache[K comparable, V any] struct {
	entries sync.Map // K -> *entry[V]
	size    atomic.Int64
	flights singleflight.Group

	idleTTL time.Duration
	ageTTL  time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	sweepEvery time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool
}

// entry holds one cached value. value and writtenAt never change after the
// entry is published; a Put replaces the whole entry.
type entry[V any] struct {
	value        V
	writtenAt    int64 // unix nanos
	lastAccessed atomic.Int64
}

func newEntry[V any](value V, now time.Time) *entry[V] {
	e := &entry[V]{value: value, writtenAt: now.UnixNano()}
	e.lastAccessed.Store(e.writtenAt)
	return e
}

// touch moves lastAccessed forward to now. It never moves it backwards, so
// lastAccessed >= writtenAt holds even under racing readers.
func (e *entry[V]) touch(now time.Time) {
	n := now.UnixNano()
	for {
		cur := e.lastAccessed.Load()
		if n <= cur || e.lastAccessed.CompareAndSwap(cur, n) {
			return
		}
	}
}

// New constructs a cache and starts its background sweep.
//
// The sweep is not started when both TTLs are unbounded, since nothing can
// expire by time. New never returns a nil cache.
func New[K comparable, V any](cfg Config, logger *slog.Logger) *ExpiringCache[K, V] {
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	name := cfg.Name
	if name == "" {
		name = "cache"
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &ExpiringCache[K, V]{
		idleTTL: cfg.IdleTTL,
		ageTTL:  cfg.AgeTTL,
		clock:   clock,
		logger:  logger.With("component", "expiring_cache", "cache", name),
		ctx:     ctx,
		cancel:  cancel,
	}

	c.sweepEvery = cfg.SweepInterval
	if c.sweepEvery <= 0 {
		c.sweepEvery = SweepInterval(cfg.IdleTTL, cfg.AgeTTL)
	}

	if c.sweepEvery > 0 {
		// Create the ticker before the goroutine starts so a fake clock
		// advanced right after New still fires it.
		ticker := c.clock.NewTicker(c.sweepEvery)
		c.wg.Add(1)
		go c.sweepLoop(ticker)
	}

	return c
}

// SweepInterval derives the sweep period from the TTLs:
// max(MinSweepInterval, min(idle, age)/2), ignoring unbounded TTLs.
// It returns 0 when both TTLs are unbounded.
func SweepInterval(idleTTL, ageTTL time.Duration) time.Duration {
	var shortest time.Duration
	switch {
	case idleTTL > 0 && ageTTL > 0:
		shortest = min(idleTTL, ageTTL)
	case idleTTL > 0:
		shortest = idleTTL
	case ageTTL > 0:
		shortest = ageTTL
	default:
		return 0
	}
	return max(MinSweepInterval, shortest/2)
}

// Put stores value under key with fresh write and access times. It returns
// the previous value if one was present and still live.
func (c *ExpiringCache[K, V]) Put(key K, value V) (V, bool) {
	now := c.clock.Now()
	prev, loaded := c.entries.Swap(key, newEntry(value, now))
	if !loaded {
		c.size.Add(1)
		var zero V
		return zero, false
	}

	old := prev.(*entry[V])
	if c.expired(old, now) {
		var zero V
		return zero, false
	}
	return old.value, true
}

// Get returns the value for key. An expired entry is removed and reported
// as absent; a live entry has its access time refreshed.
func (c *ExpiringCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lookup(key)
	if !ok {
		c.misses.Add(1)
		return v, false
	}
	c.hits.Add(1)
	return v, true
}

// lookup is Get without the hit and miss counters.
func (c *ExpiringCache[K, V]) lookup(key K) (V, bool) {
	var zero V

	v, ok := c.entries.Load(key)
	if !ok {
		return zero, false
	}

	e := v.(*entry[V])
	now := c.clock.Now()
	if c.expired(e, now) {
		c.remove(key, e)
		return zero, false
	}

	e.touch(now)
	return e.value, true
}

// Contains reports whether key holds a live entry without refreshing its
// access time.
func (c *ExpiringCache[K, V]) Contains(key K) bool {
	v, ok := c.entries.Load(key)
	if !ok {
		return false
	}
	return !c.expired(v.(*entry[V]), c.clock.Now())
}

// computed boxes a value so a nil interface V survives the trip through
// singleflight's any result.
type computed[V any] struct {
	value V
}

// GetOrCompute returns the live value for key, or computes, stores and
// returns fn(key). Concurrent callers for the same absent key share a single
// invocation of fn and all receive its result. An error from fn is returned
// to every waiter and nothing is stored.
//
// fn must not call back into this cache for the same key; doing so blocks
// forever.
func (c *ExpiringCache[K, V]) GetOrCompute(key K, fn func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}

	res, err, shared := c.flights.Do(flightKey(key), func() (any, error) {
		// Another flight may have stored the value between our miss and
		// acquiring this flight. The miss is already counted.
		if v, ok := c.lookup(key); ok {
			return computed[V]{value: v}, nil
		}

		v, err := fn(key)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return computed[V]{value: v}, nil
	})
	if err != nil {
		return zero, errors.Wrapf(err, "compute cache entry %v", key)
	}

	if shared {
		c.logger.Debug("shared in-flight computation", "key", fmt.Sprint(key))
	}
	return res.(computed[V]).value, nil
}

// Invalidate removes key regardless of its expiry state.
func (c *ExpiringCache[K, V]) Invalidate(key K) {
	if _, loaded := c.entries.LoadAndDelete(key); loaded {
		c.size.Add(-1)
	}
}

// InvalidateAll removes every entry.
func (c *ExpiringCache[K, V]) InvalidateAll() {
	c.entries.Range(func(k, v any) bool {
		if c.entries.CompareAndDelete(k, v) {
			c.size.Add(-1)
		}
		return true
	})
}

// EstimatedSize returns the number of stored entries. It includes entries
// that have expired but not yet been swept, and is approximate while other
// goroutines are mutating the cache.
func (c *ExpiringCache[K, V]) EstimatedSize() int {
	n := c.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Stats returns a snapshot of the cache counters.
func (c *ExpiringCache[K, V]) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.EstimatedSize(),
	}
}

// Close stops the sweep goroutine. Entries stay readable; they just stop
// being swept. Close is safe to call multiple times.
func (c *ExpiringCache[K, V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	return nil
}

// Sweep removes every expired entry and returns how many were removed.
// The background loop calls it once per interval.
func (c *ExpiringCache[K, V]) Sweep() int {
	now := c.clock.Now()
	removed := 0
	c.entries.Range(func(k, v any) bool {
		if c.expired(v.(*entry[V]), now) && c.remove(k.(K), v.(*entry[V])) {
			removed++
		}
		return true
	})
	return removed
}

func (c *ExpiringCache[K, V]) sweepLoop(ticker clockwork.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.Chan():
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("swept expired entries",
					"removed", removed,
					"remaining", c.EstimatedSize())
			}
		}
	}
}

// remove deletes key only if it still maps to e, so a concurrent Put of a
// fresh entry is never lost to a stale expiry decision.
func (c *ExpiringCache[K, V]) remove(key K, e *entry[V]) bool {
	if !c.entries.CompareAndDelete(key, e) {
		return false
	}
	c.size.Add(-1)
	c.evictions.Add(1)
	return true
}

func (c *ExpiringCache[K, V]) expired(e *entry[V], now time.Time) bool {
	if isNil(e.value) {
		return true
	}
	n := now.UnixNano()
	if c.idleTTL > 0 && time.Duration(n-e.lastAccessed.Load()) > c.idleTTL {
		return true
	}
	if c.ageTTL > 0 && time.Duration(n-e.writtenAt) > c.ageTTL {
		return true
	}
	return false
}

// isNil reports whether v is a nil interface or a nil value of a nillable
// kind. Such values are never served as live.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// flightKey maps a cache key to a singleflight key. Distinct keys must
// format distinctly with %#v for deduplication to be exact.
func flightKey[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return s
	}
	return fmt.Sprintf("%#v", key)
}
