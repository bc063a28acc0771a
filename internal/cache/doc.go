// Package cache provides an in-memory key/value cache with idle-time and
// age-based expiry, plus a per-key memoizing wrapper.
//
// Expiration happens in two ways:
//   - lazily, when a read finds an expired entry and removes it
//   - eagerly, when the cache's own sweep goroutine scans all entries
//
// Lazy expiry alone would keep entries that are written once and never read
// again in memory indefinitely; the sweep bounds how long such an entry can
// linger to roughly one sweep interval past its TTL.
package cache
