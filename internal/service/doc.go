// Package service contains the job service: the application layer that
// accepts jobs, schedules them onto the worker pool, and answers status and
// result queries from expiring caches.
//
// Key components:
//
// 1. JobService:
//   - Submit generates a key, marks the job PENDING and enqueues it without blocking
//   - ExecuteJob runs the computation and always leaves the job DONE
//   - GetStatus and GetResult read from independently expiring caches
//
// 2. Key generation:
//   - Short random alphanumeric keys by default, UUIDs optionally
//
// 3. Error Handling:
//   - A full queue surfaces as domain.ErrCapacityExceeded
//   - Computation failures never reach the submitter; they are stored as a
//     failure result and logged in redacted form
//
// An unknown key, an expired key and a key whose job was rejected all look
// the same to callers: the lookup reports absent.
package service
