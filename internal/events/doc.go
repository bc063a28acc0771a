// Package events provides job lifecycle events and an in-memory emitter.
//
// The job service emits an event when a job is submitted, rejected or
// completed. Interested components register handlers without the service
// knowing about them; the service itself uses this to invalidate its
// memoized statistics.
//
// The primary components are:
// - JobEvent: a lifecycle change for one job
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
