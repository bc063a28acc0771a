// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between HTTP clients and
// the job service: submissions become jobs, and status and result lookups
// read the service's caches.
package api
