// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file and JOBD_ environment variables.
// It provides type-safe access to the settings of the server, the job queue
// and worker pool, and the expiring caches.
package config
