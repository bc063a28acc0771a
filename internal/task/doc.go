// Package task provides the in-memory scheduling machinery for jobs: a
// bounded FIFO queue that rejects instead of blocking when full, and a
// fixed-size worker pool that drains it. It also defines the Computation
// capability jobs run, without knowing anything about what it computes.
package task
