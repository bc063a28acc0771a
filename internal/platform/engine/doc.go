// Package engine provides the reference implementation of task.Computation.
//
// An Engine maps each mode to one or more strategies. Compute runs every
// strategy registered for the job's mode concurrently and answers with the
// first successful output in registration order. Modes registered as
// consensus modes instead require every strategy to succeed and agree.
//
// The built-in modes are echo, checksum and sort.
package engine
