// Package main implements the entry point for the jobd server, which accepts
// computation jobs over HTTP, runs them on a bounded worker pool and serves
// their status and results from expiring caches.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jobd: %v\n", err)
		os.Exit(1)
	}
}
