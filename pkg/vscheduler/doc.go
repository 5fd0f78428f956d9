// Package vscheduler implements the Pull-Snapshot Scheduler: a bounded
// worker pool, sized to runtime.GOMAXPROCS(0), that materialises pending
// remote snapshots one task per previous-holder group after a membership
// change moves slots to the local header. It gates concurrency with
// golang.org/x/sync/semaphore rather than an unbounded goroutine-per-task
// fan-out, the idiomatic Go reformulation of a fixed-size worker pool.
package vscheduler
