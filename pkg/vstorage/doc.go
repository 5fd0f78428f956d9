// Package vstorage is the durability seam under the Partitioned Log
// Manager: a small LogStore interface for per-slot log entries and per-slot
// last-index/last-term records, plus a go.etcd.io/bbolt-backed
// implementation storing JSON-encoded values.
package vstorage
