// Package partition implements the Partitioned Log Manager: the ordered log
// store and per-slot snapshot cache a Data Group Member serialises all
// applies and pullSnapshot exports through. Every exported method that
// touches either the cache or the log takes the same mutex — single mutual
// exclusion on the log manager, exactly one monitor here, never a lock
// hierarchy.
package partition
