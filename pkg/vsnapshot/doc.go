// Package vsnapshot applies the Snapshot tagged union to local storage,
// dispatching by variant the way an FSM's Apply dispatches on a command's
// op code — except here the union is closed (Simple/File/Partitioned/Remote)
// and the dispatch is exhaustive: an unrecognised variant is logged, not
// applied, and reported as an error; the other slots of a partitioned apply
// still apply.
package vsnapshot
