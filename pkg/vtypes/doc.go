// Package vtypes holds the data-group data model shared across the core:
// nodes, partition groups, slots, log positions and the snapshot tagged
// union, plus the capability interfaces the Data Group Member borrows from
// its process-wide collaborators (storage engine, schema registry, directory
// manager, file-reader manager, metadata group) instead of constructing.
package vtypes
