package vtypes

import (
	"context"
	"io"
)

// The following interfaces are the capability handles the core needs:
// process-wide collaborators (storage engine, schema registry, directory
// manager, file-reader manager) with their own init/teardown lifecycle,
// injected into the Data Group Member constructor rather than reached for
// as globals. The core never constructs an implementation of any of these
// — a local storage engine and schema registry are somebody else's
// component — and exist here only as the seam the core calls through.

// SchemaRegistry is the external schema service SimpleSnapshot and
// FileSnapshot register measurement schemas with, and pullTimeSeriesSchema
// reads from.
type SchemaRegistry interface {
	Register(schema MeasurementSchema) error
	MatchingSchemas(prefix string) ([]MeasurementSchema, error)
}

// StorageEngine is the local storage engine applying operations during
// snapshot apply and ingesting pulled files. ProcessNonQuery backs
// executeNonQuery.
type StorageEngine interface {
	ApplyOperation(ctx context.Context, slot Slot, entry LogEntry) error
	IngestFile(ctx context.Context, ref RemoteFileRef) error
	AllPaths(ctx context.Context, prefix string) ([]string, error)
	ProcessNonQuery(ctx context.Context, plan []byte) (handled bool, err error)
}

// DirectoryManager tracks which sequence/unsequence directories are
// registered locally, backing the already-pulled check: a file is
// already-pulled iff a file of the same {storageGroup}/{fileName} exists in
// any registered sequence/unsequence directory.
type DirectoryManager interface {
	Contains(storageGroup, fileName string) bool
	StagingRoot() string
}

// FileReaderManager opens local files for chunked serving (the RPC side of
// pullRemoteFile) and ingested files for re-reading after staging.
type FileReaderManager interface {
	Open(path string) (io.ReadCloser, error)
}

// GroupDirectory resolves a group header id to its full member list, the
// knowledge loadRemoteFile needs to fail over across a source group's
// replicas: it attempts each node of the source group in turn. It is part
// of what the Metadata Group Member tracks.
type GroupDirectory interface {
	GroupOf(headerID int64) (PartitionGroup, bool)
}

// MetaCapability is the read-only borrow of the Metadata Group Member: the
// Data Group Member holds this as a capability, never as ownership,
// breaking the MGM<->DGM cyclic reference.
type MetaCapability interface {
	PartitionTable() PartitionTable
	MetaLogPosition() LogPosition
}

// TVPair is a single (time, value) sample, the unit fetchSingleSeries pulls
// in batches.
type TVPair struct {
	Time  int64
	Value []byte
}

// SeriesReader is the point-reader querySingleSeries builds and
// fetchSingleSeries drains; it is a vquery.Reader plus the fetch and
// data-type accessors the response encoding needs.
type SeriesReader interface {
	// Next returns up to n further samples in time order, or none if the
	// series is exhausted.
	Next(n int) ([]TVPair, error)
	DataType() DataType
	Close() error
}

// SeriesReaderFactory opens a SeriesReader over a single measurement path,
// the storage-engine seam querySingleSeries calls through once local
// catch-up with the leader is confirmed.
type SeriesReaderFactory interface {
	OpenSeriesReader(ctx context.Context, path string, filter []byte, pushDownUnseq bool) (SeriesReader, error)
}
