package vtypes

import (
	"fmt"
	"sync"
)

// SnapshotKind tags the Snapshot union's concrete variant, letting callers
// type-switch or fall back to Kind() when only the shape matters.
type SnapshotKind int

const (
	SnapshotSimple SnapshotKind = iota
	SnapshotFile
	SnapshotPartitioned
	SnapshotRemoteSimple
	SnapshotRemoteFile
)

// Snapshot is the tagged union of materialised state,
// sufficient to reconstruct a slot without replaying earlier log entries.
// Remote variants (RemoteSnapshot) resolve lazily; accessing their
// LastIndex or LastTerm blocks the caller until the Pull-Snapshot Scheduler
// resolves the underlying placeholder. Their Kind returns without blocking.
type Snapshot interface {
	Kind() SnapshotKind
	LastIndex() int64
	LastTerm() int64
}

// SimpleSnapshot carries schemas and a replayable log batch.
type SimpleSnapshot struct {
	Schemas    []MeasurementSchema
	Operations []LogEntry
	Index      int64
	Term       int64
}

func (s *SimpleSnapshot) Kind() SnapshotKind { return SnapshotSimple }
func (s *SimpleSnapshot) LastIndex() int64   { return s.Index }
func (s *SimpleSnapshot) LastTerm() int64    { return s.Term }

// FileSnapshot carries schemas plus references to immutable data files
// owned by the source group; the files themselves are fetched separately by
// the File Puller.
type FileSnapshot struct {
	Schemas []MeasurementSchema
	Files   []RemoteFileRef
	Index   int64
	Term    int64
}

func (s *FileSnapshot) Kind() SnapshotKind { return SnapshotFile }
func (s *FileSnapshot) LastIndex() int64   { return s.Index }
func (s *FileSnapshot) LastTerm() int64    { return s.Term }

// PartitionedSnapshot fans a group-level snapshot out per slot. Application
// recurses into each sub-snapshot that the local header currently owns;
// slots not held by the local header are left untouched.
type PartitionedSnapshot struct {
	PerSlot map[Slot]Snapshot
	Index   int64
	Term    int64
}

func (s *PartitionedSnapshot) Kind() SnapshotKind { return SnapshotPartitioned }
func (s *PartitionedSnapshot) LastIndex() int64   { return s.Index }
func (s *PartitionedSnapshot) LastTerm() int64    { return s.Term }

// GetSnapshot returns the sub-snapshot for slot, or nil if this partitioned
// snapshot carries nothing for it.
func (s *PartitionedSnapshot) GetSnapshot(slot Slot) Snapshot {
	return s.PerSlot[slot]
}

// RemoteSnapshot is a one-shot, thread-safe placeholder installed by the
// Pull-Snapshot Scheduler while a remote slot pull is in
// flight. Resolve is idempotent: the first call to Resolve runs fn and
// caches its result; every later caller (including concurrent ones) gets
// the same cached (Snapshot, error) pair without re-running fn.
type RemoteSnapshot struct {
	once     sync.Once
	resolved Snapshot
	err      error
	fn       func() (Snapshot, error)
	fileMode bool
}

// NewRemoteSnapshot builds a placeholder that resolves by calling fn exactly
// once. fileMode only decides what Kind() reports (SnapshotRemoteFile vs
// SnapshotRemoteSimple), before and after resolution, letting logging
// distinguish the two without blocking.
func NewRemoteSnapshot(fileMode bool, fn func() (Snapshot, error)) *RemoteSnapshot {
	return &RemoteSnapshot{fn: fn, fileMode: fileMode}
}

func (s *RemoteSnapshot) Kind() SnapshotKind {
	if s.fileMode {
		return SnapshotRemoteFile
	}
	return SnapshotRemoteSimple
}

// Resolve blocks until the backing task completes, then returns its result.
// Every subsequent call returns the cached result immediately.
func (s *RemoteSnapshot) Resolve() (Snapshot, error) {
	s.once.Do(func() {
		s.resolved, s.err = s.fn()
	})
	return s.resolved, s.err
}

func (s *RemoteSnapshot) LastIndex() int64 {
	snap, err := s.Resolve()
	if err != nil || snap == nil {
		return 0
	}
	return snap.LastIndex()
}

func (s *RemoteSnapshot) LastTerm() int64 {
	snap, err := s.Resolve()
	if err != nil || snap == nil {
		return 0
	}
	return snap.LastTerm()
}

// ErrUnrecognisedSnapshot is returned (and logged, non-fatally, by callers)
// when Apply encounters a Snapshot whose Kind does not match any case of the
// exhaustive dispatch in pkg/vsnapshot.
func ErrUnrecognisedSnapshot(kind SnapshotKind) error {
	return fmt.Errorf("vtypes: unrecognised snapshot variant %d", kind)
}
