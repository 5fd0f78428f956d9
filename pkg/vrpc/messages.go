package vrpc

import (
	"fmt"

	"github.com/cuemby/vortex/pkg/vtypes"
	"github.com/hashicorp/raft"
)

// LogEntryWire is the JSON-safe shape of vtypes.LogEntry (*raft.Log).
type LogEntryWire struct {
	Index uint64
	Term  uint64
	Type  uint8
	Data  []byte
}

func toLogEntryWire(e vtypes.LogEntry) LogEntryWire {
	return LogEntryWire{Index: e.Index, Term: e.Term, Type: uint8(e.Type), Data: e.Data}
}

func fromLogEntryWire(w LogEntryWire) vtypes.LogEntry {
	return &raft.Log{Index: w.Index, Term: w.Term, Type: raft.LogType(w.Type), Data: w.Data}
}

// SimpleSnapshotWire, FileSnapshotWire and PartitionedSnapshotWire are the
// JSON payload shapes backing SnapshotWire's tagged union.
type SimpleSnapshotWire struct {
	Schemas    []vtypes.MeasurementSchema
	Operations []LogEntryWire
	Index      int64
	Term       int64
}

type FileSnapshotWire struct {
	Schemas []vtypes.MeasurementSchema
	Files   []vtypes.RemoteFileRef
	Index   int64
	Term    int64
}

type PartitionedSnapshotWire struct {
	PerSlot map[int32]*SnapshotWire
	Index   int64
	Term    int64
}

// SnapshotWire is the wire envelope for vtypes.Snapshot: Kind tags which of
// Simple/File/Partitioned is populated. RemoteSnapshot never crosses the
// wire directly — SnapshotToWire resolves it first.
type SnapshotWire struct {
	Kind        int
	Simple      *SimpleSnapshotWire
	File        *FileSnapshotWire
	Partitioned *PartitionedSnapshotWire
}

// SnapshotToWire converts a resolved Snapshot into its wire envelope,
// resolving RemoteSnapshot placeholders along the way. sendSnapshot and the
// pullSnapshot response both funnel through this.
func SnapshotToWire(s vtypes.Snapshot) (*SnapshotWire, error) {
	switch v := s.(type) {
	case *vtypes.SimpleSnapshot:
		ops := make([]LogEntryWire, len(v.Operations))
		for i, e := range v.Operations {
			ops[i] = toLogEntryWire(e)
		}
		return &SnapshotWire{
			Kind:   int(vtypes.SnapshotSimple),
			Simple: &SimpleSnapshotWire{Schemas: v.Schemas, Operations: ops, Index: v.Index, Term: v.Term},
		}, nil
	case *vtypes.FileSnapshot:
		return &SnapshotWire{
			Kind: int(vtypes.SnapshotFile),
			File: &FileSnapshotWire{Schemas: v.Schemas, Files: v.Files, Index: v.Index, Term: v.Term},
		}, nil
	case *vtypes.PartitionedSnapshot:
		perSlot := make(map[int32]*SnapshotWire, len(v.PerSlot))
		for slot, sub := range v.PerSlot {
			w, err := SnapshotToWire(sub)
			if err != nil {
				return nil, err
			}
			perSlot[int32(slot)] = w
		}
		return &SnapshotWire{
			Kind:        int(vtypes.SnapshotPartitioned),
			Partitioned: &PartitionedSnapshotWire{PerSlot: perSlot, Index: v.Index, Term: v.Term},
		}, nil
	case *vtypes.RemoteSnapshot:
		resolved, err := v.Resolve()
		if err != nil {
			return nil, fmt.Errorf("vrpc: resolve remote snapshot before sending: %w", err)
		}
		return SnapshotToWire(resolved)
	default:
		return nil, vtypes.ErrUnrecognisedSnapshot(s.Kind())
	}
}

// SnapshotFromWire is SnapshotToWire's inverse.
func SnapshotFromWire(w *SnapshotWire) (vtypes.Snapshot, error) {
	if w == nil {
		return nil, nil
	}
	switch vtypes.SnapshotKind(w.Kind) {
	case vtypes.SnapshotSimple:
		if w.Simple == nil {
			return nil, vtypes.ErrSnapshotDeserialise
		}
		ops := make([]vtypes.LogEntry, len(w.Simple.Operations))
		for i, e := range w.Simple.Operations {
			ops[i] = fromLogEntryWire(e)
		}
		return &vtypes.SimpleSnapshot{Schemas: w.Simple.Schemas, Operations: ops, Index: w.Simple.Index, Term: w.Simple.Term}, nil
	case vtypes.SnapshotFile:
		if w.File == nil {
			return nil, vtypes.ErrSnapshotDeserialise
		}
		return &vtypes.FileSnapshot{Schemas: w.File.Schemas, Files: w.File.Files, Index: w.File.Index, Term: w.File.Term}, nil
	case vtypes.SnapshotPartitioned:
		if w.Partitioned == nil {
			return nil, vtypes.ErrSnapshotDeserialise
		}
		perSlot := make(map[vtypes.Slot]vtypes.Snapshot, len(w.Partitioned.PerSlot))
		for slot, sub := range w.Partitioned.PerSlot {
			inner, err := SnapshotFromWire(sub)
			if err != nil {
				return nil, err
			}
			perSlot[vtypes.Slot(slot)] = inner
		}
		return &vtypes.PartitionedSnapshot{PerSlot: perSlot, Index: w.Partitioned.Index, Term: w.Partitioned.Term}, nil
	default:
		return nil, fmt.Errorf("%w: unknown wire kind %d", vtypes.ErrSnapshotDeserialise, w.Kind)
	}
}

// SendSnapshotRequest carries a serialised snapshot of any variant for one
// slot, the wire shape of sendSnapshot.
type SendSnapshotRequest struct {
	Slot     int32
	Snapshot *SnapshotWire
}

// AckResponse is the shared ack shape for sendSnapshot and endQuery.
type AckResponse struct {
	OK bool
}

// PullSnapshotRequest/Response implement the pullSnapshot RPC.
type PullSnapshotRequest struct {
	Slots []int32
}

type PullSnapshotResponse struct {
	Snapshots map[int32]*SnapshotWire
}

// PullSchemaRequest/Response implement pullTimeSeriesSchema.
type PullSchemaRequest struct {
	Prefix string
}

type PullSchemaResponse struct {
	Schemas []vtypes.MeasurementSchema
}

// QuerySingleSeriesRequest/Response implement querySingleSeries.
type QuerySingleSeriesRequest struct {
	Path          string
	FilterBytes   []byte
	Requester     vtypes.Node
	QueryID       string
	PushDownUnseq bool
}

type QuerySingleSeriesResponse struct {
	ReaderID int64
}

// FetchSingleSeriesRequest/Response implement fetchSingleSeries.
type FetchSingleSeriesRequest struct {
	ReaderID  int64
	FetchSize int32
}

type FetchSingleSeriesResponse struct {
	Data []byte
}

// EndQueryRequest implements endQuery.
type EndQueryRequest struct {
	Requester vtypes.Node
	QueryID   string
}

// GetAllPathsRequest/Response implement getAllPaths.
type GetAllPathsRequest struct {
	Prefix string
}

type GetAllPathsResponse struct {
	Paths []string
}

// ElectionRequest/Response implement the election RPC: both the candidate's
// metadata-log and data-log positions travel together so
// processElectionRequest can gate on the metadata log first.
type ElectionRequest struct {
	Term             int64
	MetaLastLogTerm  int64
	MetaLastIndex    int64
	DataLastLogTerm  int64
	DataLastIndex    int64
	Elector          vtypes.Node
}

type ElectionResponse struct {
	Verdict int32
}

// ReadFileChunkRequest/Response back the File Puller's chunked transfer
// (64 KiB chunks); it is not in the public RPC table but is the wire
// counterpart of filepull.RemoteFileReader.
type ReadFileChunkRequest struct {
	Path        string
	Offset      int64
	Length      int64
	GroupHeader string
}

type ReadFileChunkResponse struct {
	Data []byte
}

// ExecuteNonQueryRequest/Response back executeNonQuery's leader-forward
// path; like ReadFileChunk it is internal plumbing rather than a
// client-facing entry in the public RPC table.
type ExecuteNonQueryRequest struct {
	Plan []byte
}

type ExecuteNonQueryResponse struct {
	Handled bool
}
